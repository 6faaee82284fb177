package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/angeloszaimis/request-router/internal/metrics"
)

func setupRouter(dispatchHandler http.Handler, metricsCollector *metrics.Collector, strategy string) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/", dispatchHandler).Methods(http.MethodPost)
	r.Handle("/metrics", metricsCollector.PrometheusHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", metricsCollector.StatsHandler(strategy)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return r
}
