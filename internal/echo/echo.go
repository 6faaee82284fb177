package echo

import (
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
)

const (
	HealthPath = "/healthz"
	EchoPath   = "/echo"
)

type Handler struct {
	logger  *slog.Logger
	router  *mux.Router
	healthy atomic.Bool
}

func NewHandler(logger *slog.Logger) *Handler {
	h := &Handler{
		logger: logger,
		router: mux.NewRouter(),
	}
	h.healthy.Store(true)

	h.router.HandleFunc(HealthPath, h.health).Methods(http.MethodGet)
	h.router.HandleFunc(EchoPath, h.echo).Methods(http.MethodPost)

	return h
}

// SetHealthy switches the health endpoint between 200 and 503.
// Echo keeps working either way.
func (h *Handler) SetHealthy(healthy bool) {
	h.healthy.Store(healthy)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !h.healthy.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) echo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.logger.Info("Echoing request",
		slog.String("from", r.RemoteAddr),
		slog.String("request_id", r.Header.Get("X-Request-ID")),
		slog.Int("bytes", len(body)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
