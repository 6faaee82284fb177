package handler

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angeloszaimis/request-router/internal/dispatcher"
)

// Dispatcher is the part of the dispatcher the handler depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.Request) dispatcher.Response
}

type DispatchHandler struct {
	logger     *slog.Logger
	dispatcher Dispatcher
}

func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	requestID := r.Header.Get(dispatcher.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", requestID),
		slog.String("user_agent", r.UserAgent()))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("Failed to read request body",
			slog.String("request_id", requestID),
			slog.Any("err", err))
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), dispatcher.Request{
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   requestID,
	})

	w.Header().Set(dispatcher.RequestIDHeader, requestID)
	if resp.StatusCode == http.StatusOK {
		w.Header().Set("Content-Type", dispatcher.DefaultContentType)
	}
	w.WriteHeader(resp.StatusCode)

	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			h.logger.Warn("Failed to write response",
				slog.String("request_id", requestID),
				slog.Any("err", err))
		}
	}

	h.logger.Info("Request completed",
		slog.String("from", clientIP),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode))
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func NewDispatchHandler(logger *slog.Logger, d Dispatcher) *DispatchHandler {
	return &DispatchHandler{
		logger:     logger,
		dispatcher: d,
	}
}
