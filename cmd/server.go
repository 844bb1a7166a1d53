package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/espfetch/esp"
	"i4.energy/across/espfetch/httpjson"
)

// Radio is what the HTTP bridge needs from a radio session.
type Radio interface {
	Fetch(ctx context.Context) (httpjson.Result, error)
	Ping(ctx context.Context) error
}

// Server exposes the radio's readings over HTTP
type Server struct {
	Logger *slog.Logger
	Radio  Radio
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /reading", s.handleReading)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// errorStatus maps radio failures to the bridge's status codes.
func errorStatus(err error) int {
	var protoErr *esp.ProtocolError
	var transportErr *esp.TransportError
	switch {
	case errors.Is(err, esp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, esp.ErrNotJoined), errors.Is(err, esp.ErrNotReady), errors.Is(err, esp.ErrAlreadyClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &protoErr), errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.Is(err, esp.ErrParse), errors.Is(err, esp.ErrJSON), errors.Is(err, esp.ErrOverrun):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleReading fetches one reading through the radio
func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	res, err := s.Radio.Fetch(r.Context())
	if err != nil {
		s.Logger.Error("Failed to fetch reading", "error", err)
		s.sendError(w, err.Error(), errorStatus(err))
		return
	}

	type ReadingResponse struct {
		Status int     `json:"status"`
		Kind   string  `json:"kind"`
		Values []int64 `json:"values"`
	}
	resp := ReadingResponse{
		Status: res.Status,
		Kind:   res.Payload.Kind.String(),
		Values: res.Payload.Values(),
	}
	if resp.Values == nil {
		resp.Values = []int64{}
	}

	s.Logger.Info("Reading fetched", "status", res.Status, "values", len(resp.Values))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleHealth reports whether the radio answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Radio.Ping(r.Context()); err != nil {
		s.Logger.Warn("Radio not responding", "error", err)
		s.sendError(w, err.Error(), errorStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
