// Package httpapi serves the cached unit state and accepts commands over
// HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"que_bridge/internal/api"
	"que_bridge/internal/commands"
	"que_bridge/internal/hvac"
	"que_bridge/internal/types"
)

// Controller is the unit surface the Server drives.
type Controller interface {
	Snapshot() types.HvacStatus
	Submit(ctx context.Context, req hvac.CommandRequest) (api.Result, error)
}

type Server struct {
	unit   Controller
	logger *slog.Logger
}

func NewServer(unit Controller, logger *slog.Logger) *Server {
	return &Server{unit: unit, logger: logger}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/zones/{sensorID}", s.handleZone)
	r.Post("/api/commands", s.handleCommand)
}

type commandResponse struct {
	Result api.Result `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.unit.Snapshot()
	if status.PowerState == "" && !status.APIError {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no status received yet"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "sensorID")
	for _, z := range s.unit.Snapshot().Zones {
		if z.SensorID == sensorID {
			writeJSON(w, http.StatusOK, z)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "zone not found"})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req hvac.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commandResponse{Error: "invalid command body"})
		return
	}

	s.logger.Info("Command received", "command", req.Command, "zone", req.Zone, "source", "http")
	result, err := s.unit.Submit(r.Context(), req)
	if err != nil {
		s.logger.Error("Command failed", "command", req.Command, "error", err)
		writeJSON(w, errorStatus(err), commandResponse{Result: result, Error: err.Error()})
		return
	}
	writeJSON(w, resultStatus(result), commandResponse{Result: result})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, commands.ErrUnknownKind), errors.Is(err, hvac.ErrZoneRequired),
		errors.Is(err, hvac.ErrSetpointRequired):
		return http.StatusBadRequest
	case errors.Is(err, hvac.ErrZoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, hvac.ErrZoneNotPresent):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func resultStatus(result api.Result) int {
	switch result {
	case api.ResultSuccess:
		return http.StatusOK
	case api.ResultFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
