package node

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Layr-Labs/hww-signer-go/pkg/codec"
)

// ContentTypeCBOR is the media type of request and response frames.
const ContentTypeCBOR = "application/cbor"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status       string `json:"status"`
	Device       string `json:"device"`
	Version      string `json:"version"`
	Seeded       bool   `json:"seeded"`
	SigningState string `json:"signing_state"`
	Storage      string `json:"storage"`
}

// handleAPI carries one request frame to the commander
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := newRequestID()
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, codec.MaxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer clear(body)

	out, err := s.node.commander.Handle(r.Context(), body)
	if err != nil {
		s.node.logger.Sugar().Errorw("Failed to produce a response", "request_id", requestID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.node.logger.Sugar().Debugw("Request handled",
		"request_id", requestID,
		"request_bytes", len(body),
		"response_bytes", len(out),
		"duration", time.Since(start),
	)

	w.Header().Set("Content-Type", ContentTypeCBOR)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.node.logger.Sugar().Warnw("Failed to write response", "request_id", requestID, "error", err)
	}
}

// handleHealth reports whether the device can serve requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:       "ok",
		Device:       s.node.DeviceName,
		Version:      Version,
		Seeded:       s.node.keyStore.IsSeeded(),
		SigningState: s.node.commander.SigningState().String(),
		Storage:      "ok",
	}
	status := http.StatusOK
	if err := s.node.store.HealthCheck(); err != nil {
		resp.Status = "degraded"
		resp.Storage = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
