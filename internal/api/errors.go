package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/faults"
)

type errorMessage struct {
	Error string `json:"error"`
}

// statusFor maps an engine error to an HTTP status via its fault kind.
func statusFor(err error) int {
	if errors.Is(err, backup.ErrBackupNotFound) {
		return http.StatusNotFound
	}
	switch {
	case faults.IsKind(err, faults.NotFound):
		return http.StatusNotFound
	case faults.IsKind(err, faults.Config), faults.IsKind(err, faults.Parse):
		return http.StatusBadRequest
	case faults.IsKind(err, faults.Network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err with the given debug message and writes it as a JSON
// error body. Context cancellation is not worth logging; the client left.
func writeError(w http.ResponseWriter, err error, debug string) {
	if !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg(debug)
	}

	message := "unknown error"
	if err != nil {
		message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	if encodeErr := json.NewEncoder(w).Encode(&errorMessage{Error: message}); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("Error encoding error response")
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}
