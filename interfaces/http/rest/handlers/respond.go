// Package handlers implements the HTTP API handlers.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

const maxBodyBytes = 4 << 20

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid request body: %v", err))
	}
	return utils.ValidateStruct(v)
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// nameParam returns the unescaped {name} path parameter.
func nameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid map name %q", raw))
	}
	return name, nil
}
