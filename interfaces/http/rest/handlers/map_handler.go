package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// MapHandler serves the saved-map library.
type MapHandler struct {
	repo         *savedmaps.Repository
	logger       *zap.Logger
	errorHandler *errors.ErrorHandler
}

// NewMapHandler creates a new map handler
func NewMapHandler(repo *savedmaps.Repository, logger *zap.Logger, errorHandler *errors.ErrorHandler) *MapHandler {
	return &MapHandler{repo: repo, logger: logger, errorHandler: errorHandler}
}

func notFound(name string) error {
	return errors.NewNotFoundError(fmt.Sprintf("map '%s'", name))
}

// ListMaps handles GET /api/v1/maps
func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := h.repo.List(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	resp := api.MapListResponse{Maps: make([]api.MapSummary, 0, len(maps))}
	for _, m := range maps {
		resp.Maps = append(resp.Maps, api.MapSummary{
			Name:      m.Name,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			NodeCount: len(m.Nodes),
			EdgeCount: len(m.Edges),
		})
	}
	respondJSON(w, h.logger, http.StatusOK, resp)
}

// GetMap handles GET /api/v1/maps/{name}
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	m, found, err := h.repo.Get(r.Context(), name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if !found {
		h.errorHandler.Handle(w, r, notFound(name))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, m)
}

// SaveMap handles PUT /api/v1/maps/{name}
func (h *MapHandler) SaveMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	var req api.SaveMapRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	saved, err := h.repo.Put(r.Context(), savedmaps.SavedMap{Name: name, Nodes: req.Nodes, Edges: req.Edges})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.logger.Info("Map saved", zap.String("name", name), zap.Int("nodes", len(saved.Nodes)))
	respondJSON(w, h.logger, http.StatusOK, saved)
}

// DeleteMap handles DELETE /api/v1/maps/{name}. Deleting a missing map
// succeeds.
func (h *MapHandler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := h.repo.Delete(r.Context(), name); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameMap handles POST /api/v1/maps/{name}/rename
func (h *MapHandler) RenameMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	var req api.RenameMapRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	moved, err := h.repo.Rename(r.Context(), name, req.NewName)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if !moved {
		h.errorHandler.Handle(w, r, notFound(name))
		return
	}
	m, _, err := h.repo.Get(r.Context(), req.NewName)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, m)
}

// CleanupMaps handles POST /api/v1/maps/cleanup
func (h *MapHandler) CleanupMaps(w http.ResponseWriter, r *http.Request) {
	removed, err := h.repo.CleanupInvalid(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, api.CleanupResponse{Removed: removed})
}

// ExportMap handles GET /api/v1/maps/{name}/export?format=json|xml
func (h *MapHandler) ExportMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	format, err := savedmaps.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	m, found, err := h.repo.Get(r.Context(), name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if !found {
		h.errorHandler.Handle(w, r, notFound(name))
		return
	}

	contentType := "application/json"
	if format == savedmaps.FormatXML {
		contentType = "application/xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		"mindmap."+string(format), url.PathEscape(name)+"."+string(format)))
	if err := savedmaps.WriteMap(w, m, format); err != nil {
		h.logger.Error("Failed to write export", zap.String("name", name), zap.Error(err))
	}
}

// ImportMap handles POST /api/v1/maps/{name}/import?format=json|xml. The
// body is an exported map; it is stored under {name}.
func (h *MapHandler) ImportMap(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	format, err := savedmaps.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	saved, err := h.repo.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes), format, name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, saved)
}
