package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// CollaboratorHandler exposes the LLM collaborator over HTTP.
type CollaboratorHandler struct {
	collab       ports.Collaborator
	logger       *zap.Logger
	errorHandler *errors.ErrorHandler
}

// NewCollaboratorHandler creates a new collaborator handler
func NewCollaboratorHandler(collab ports.Collaborator, logger *zap.Logger, errorHandler *errors.ErrorHandler) *CollaboratorHandler {
	return &CollaboratorHandler{collab: collab, logger: logger, errorHandler: errorHandler}
}

// Generate handles POST /api/v1/generate
func (h *CollaboratorHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	m, err := h.collab.GenerateMap(r.Context(), req.Text, api.Level(req.DetailLevel))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, m)
}

// Suggest handles POST /api/v1/suggest
func (h *CollaboratorHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req api.SuggestRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	suggestions, err := h.collab.SuggestChildren(r.Context(), req.NodeLabel, api.Level(req.DetailLevel))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []ports.Suggestion{}
	}
	respondJSON(w, h.logger, http.StatusOK, api.SuggestResponse{Suggestions: suggestions})
}

// Insight handles POST /api/v1/insight
func (h *CollaboratorHandler) Insight(w http.ResponseWriter, r *http.Request) {
	var req api.InsightRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	insight, err := h.collab.GetInsight(r.Context(), ports.InsightRequest{
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Summaries:   req.Summaries,
		DetailLevel: api.Level(req.DetailLevel),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, insight)
}

// Clusters handles POST /api/v1/clusters
func (h *CollaboratorHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	var req api.ClustersRequest
	if err := decode(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	clusters, err := h.collab.GetSemanticClusters(r.Context(), req.Nodes, req.Edges, api.Level(req.DetailLevel))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if clusters == nil {
		clusters = []ports.Cluster{}
	}
	respondJSON(w, h.logger, http.StatusOK, api.ClustersResponse{Clusters: clusters})
}
