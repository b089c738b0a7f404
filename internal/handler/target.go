package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sprocketdb/sprocket/internal/config"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/model"
)

// TargetHandler handles target registration management. Changes are persisted
// in the config store and reflected in the live connection registry.
type TargetHandler struct {
	store    *config.Store
	registry *executor.Registry
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(store *config.Store, registry *executor.Registry) *TargetHandler {
	return &TargetHandler{store: store, registry: registry}
}

// ListTargets returns all registered targets. DSNs are redacted.
// GET /api/v1/system/target
func (h *TargetHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.store.ListTargets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list targets: "+err.Error())
		return
	}

	resources := make([]map[string]interface{}, 0, len(targets))
	for _, tgt := range targets {
		resources = append(resources, targetResource(tgt, h.registry))
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta:     &model.ResponseMeta{Count: len(resources)},
	})
}

// GetTarget returns one target registration by name. The DSN is redacted.
// GET /api/v1/system/target/{targetName}
func (h *TargetHandler) GetTarget(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "targetName")

	tgt, err := h.store.GetTargetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Target not found: "+name)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get target: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, targetResource(*tgt, h.registry))
}

// createTargetRequest is the body of a target registration call.
type createTargetRequest struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	DSN      string `json:"dsn"`
	Schema   string `json:"schema"`
	Language string `json:"language"`
}

// CreateTarget registers a new target, persists it, and connects it.
// POST /api/v1/system/target
func (h *TargetHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var req createTargetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.DSN == "" {
		writeError(w, http.StatusBadRequest, "Fields 'name' and 'dsn' are required")
		return
	}

	tgt := &model.Target{
		Name:     req.Name,
		Label:    req.Label,
		DSN:      req.DSN,
		Schema:   req.Schema,
		Language: req.Language,
		IsActive: true,
		Pool:     model.DefaultPoolConfig(),
	}
	if tgt.Schema == "" {
		tgt.Schema = "dbo"
	}
	if tgt.Language == "" {
		tgt.Language = "R"
	}

	if err := h.store.CreateTarget(r.Context(), tgt); err != nil {
		writeError(w, http.StatusConflict, "Failed to create target: "+err.Error())
		return
	}

	if err := h.registry.Connect(tgt.Name, executor.Config{
		DSN:             tgt.DSN,
		SchemaName:      tgt.Schema,
		MaxOpenConns:    tgt.Pool.MaxOpenConns,
		MaxIdleConns:    tgt.Pool.MaxIdleConns,
		ConnMaxLifetime: tgt.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: tgt.Pool.ConnMaxIdleTime,
	}, tgt.Language); err != nil {
		// Registration is kept; the target can be connected later once the
		// database is reachable.
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"name":    tgt.Name,
			"warning": "registered but not connected: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, targetResource(*tgt, h.registry))
}

// DeleteTarget removes a target registration and closes its connection.
// DELETE /api/v1/system/target/{targetName}
func (h *TargetHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "targetName")

	tgt, err := h.store.GetTargetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Target not found: "+name)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get target: "+err.Error())
		return
	}

	if err := h.store.DeleteTarget(r.Context(), tgt.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete target: "+err.Error())
		return
	}
	h.registry.Disconnect(name) //nolint:errcheck

	w.WriteHeader(http.StatusNoContent)
}

// TestTarget pings a target's database connection.
// POST /api/v1/system/target/{targetName}/test
func (h *TargetHandler) TestTarget(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "targetName")

	client, err := h.registry.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Target not connected: "+name)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":   name,
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"status": "ok",
	})
}

// targetResource shapes a target for API responses. The DSN is omitted; the
// connection status comes from the live registry.
func targetResource(tgt model.Target, registry *executor.Registry) map[string]interface{} {
	connected := false
	if _, err := registry.Get(tgt.Name); err == nil {
		connected = true
	}
	return map[string]interface{}{
		"name":       tgt.Name,
		"label":      tgt.Label,
		"schema":     tgt.Schema,
		"language":   tgt.Language,
		"is_active":  tgt.IsActive,
		"connected":  connected,
		"created_at": tgt.CreatedAt,
		"updated_at": tgt.UpdatedAt,
	}
}
