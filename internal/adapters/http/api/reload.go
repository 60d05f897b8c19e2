package api

import (
	"context"
	"net/http"
)

// ReloadDependencies defines the interface for re-reading the log.
type ReloadDependencies interface {
	Reload(ctx context.Context) error
	SnapshotSource
}

// ReloadHandler handles reload requests.
type ReloadHandler struct {
	deps ReloadDependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadResponse struct {
	Status  string `json:"status"`
	RunID   string `json:"run_id"`
	Version uint64 `json:"version"`
	Events  int    `json:"events"`
}

// HandleReload handles POST /reload requests.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reload(r.Context()); err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	snap := h.deps.Snapshot()
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:  "reloaded",
		RunID:   snap.RunID,
		Version: snap.Version,
		Events:  snap.Events,
	})
}
