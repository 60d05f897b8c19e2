package api

import (
	"context"
	"net/http"

	"github.com/okian/tagboard/internal/domain/types"
)

// AchievementsDependencies defines the interface for the superlatives view.
type AchievementsDependencies interface {
	Achievements(ctx context.Context) types.Achievements
}

// AchievementsHandler handles achievements requests.
type AchievementsHandler struct {
	deps AchievementsDependencies
}

// NewAchievementsHandler creates a new achievements handler.
func NewAchievementsHandler(deps AchievementsDependencies) *AchievementsHandler {
	return &AchievementsHandler{deps: deps}
}

// HandleGetAchievements handles GET /achievements requests.
func (h *AchievementsHandler) HandleGetAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Achievements(r.Context()))
}
