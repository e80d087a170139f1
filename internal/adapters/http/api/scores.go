// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/comicboard/internal/domain/rank"
	"github.com/okian/comicboard/internal/domain/rankkey"
)

// ScoresDependencies defines the interface for score backfill.
type ScoresDependencies interface {
	RecordScore(ctx context.Context, region, key string, score float64, displayName, location, artifactRef string) (Entry, error)
}

// ScoresHandler handles administrative score submissions.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest mirrors the POST /scores body.
type scoreRequest struct {
	Region      string  `json:"region"`
	Key         string  `json:"key"`
	Score       float64 `json:"score"`
	DisplayName string  `json:"display_name"`
	Location    string  `json:"location"`
	ArtifactRef string  `json:"artifact_ref"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Region) == "":
		return errors.New("missing region")
	case strings.TrimSpace(s.Key) == "":
		return errors.New("missing key")
	}
	return nil
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entry, err := h.deps.RecordScore(r.Context(), req.Region, req.Key, req.Score, req.DisplayName, req.Location, req.ArtifactRef)
	if err != nil {
		switch {
		case errors.Is(err, rankkey.ErrScoreOutOfRange), errors.Is(err, rank.ErrInvalidEntry):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, rank.ErrConflictExhausted):
			writeError(w, http.StatusConflict, "conflict_exhausted", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
