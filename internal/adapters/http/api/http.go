// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/comicboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GetOrGenerate returns the comic for key, generating on a miss.
	GetOrGenerate(ctx context.Context, key string) (types.Comic, error)

	// RecordScore backfills a leaderboard score directly.
	RecordScore(ctx context.Context, region, key string, score float64, displayName, location, artifactRef string) (types.Entry, error)

	// TopN exposes ranked leaderboard data per region.
	TopN(ctx context.Context, region string, n int) ([]types.Entry, error)

	// MaxLeaderboardLimit caps TopN query sizes.
	MaxLeaderboardLimit() int
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Comic mirrors the read shape returned by comic queries.
type Comic = types.Comic

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	comicHandler       *ComicHandler
	leaderboardHandler *LeaderboardHandler
	scoresHandler      *ScoresHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		comicHandler:       NewComicHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, deps.MaxLeaderboardLimit()),
		scoresHandler:      NewScoresHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/comic/", MetricsMiddleware(s.comicHandler.HandleGetComic, "comic"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
