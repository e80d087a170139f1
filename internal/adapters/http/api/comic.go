// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/comicboard/internal/adapters/store"
	"github.com/okian/comicboard/internal/domain/cache"
)

// ComicDependencies defines the interface for comic operations.
type ComicDependencies interface {
	GetOrGenerate(ctx context.Context, key string) (Comic, error)
}

// ComicHandler handles comic requests.
type ComicHandler struct {
	deps ComicDependencies
}

// NewComicHandler creates a new comic handler.
func NewComicHandler(deps ComicDependencies) *ComicHandler {
	return &ComicHandler{deps: deps}
}

// HandleGetComic handles GET /comic/{key} requests. A cold key blocks
// on generation; concurrent requests for the same key share one
// generation and report served_from_cache accordingly.
func (h *ComicHandler) HandleGetComic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/comic/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	comic, err := h.deps.GetOrGenerate(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrGeneration):
			writeError(w, http.StatusBadGateway, "generation_failed", err)
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, comic)
}
