package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/streamr/backend/internal/logging"
	"github.com/streamr/backend/internal/repositories"
)

// Like handles POST /api/videos/{id}/like.
func (h VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, "likes", h.Videos.AddLike)
}

// Unlike handles POST /api/videos/{id}/unlike.
func (h VideoHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, "likes", h.Videos.RemoveLike)
}

// Bookmark handles POST /api/videos/{id}/bookmark.
func (h VideoHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, "bookmarks", h.Videos.AddBookmark)
}

// Unbookmark handles POST /api/videos/{id}/unbookmark.
func (h VideoHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	h.mutateMembership(w, r, "bookmarks", h.Videos.RemoveBookmark)
}

// mutateMembership runs one like/bookmark set mutation and responds with the
// authoritative count keyed by the field name ("likes" or "bookmarks").
func (h VideoHandler) mutateMembership(w http.ResponseWriter, r *http.Request, field string, mutate func(ctx context.Context, videoID, userID string) (int, error)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := viewerID(h.Verifier, r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	videoID := r.PathValue("id")
	count, err := mutate(ctx, videoID, viewer)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("membership mutation failed", "error", err, "videoId", videoID, "field", field)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int{field: count})
}
