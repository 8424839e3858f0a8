package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/streamr/backend/internal/logging"
	"github.com/streamr/backend/internal/models"
	"github.com/streamr/backend/internal/repositories"
)

// CommentRoutes handles GET and POST on /api/videos/{id}/comments.
func (h VideoHandler) CommentRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listComments(w, r)
	case http.MethodPost:
		h.addComment(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := r.PathValue("id")
	comments, err := h.Comments.ListForVideo(ctx, videoID)
	if err != nil {
		logger.Error("list comments failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	respondJSON(ctx, w, http.StatusOK, comments)
}

func (h VideoHandler) addComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := viewerID(h.Verifier, r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment text required"})
		return
	}

	author, err := h.Users.FindByID(ctx, viewer)
	if err != nil {
		logger.Error("comment author lookup failed", "error", err, "userId", viewer)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add comment"})
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   r.PathValue("id"),
		Author:    models.CommentAuthor{ID: author.ID, Email: author.Email},
		Text:      req.Text,
		CreatedAt: h.now(),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("create comment failed", "error", err, "videoId", comment.VideoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add comment"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

type addCommentRequest struct {
	Text string `json:"text"`
}
