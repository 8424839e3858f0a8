package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamr/backend/internal/logging"
	"github.com/streamr/backend/internal/models"
	"github.com/streamr/backend/internal/repositories"
	"github.com/streamr/backend/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// uploadMemoryLimit bounds how much of a multipart body is buffered in
	// memory before spilling to temp files.
	uploadMemoryLimit = 32 << 20
)

// VideoHandler provides the video catalog endpoints: listing, detail, upload,
// social mutators, comments, and owner deletion.
type VideoHandler struct {
	Videos   VideoStore
	Comments CommentStore
	Users    UserStore
	Verifier TokenVerifier
	Uploads  storage.Storage
	NowFunc  func() time.Time
}

// List handles GET /api/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	opts := repositories.ListVideosOptions{
		Skip:       parseIntParam(r.URL.Query().Get("skip"), 0),
		Limit:      parseIntParam(r.URL.Query().Get("limit"), defaultPageSize),
		UploaderID: strings.TrimSpace(r.URL.Query().Get("uploader")),
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}

	videos, err := h.Videos.List(ctx, opts)
	if err != nil {
		logger.Error("list videos failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

// Detail handles GET and DELETE on /api/videos/{id}.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("fetch video failed", "error", err, "videoId", r.PathValue("id"))
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := viewerID(h.Verifier, r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	videoID := r.PathValue("id")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("fetch video for delete failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	if video.UploaderID == "" || video.UploaderID != viewer {
		logger.Warn("delete forbidden", "videoId", videoID, "viewerId", viewer, "uploaderId", video.UploaderID)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not authorized to delete this video"})
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("delete video failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "video deleted"})
}

// Upload handles POST /api/videos/upload: multipart metadata plus the video
// binary and an optional thumbnail. Anonymous uploads are allowed; a valid
// bearer token attributes the video to its uploader.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Uploads == nil {
		logger.Error("upload storage unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload storage unavailable"})
		return
	}

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	privacy := strings.TrimSpace(r.FormValue("privacy"))
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	switch privacy {
	case models.PrivacyPublic, models.PrivacyUnlisted, models.PrivacyPrivate:
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid privacy setting"})
		return
	}

	var tags []string
	if raw := strings.TrimSpace(r.FormValue("tags")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "tags must be a JSON array of strings"})
			return
		}
	}

	videoFile, videoHeader, err := r.FormFile("video")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer videoFile.Close()

	videoURL, err := h.Uploads.Save(ctx, videoHeader.Filename, videoFile)
	if err != nil {
		logger.Error("store video file failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	var thumbnailURL string
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		thumbnailURL, err = h.Uploads.Save(ctx, thumbHeader.Filename, thumbFile)
		if err != nil {
			logger.Error("store thumbnail failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store thumbnail"})
			return
		}
	}

	uploader, _ := viewerID(h.Verifier, r)

	video := models.Video{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    strings.TrimSpace(r.FormValue("description")),
		Category:       strings.TrimSpace(r.FormValue("category")),
		Tags:           tags,
		VideoURL:       videoURL,
		ThumbnailURL:   thumbnailURL,
		Privacy:        privacy,
		Monetization:   r.FormValue("monetization") == "true",
		AgeRestriction: r.FormValue("ageRestriction") == "true",
		UploaderID:     uploader,
		CreatedAt:      h.now(),
		LikedBy:        []string{},
		BookmarkedBy:   []string{},
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video failed", "error", err, "videoId", video.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	logger.Info("video uploaded", "videoId", video.ID, "uploaderId", uploader, "title", title)
	respondJSON(ctx, w, http.StatusCreated, video)
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
