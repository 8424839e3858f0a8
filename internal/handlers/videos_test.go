package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamr/backend/internal/models"
	"github.com/streamr/backend/internal/repositories"
)

type videoStoreStub struct {
	video     models.Video
	findErr   error
	list      []models.Video
	listOpts  repositories.ListVideosOptions
	listErr   error
	created   models.Video
	createErr error
	deletedID string
	deleteErr error

	count     int
	mutateErr error
	mutations []string
}

func (s *videoStoreStub) Create(_ context.Context, video models.Video) error {
	s.created = video
	return s.createErr
}

func (s *videoStoreStub) FindByID(_ context.Context, id string) (models.Video, error) {
	if s.findErr != nil {
		return models.Video{}, s.findErr
	}
	return s.video, nil
}

func (s *videoStoreStub) List(_ context.Context, opts repositories.ListVideosOptions) ([]models.Video, error) {
	s.listOpts = opts
	return s.list, s.listErr
}

func (s *videoStoreStub) Delete(_ context.Context, id string) error {
	s.deletedID = id
	return s.deleteErr
}

func (s *videoStoreStub) AddLike(_ context.Context, videoID, userID string) (int, error) {
	s.mutations = append(s.mutations, fmt.Sprintf("addLike:%s:%s", videoID, userID))
	return s.count, s.mutateErr
}

func (s *videoStoreStub) RemoveLike(_ context.Context, videoID, userID string) (int, error) {
	s.mutations = append(s.mutations, fmt.Sprintf("removeLike:%s:%s", videoID, userID))
	return s.count, s.mutateErr
}

func (s *videoStoreStub) AddBookmark(_ context.Context, videoID, userID string) (int, error) {
	s.mutations = append(s.mutations, fmt.Sprintf("addBookmark:%s:%s", videoID, userID))
	return s.count, s.mutateErr
}

func (s *videoStoreStub) RemoveBookmark(_ context.Context, videoID, userID string) (int, error) {
	s.mutations = append(s.mutations, fmt.Sprintf("removeBookmark:%s:%s", videoID, userID))
	return s.count, s.mutateErr
}

// staticVerifier maps bearer tokens to user ids.
type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return userID, nil
}

type storageStub struct {
	saved map[string]string
	err   error
}

func newStorageStub() *storageStub {
	return &storageStub{saved: make(map[string]string)}
}

func (s *storageStub) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	contents, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[name] = string(contents)
	return "/uploads/" + name, nil
}

func TestVideoHandlerListClampsPaging(t *testing.T) {
	store := &videoStoreStub{list: []models.Video{{ID: "v1"}, {ID: "v2"}}}
	handler := VideoHandler{Videos: store}

	req := httptest.NewRequest(http.MethodGet, "/api/videos?skip=5&limit=500&uploader=u1", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if store.listOpts.Skip != 5 || store.listOpts.Limit != 100 || store.listOpts.UploaderID != "u1" {
		t.Fatalf("unexpected list options: %+v", store.listOpts)
	}

	var resp []models.Video
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 videos got %d", len(resp))
	}
}

func TestVideoHandlerListDefaults(t *testing.T) {
	store := &videoStoreStub{}
	handler := VideoHandler{Videos: store}

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if store.listOpts.Skip != 0 || store.listOpts.Limit != defaultPageSize {
		t.Fatalf("unexpected default options: %+v", store.listOpts)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array response got %q", body)
	}
}

func TestVideoHandlerGet(t *testing.T) {
	store := &videoStoreStub{video: models.Video{ID: "v1", Title: "Clip"}}
	handler := VideoHandler{Videos: store}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp models.Video
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Title != "Clip" {
		t.Fatalf("unexpected video: %+v", resp)
	}
}

func TestVideoHandlerGetNotFound(t *testing.T) {
	handler := VideoHandler{Videos: &videoStoreStub{findErr: repositories.ErrNotFound}}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestVideoHandlerDeleteByOwner(t *testing.T) {
	store := &videoStoreStub{video: models.Video{ID: "v1", UploaderID: "u1"}}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u1"}}

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if store.deletedID != "v1" {
		t.Fatalf("expected delete of v1, got %q", store.deletedID)
	}
}

func TestVideoHandlerDeleteForbiddenForNonOwner(t *testing.T) {
	store := &videoStoreStub{video: models.Video{ID: "v1", UploaderID: "u1"}}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u2"}}

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 got %d", rec.Code)
	}
	if store.deletedID != "" {
		t.Fatalf("expected no delete, got %q", store.deletedID)
	}
}

func TestVideoHandlerDeleteRequiresAuth(t *testing.T) {
	handler := VideoHandler{Videos: &videoStoreStub{}, Verifier: staticVerifier{}}

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
}

func buildUploadRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file %s: %v", field, err)
		}
		if _, err := part.Write([]byte(field + "-bytes")); err != nil {
			t.Fatalf("write form file %s: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestVideoHandlerUpload(t *testing.T) {
	store := &videoStoreStub{}
	uploads := newStorageStub()
	handler := VideoHandler{
		Videos:   store,
		Verifier: staticVerifier{"tok": "u1"},
		Uploads:  uploads,
		NowFunc: func() time.Time {
			return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
		},
	}

	req := buildUploadRequest(t, map[string]string{
		"title":        "My Clip",
		"description":  "desc",
		"category":     "sports",
		"tags":         `["skate","line"]`,
		"privacy":      "unlisted",
		"monetization": "true",
	}, map[string]string{
		"video":     "clip.mp4",
		"thumbnail": "thumb.jpg",
	})
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}

	created := store.created
	if created.ID == "" {
		t.Fatal("expected video ID to be set")
	}
	if created.Title != "My Clip" || created.Category != "sports" || created.Privacy != "unlisted" {
		t.Fatalf("unexpected video metadata: %+v", created)
	}
	if len(created.Tags) != 2 || created.Tags[0] != "skate" {
		t.Fatalf("unexpected tags: %+v", created.Tags)
	}
	if !created.Monetization || created.AgeRestriction {
		t.Fatalf("unexpected flags: %+v", created)
	}
	if created.UploaderID != "u1" {
		t.Fatalf("expected uploader u1 got %q", created.UploaderID)
	}
	if created.VideoURL != "/uploads/clip.mp4" || created.ThumbnailURL != "/uploads/thumb.jpg" {
		t.Fatalf("unexpected locations: %+v", created)
	}
	if !created.CreatedAt.Equal(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created at: %v", created.CreatedAt)
	}
	if uploads.saved["clip.mp4"] != "video-bytes" {
		t.Fatalf("expected video bytes stored, got %q", uploads.saved["clip.mp4"])
	}
}

func TestVideoHandlerUploadAnonymous(t *testing.T) {
	store := &videoStoreStub{}
	handler := VideoHandler{Videos: store, Uploads: newStorageStub()}

	req := buildUploadRequest(t, map[string]string{"title": "Anon"}, map[string]string{"video": "clip.mp4"})
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d", rec.Code)
	}
	if store.created.UploaderID != "" {
		t.Fatalf("expected anonymous upload, got uploader %q", store.created.UploaderID)
	}
	if store.created.Privacy != models.PrivacyPublic {
		t.Fatalf("expected privacy to default to public, got %q", store.created.Privacy)
	}
}

func TestVideoHandlerUploadValidation(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{"missing title", map[string]string{}, map[string]string{"video": "clip.mp4"}},
		{"missing video file", map[string]string{"title": "Clip"}, nil},
		{"bad privacy", map[string]string{"title": "Clip", "privacy": "secret"}, map[string]string{"video": "clip.mp4"}},
		{"bad tags", map[string]string{"title": "Clip", "tags": "not-json"}, map[string]string{"video": "clip.mp4"}},
	}

	for _, tc := range cases {
		store := &videoStoreStub{}
		handler := VideoHandler{Videos: store, Uploads: newStorageStub()}

		req := buildUploadRequest(t, tc.fields, tc.files)
		rec := httptest.NewRecorder()

		handler.Upload(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400 got %d", tc.name, rec.Code)
		}
		if store.created.ID != "" {
			t.Fatalf("%s: expected no video stored", tc.name)
		}
	}
}
