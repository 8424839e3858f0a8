package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamr/backend/internal/repositories"
)

func newSocialRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	return req
}

func TestVideoHandlerLike(t *testing.T) {
	store := &videoStoreStub{count: 3}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u1"}}

	rec := httptest.NewRecorder()
	handler.Like(rec, newSocialRequest("/api/videos/v1/like"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["likes"] != 3 {
		t.Fatalf("expected likes=3 got %+v", resp)
	}
	if len(store.mutations) != 1 || store.mutations[0] != "addLike:v1:u1" {
		t.Fatalf("unexpected mutations: %v", store.mutations)
	}
}

func TestVideoHandlerUnlike(t *testing.T) {
	store := &videoStoreStub{count: 0}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u1"}}

	rec := httptest.NewRecorder()
	handler.Unlike(rec, newSocialRequest("/api/videos/v1/unlike"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if len(store.mutations) != 1 || store.mutations[0] != "removeLike:v1:u1" {
		t.Fatalf("unexpected mutations: %v", store.mutations)
	}
}

func TestVideoHandlerBookmarkResponseField(t *testing.T) {
	store := &videoStoreStub{count: 7}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u1"}}

	rec := httptest.NewRecorder()
	handler.Bookmark(rec, newSocialRequest("/api/videos/v1/bookmark"))

	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["bookmarks"] != 7 {
		t.Fatalf("expected bookmarks=7 got %+v", resp)
	}
}

func TestVideoHandlerLikeRequiresAuth(t *testing.T) {
	store := &videoStoreStub{}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{}}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/like", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.Like(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
	if len(store.mutations) != 0 {
		t.Fatalf("expected no mutations, got %v", store.mutations)
	}
}

func TestVideoHandlerLikeMissingVideo(t *testing.T) {
	store := &videoStoreStub{mutateErr: repositories.ErrNotFound}
	handler := VideoHandler{Videos: store, Verifier: staticVerifier{"tok": "u1"}}

	rec := httptest.NewRecorder()
	handler.Like(rec, newSocialRequest("/api/videos/v1/like"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestVideoHandlerLikeRejectsGet(t *testing.T) {
	handler := VideoHandler{Videos: &videoStoreStub{}, Verifier: staticVerifier{"tok": "u1"}}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/like", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.Like(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 got %d", rec.Code)
	}
}
