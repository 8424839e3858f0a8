package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamr/backend/internal/models"
	"github.com/streamr/backend/internal/repositories"
)

type commentStoreStub struct {
	created   models.Comment
	createErr error
	list      []models.Comment
	listErr   error
}

func (s *commentStoreStub) Create(_ context.Context, comment models.Comment) error {
	s.created = comment
	return s.createErr
}

func (s *commentStoreStub) ListForVideo(_ context.Context, videoID string) ([]models.Comment, error) {
	return s.list, s.listErr
}

func TestVideoHandlerListComments(t *testing.T) {
	comments := &commentStoreStub{list: []models.Comment{
		{ID: "c2", Text: "second"},
		{ID: "c1", Text: "first"},
	}}
	handler := VideoHandler{Comments: comments}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/comments", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp []models.Comment
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "c2" {
		t.Fatalf("unexpected comments: %+v", resp)
	}
}

func TestVideoHandlerListCommentsEmpty(t *testing.T) {
	handler := VideoHandler{Comments: &commentStoreStub{}}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/comments", nil)
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array response got %q", body)
	}
}

func TestVideoHandlerAddComment(t *testing.T) {
	users := newInMemoryUserStore()
	users.users["a@example.com"] = models.User{ID: "u1", Email: "a@example.com"}
	comments := &commentStoreStub{}
	handler := VideoHandler{
		Comments: comments,
		Users:    users,
		Verifier: staticVerifier{"tok": "u1"},
		NowFunc: func() time.Time {
			return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
		},
	}

	body := bytes.NewBufferString(`{"text":"  nice line  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/comments", body)
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}

	created := comments.created
	if created.ID == "" || created.VideoID != "v1" {
		t.Fatalf("unexpected comment: %+v", created)
	}
	if created.Text != "nice line" {
		t.Fatalf("expected trimmed text, got %q", created.Text)
	}
	if created.Author.ID != "u1" || created.Author.Email != "a@example.com" {
		t.Fatalf("unexpected author: %+v", created.Author)
	}
}

func TestVideoHandlerAddCommentRequiresAuth(t *testing.T) {
	comments := &commentStoreStub{}
	handler := VideoHandler{Comments: comments, Verifier: staticVerifier{}}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/comments", bytes.NewBufferString(`{"text":"hi"}`))
	req.SetPathValue("id", "v1")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
	if comments.created.ID != "" {
		t.Fatalf("expected no comment stored, got %+v", comments.created)
	}
}

func TestVideoHandlerAddCommentRejectsEmptyText(t *testing.T) {
	users := newInMemoryUserStore()
	users.users["a@example.com"] = models.User{ID: "u1", Email: "a@example.com"}
	comments := &commentStoreStub{}
	handler := VideoHandler{Comments: comments, Users: users, Verifier: staticVerifier{"tok": "u1"}}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/comments", bytes.NewBufferString(`{"text":"   "}`))
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if comments.created.ID != "" {
		t.Fatalf("expected no comment stored, got %+v", comments.created)
	}
}

func TestVideoHandlerAddCommentMissingVideo(t *testing.T) {
	users := newInMemoryUserStore()
	users.users["a@example.com"] = models.User{ID: "u1", Email: "a@example.com"}
	comments := &commentStoreStub{createErr: repositories.ErrNotFound}
	handler := VideoHandler{Comments: comments, Users: users, Verifier: staticVerifier{"tok": "u1"}}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/comments", bytes.NewBufferString(`{"text":"hi"}`))
	req.SetPathValue("id", "v1")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	handler.CommentRoutes(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}
