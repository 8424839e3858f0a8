package handlers

import (
	"net/http"
	"time"

	"github.com/streamr/backend/internal/storage"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{
		Videos:   deps.Videos,
		Comments: deps.Comments,
		Users:    deps.Users,
		Verifier: deps.Verifier,
		Uploads:  deps.Uploads,
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/auth/login", auth.Login)
	mux.HandleFunc("/api/auth/refresh", auth.Refresh)

	mux.HandleFunc("/api/videos", videos.List)
	mux.HandleFunc("/api/videos/upload", videos.Upload)
	mux.HandleFunc("/api/videos/{id}", videos.Detail)
	mux.HandleFunc("/api/videos/{id}/like", videos.Like)
	mux.HandleFunc("/api/videos/{id}/unlike", videos.Unlike)
	mux.HandleFunc("/api/videos/{id}/bookmark", videos.Bookmark)
	mux.HandleFunc("/api/videos/{id}/unbookmark", videos.Unbookmark)
	mux.HandleFunc("/api/videos/{id}/comments", videos.CommentRoutes)

	if deps.UploadDir != "" {
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Verifier TokenVerifier
	Videos   VideoStore
	Comments CommentStore
	Uploads  storage.Storage

	// UploadDir, when set, is served read-only under /uploads/ for the local
	// storage backend.
	UploadDir string

	AuthLimiter RateLimiter
}

// DefaultAuthLimiterWindow bounds how fast one IP may hit the auth endpoints.
const DefaultAuthLimiterWindow = time.Minute
