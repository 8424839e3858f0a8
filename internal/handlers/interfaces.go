package handlers

import (
	"context"

	"github.com/streamr/backend/internal/models"
	"github.com/streamr/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the auth and comment handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// TokenVerifier authenticates bearer access tokens, returning the user id they
// were issued to.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

// VideoStore captures persistence for video metadata and the like/bookmark sets.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, opts repositories.ListVideosOptions) ([]models.Video, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, videoID, userID string) (int, error)
	RemoveLike(ctx context.Context, videoID, userID string) (int, error)
	AddBookmark(ctx context.Context, videoID, userID string) (int, error)
	RemoveBookmark(ctx context.Context, videoID, userID string) (int, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}
