package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamr/backend/internal/auth"
	"github.com/streamr/backend/internal/config"
	"github.com/streamr/backend/internal/db"
	"github.com/streamr/backend/internal/handlers"
	"github.com/streamr/backend/internal/middleware"
	"github.com/streamr/backend/internal/repositories"
	"github.com/streamr/backend/internal/storage"
)

const (
	authLimiterRequests = 10
	authLimiterBurst    = 5
	authLimiterTTL      = 10 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases resources the dependencies hold
// (currently the Redis session client).
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	cleanup := func(context.Context) error { return nil }

	var sessionStore auth.SessionStore = auth.NewInMemorySessionStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		sessionStore = auth.NewRedisSessionStore(client)
		cleanup = func(context.Context) error { return client.Close() }
	}

	manager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, sessionStore)

	deps := handlers.Dependencies{
		Users:       repositories.NewPostgresUserRepository(pool),
		Sessions:    manager,
		Verifier:    manager,
		Videos:      repositories.NewPostgresVideoRepository(pool),
		Comments:    repositories.NewPostgresCommentRepository(pool),
		AuthLimiter: middleware.NewIPRateLimiter(authLimiterRequests, handlers.DefaultAuthLimiterWindow, authLimiterBurst, authLimiterTTL),
	}

	switch cfg.Storage.Backend {
	case "s3":
		uploads, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		deps.Uploads = uploads
	default:
		uploads, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure upload storage: %w", err)
		}
		deps.Uploads = uploads
		deps.UploadDir = uploads.Dir()
	}

	return deps, cleanup, nil
}
