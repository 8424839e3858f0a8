package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamr/backend/internal/db"
	"github.com/streamr/backend/internal/models"
)

// ListVideosOptions narrows and pages the video listing.
type ListVideosOptions struct {
	Skip       int
	Limit      int
	UploaderID string
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos,
// including the like and bookmark membership sets.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `
        v.id, v.title, v.description, v.category, v.tags, v.video_url, v.thumbnail_url,
        v.privacy, v.monetization, v.age_restriction, COALESCE(v.uploader_id, ''), v.created_at,
        COALESCE((SELECT array_agg(l.user_id ORDER BY l.created_at) FROM video_likes l WHERE l.video_id = v.id), '{}'),
        COALESCE((SELECT array_agg(b.user_id ORDER BY b.created_at) FROM video_bookmarks b WHERE b.video_id = v.id), '{}')`

// Create stores a new video metadata document.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var uploader any
	if video.UploaderID != "" {
		uploader = video.UploaderID
	}

	tags := video.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, category, tags, video_url, thumbnail_url,
                            privacy, monetization, age_restriction, uploader_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, video.ID, video.Title, video.Description, video.Category, tags, video.VideoURL,
		video.ThumbnailURL, video.Privacy, video.Monetization, video.AgeRestriction, uploader, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video with its like and bookmark sets.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = $1`, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// List returns videos newest first, optionally filtered by uploader.
func (r *PostgresVideoRepository) List(ctx context.Context, opts ListVideosOptions) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `SELECT ` + videoColumns + ` FROM videos v`
	args := []any{}
	if opts.UploaderID != "" {
		query += ` WHERE v.uploader_id = $1`
		args = append(args, opts.UploaderID)
	}
	query += fmt.Sprintf(` ORDER BY v.created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, opts.Skip, opts.Limit)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Delete removes a video along with its likes, bookmarks, and comments.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddLike records the user in the video's like set and returns the new count.
// Adding an existing membership is a no-op, keeping the set semantics.
func (r *PostgresVideoRepository) AddLike(ctx context.Context, videoID, userID string) (int, error) {
	return r.addMembership(ctx, "video_likes", videoID, userID)
}

// RemoveLike removes the user from the video's like set and returns the new count.
func (r *PostgresVideoRepository) RemoveLike(ctx context.Context, videoID, userID string) (int, error) {
	return r.removeMembership(ctx, "video_likes", videoID, userID)
}

// AddBookmark records the user in the video's bookmark set and returns the new count.
func (r *PostgresVideoRepository) AddBookmark(ctx context.Context, videoID, userID string) (int, error) {
	return r.addMembership(ctx, "video_bookmarks", videoID, userID)
}

// RemoveBookmark removes the user from the video's bookmark set and returns the new count.
func (r *PostgresVideoRepository) RemoveBookmark(ctx context.Context, videoID, userID string) (int, error) {
	return r.removeMembership(ctx, "video_bookmarks", videoID, userID)
}

func (r *PostgresVideoRepository) addMembership(ctx context.Context, table, videoID, userID string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := videoExists(ctx, conn, videoID); err != nil {
		return 0, err
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (video_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (video_id, user_id) DO NOTHING
    `, table), videoID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("insert %s membership: %w", table, err)
	}

	return countMembership(ctx, conn, table, videoID)
}

func (r *PostgresVideoRepository) removeMembership(ctx context.Context, table, videoID, userID string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := videoExists(ctx, conn, videoID); err != nil {
		return 0, err
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s
        WHERE video_id = $1 AND user_id = $2
    `, table), videoID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete %s membership: %w", table, err)
	}

	return countMembership(ctx, conn, table, videoID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.Title, &video.Description, &video.Category, &video.Tags,
		&video.VideoURL, &video.ThumbnailURL, &video.Privacy, &video.Monetization,
		&video.AgeRestriction, &video.UploaderID, &video.CreatedAt, &video.LikedBy, &video.BookmarkedBy)
	if err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func videoExists(ctx context.Context, conn queryExecutor, videoID string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
		return fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func countMembership(ctx context.Context, conn queryExecutor, table, videoID string) (int, error) {
	var count int
	if err := conn.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE video_id = $1`, table), videoID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s membership: %w", table, err)
	}
	return count, nil
}

type queryExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
