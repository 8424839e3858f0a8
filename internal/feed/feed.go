// Package feed implements the player-side session state for browsing a
// vertical video feed: the ordered item list, the current position, playback,
// per-video like/bookmark state, and the comment drawer. It mediates every
// viewer action against a Catalog backend and owns no rendering concerns.
package feed

import (
	"context"
	"errors"

	"github.com/streamr/backend/internal/models"
)

// Direction selects the neighbour Advance moves to.
type Direction int

const (
	Next Direction = iota
	Previous
)

// SocialState caches the viewer's relationship to one video together with
// the aggregate counts last reported by the catalog.
type SocialState struct {
	Liked         bool
	LikeCount     int
	Bookmarked    bool
	BookmarkCount int
}

// DrawerPhase is the comment drawer lifecycle: Closed -> Loading -> Loaded
// or Error, and back to Closed.
type DrawerPhase int

const (
	DrawerClosed DrawerPhase = iota
	DrawerLoading
	DrawerLoaded
	DrawerError
)

// Catalog is the slice of the video backend the controller consumes.
type Catalog interface {
	ListVideos(ctx context.Context, skip, limit int) ([]models.Video, error)
	Like(ctx context.Context, videoID string) (int, error)
	Unlike(ctx context.Context, videoID string) (int, error)
	Bookmark(ctx context.Context, videoID string) (int, error)
	Unbookmark(ctx context.Context, videoID string) (int, error)
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
	AddComment(ctx context.Context, videoID, text string) (models.Comment, error)
}

// Identity reports who is watching. An empty id means the viewer is not
// signed in.
type Identity interface {
	ViewerID() string
}

// Player controls playback of one rendered feed item. The presentation layer
// registers one per visible index.
type Player interface {
	Play()
	Pause()
}

// Clipboard receives share links.
type Clipboard interface {
	Copy(text string) error
}

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient, dismissible message for the viewer. Failures
// of background catalog calls surface here instead of as returned errors.
type Notification struct {
	Level   Level
	Message string
}

// Notifier delivers notifications to the presentation layer. Implementations
// must not call back into the Controller from Notify.
type Notifier interface {
	Notify(n Notification)
}

var (
	// ErrClosed is returned by operations on a controller after Close.
	ErrClosed = errors.New("feed: controller closed")

	// ErrUnauthenticated is returned when an action needs a signed-in viewer.
	ErrUnauthenticated = errors.New("feed: authentication required")

	// ErrEmptyComment is returned when a posted comment is blank after
	// trimming whitespace.
	ErrEmptyComment = errors.New("feed: comment text required")

	// ErrNoVideo is returned when an action needs a current video and the
	// feed is empty.
	ErrNoVideo = errors.New("feed: no current video")

	// ErrDrawerClosed is returned when posting a comment outside the
	// drawer's Loaded phase.
	ErrDrawerClosed = errors.New("feed: comment drawer not open")
)
