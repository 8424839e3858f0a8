package models

import "time"

// User represents an account within the Streamr platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Privacy levels a video can be published under.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// Video is the metadata document for one playable clip.
//
// LikedBy and BookmarkedBy are sets of user ids: a given user appears at
// most once in each. UploaderID is empty for anonymous uploads.
type Video struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	VideoURL       string    `json:"videoUrl"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	Privacy        string    `json:"privacy"`
	Monetization   bool      `json:"monetization"`
	AgeRestriction bool      `json:"ageRestriction"`
	UploaderID     string    `json:"uploaderId,omitempty"`
	LikedBy        []string  `json:"likedBy"`
	BookmarkedBy   []string  `json:"bookmarkedBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CommentAuthor is the embedded summary of a comment's author.
type CommentAuthor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Comment is a single remark on a video. Comments are immutable once created.
type Comment struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"videoId"`
	Author    CommentAuthor `json:"author"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
