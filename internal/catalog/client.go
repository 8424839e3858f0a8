// Package catalog is an HTTP client for the video backend's REST surface. It
// satisfies the feed controller's Catalog dependency so a player session can
// run against a remote deployment.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/streamr/backend/internal/models"
)

var (
	// ErrUnauthenticated maps a 401 response.
	ErrUnauthenticated = errors.New("catalog: authentication required")

	// ErrForbidden maps a 403 response.
	ErrForbidden = errors.New("catalog: forbidden")

	// ErrNotFound maps a 404 response.
	ErrNotFound = errors.New("catalog: not found")
)

const defaultTimeout = 15 * time.Second

// Client talks to one backend instance. The zero value is not usable; use
// NewClient.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

// NewClient builds a client for the backend at baseURL. tokenFn supplies the
// bearer token per request; it may be nil or return "" for anonymous access.
func NewClient(baseURL string, tokenFn func() string) *Client {
	if tokenFn == nil {
		tokenFn = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		token:   tokenFn,
	}
}

// ListVideos fetches one page of the feed, newest first.
func (c *Client) ListVideos(ctx context.Context, skip, limit int) ([]models.Video, error) {
	query := url.Values{}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/videos"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var videos []models.Video
	if err := c.do(ctx, http.MethodGet, path, nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// GetVideo fetches a single video by id.
func (c *Client) GetVideo(ctx context.Context, videoID string) (models.Video, error) {
	var video models.Video
	err := c.do(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(videoID), nil, &video)
	return video, err
}

// DeleteVideo removes a video. Only the uploader may do this.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, "/api/videos/"+url.PathEscape(videoID), nil, nil)
}

// Like marks the video liked by the caller and returns the new like count.
func (c *Client) Like(ctx context.Context, videoID string) (int, error) {
	return c.mutateMembership(ctx, videoID, "like", "likes")
}

// Unlike removes the caller's like and returns the new like count.
func (c *Client) Unlike(ctx context.Context, videoID string) (int, error) {
	return c.mutateMembership(ctx, videoID, "unlike", "likes")
}

// Bookmark marks the video bookmarked and returns the new bookmark count.
func (c *Client) Bookmark(ctx context.Context, videoID string) (int, error) {
	return c.mutateMembership(ctx, videoID, "bookmark", "bookmarks")
}

// Unbookmark removes the caller's bookmark and returns the new bookmark count.
func (c *Client) Unbookmark(ctx context.Context, videoID string) (int, error) {
	return c.mutateMembership(ctx, videoID, "unbookmark", "bookmarks")
}

func (c *Client) mutateMembership(ctx context.Context, videoID, action, field string) (int, error) {
	var counts map[string]int
	path := "/api/videos/" + url.PathEscape(videoID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &counts); err != nil {
		return 0, err
	}
	count, ok := counts[field]
	if !ok {
		return 0, fmt.Errorf("catalog: response missing %q count", field)
	}
	return count, nil
}

// ListComments fetches a video's comments, newest first.
func (c *Client) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	var comments []models.Comment
	path := "/api/videos/" + url.PathEscape(videoID) + "/comments"
	if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a video and returns the stored comment with
// its author summary.
func (c *Client) AddComment(ctx context.Context, videoID, text string) (models.Comment, error) {
	var comment models.Comment
	path := "/api/videos/" + url.PathEscape(videoID) + "/comments"
	err := c.do(ctx, http.MethodPost, path, map[string]string{"text": text}, &comment)
	return comment, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog: encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("catalog: status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
}
