package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/streamr/backend/internal/logging"
	"github.com/streamr/backend/internal/models"
)

// DefaultPageSize is how many videos a pagination fetch asks for when the
// options do not say otherwise.
const DefaultPageSize = 20

const (
	actionLike     = "like"
	actionBookmark = "bookmark"
)

// Deps are the collaborators a Controller acts through. Catalog and Identity
// are required; Clipboard and Notifier may be nil, in which case sharing
// fails and notifications are discarded.
type Deps struct {
	Catalog   Catalog
	Identity  Identity
	Clipboard Clipboard
	Notifier  Notifier

	// ShareBaseURL is the origin share links are built on,
	// e.g. "https://streamr.example".
	ShareBaseURL string
}

// Options tune a new Controller.
type Options struct {
	// StartIndex is clamped into the bounds of the initial items.
	StartIndex int

	// HasMore reports whether the catalog holds videos beyond the initial
	// batch.
	HasMore bool

	// PageSize bounds each pagination fetch. Zero means DefaultPageSize.
	PageSize int
}

type toggleKey struct {
	videoID string
	action  string
}

// toggleState sequences overlapping like/bookmark requests for one video.
// Only the response matching the highest issued seq is applied; earlier
// responses are dropped regardless of arrival order.
type toggleState struct {
	seq         uint64
	target      bool
	outstanding int
}

type drawerState struct {
	phase    DrawerPhase
	videoID  string
	comments []models.Comment
	errMsg   string
	draft    string
}

// Controller owns one viewing session's feed state. All methods are safe for
// concurrent use; catalog calls run in the background and their completions
// are applied under the same lock as user actions.
type Controller struct {
	deps     Deps
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	pageSize int

	wg sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	items        []models.Video
	currentIndex int
	playing      bool
	social       map[string]SocialState
	players      map[int]Player
	hasMore      bool
	loadingMore  bool
	loadErrMsg   string
	toggles      map[toggleKey]*toggleState
	drawer       drawerState
	drawerGen    uint64
}

// New builds a Controller over an initial batch of videos and starts playing
// at the clamped start index.
func New(ctx context.Context, deps Deps, items []models.Video, opts Options) (*Controller, error) {
	if deps.Catalog == nil {
		return nil, errors.New("feed: catalog is required")
	}
	if deps.Identity == nil {
		return nil, errors.New("feed: identity is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		deps:     deps,
		logger:   logging.FromContext(ctx),
		ctx:      ctx,
		cancel:   cancel,
		pageSize: opts.PageSize,
		playing:  true,
		hasMore:  opts.HasMore,
		social:   make(map[string]SocialState),
		players:  make(map[int]Player),
		toggles:  make(map[toggleKey]*toggleState),
	}

	viewer := deps.Identity.ViewerID()
	c.items = slices.Clone(items)
	for _, v := range c.items {
		c.social[v.ID] = deriveSocial(v, viewer)
	}
	if len(c.items) > 0 {
		c.currentIndex = clamp(opts.StartIndex, 0, len(c.items)-1)
	}

	c.mu.Lock()
	c.maybeFetchMoreLocked()
	c.mu.Unlock()

	return c, nil
}

func deriveSocial(v models.Video, viewer string) SocialState {
	s := SocialState{LikeCount: len(v.LikedBy), BookmarkCount: len(v.BookmarkedBy)}
	if viewer == "" {
		return s
	}
	s.Liked = slices.Contains(v.LikedBy, viewer)
	s.Bookmarked = slices.Contains(v.BookmarkedBy, viewer)
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Advance moves the current index one step in the given direction, keeping it
// inside the item bounds. The previously current item is paused and the new
// one resumes iff playback is on. Reaching the last item triggers a
// pagination fetch when more videos are available.
func (c *Controller) Advance(dir Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.items) == 0 {
		return
	}

	next := c.currentIndex
	switch dir {
	case Next:
		if next < len(c.items)-1 {
			next++
		}
	case Previous:
		if next > 0 {
			next--
		}
	}

	if next != c.currentIndex {
		c.pausePlayerLocked(c.currentIndex)
		c.currentIndex = next
		if c.playing {
			c.playPlayerLocked(next)
		}
	}

	// Level-triggered: re-checked on every arrival at the last item, so a
	// fetch missed while one was in flight fires on the next trigger.
	c.maybeFetchMoreLocked()
}

// TogglePlay flips playback for the item at index. Indexes other than the
// current one are ignored; non-current items are always paused.
func (c *Controller) TogglePlay(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.items) == 0 || index != c.currentIndex {
		return
	}
	c.playing = !c.playing
	if c.playing {
		c.playPlayerLocked(index)
	} else {
		c.pausePlayerLocked(index)
	}
}

// AttachPlayer registers the playback handle for one index and immediately
// reconciles it with the current playback state.
func (c *Controller) AttachPlayer(index int, p Player) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || p == nil {
		return
	}
	c.players[index] = p
	if index == c.currentIndex && c.playing {
		p.Play()
	} else {
		p.Pause()
	}
}

// DetachPlayer forgets the playback handle for one index.
func (c *Controller) DetachPlayer(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.players, index)
}

func (c *Controller) playPlayerLocked(index int) {
	if p, ok := c.players[index]; ok {
		p.Play()
	}
}

func (c *Controller) pausePlayerLocked(index int) {
	if p, ok := c.players[index]; ok {
		p.Pause()
	}
}

func (c *Controller) maybeFetchMoreLocked() {
	if c.closed || !c.hasMore || c.loadingMore {
		return
	}
	if len(c.items) > 0 && c.currentIndex != len(c.items)-1 {
		return
	}

	c.loadingMore = true
	skip := len(c.items)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		videos, err := c.deps.Catalog.ListVideos(c.ctx, skip, c.pageSize)
		c.finishFetchMore(videos, err)
	}()
}

func (c *Controller) finishFetchMore(videos []models.Video, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.loadingMore = false

	if err != nil {
		c.logger.Error("pagination fetch failed", "error", err, "offset", len(c.items))
		c.loadErrMsg = "failed to load more videos"
		return
	}
	c.loadErrMsg = ""

	if len(videos) == 0 {
		c.hasMore = false
		return
	}

	viewer := c.deps.Identity.ViewerID()
	for _, v := range videos {
		c.items = append(c.items, v)
		c.social[v.ID] = deriveSocial(v, viewer)
	}
	if len(videos) < c.pageSize {
		c.hasMore = false
	}
}

// ToggleLike flips the viewer's like on a video. The catalog call runs in the
// background; on success the server's authoritative count replaces the cached
// one. Overlapping toggles for the same video are sequenced: only the latest
// issued request's response is applied.
func (c *Controller) ToggleLike(videoID string) error {
	return c.toggle(videoID, actionLike)
}

// ToggleBookmark flips the viewer's bookmark on a video, with the same
// contract as ToggleLike.
func (c *Controller) ToggleBookmark(videoID string) error {
	return c.toggle(videoID, actionBookmark)
}

func (c *Controller) toggle(videoID, action string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	viewer := c.deps.Identity.ViewerID()
	if viewer == "" {
		c.mu.Unlock()
		c.notify(LevelError, "sign in to "+action+" videos")
		return ErrUnauthenticated
	}

	key := toggleKey{videoID: videoID, action: action}
	ts := c.toggles[key]
	if ts == nil {
		ts = &toggleState{}
		c.toggles[key] = ts
	}

	// Base the next target on the in-flight request when one exists, so a
	// rapid double tap issues like-then-unlike instead of like twice.
	var base bool
	if ts.outstanding > 0 {
		base = ts.target
	} else if state := c.social[videoID]; action == actionLike {
		base = state.Liked
	} else {
		base = state.Bookmarked
	}
	target := !base
	ts.seq++
	ts.target = target
	ts.outstanding++
	seq := ts.seq
	c.mu.Unlock()

	call := c.toggleCall(action, target)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		count, err := call(c.ctx, videoID)
		c.finishToggle(key, seq, target, count, err)
	}()
	return nil
}

func (c *Controller) toggleCall(action string, target bool) func(context.Context, string) (int, error) {
	switch {
	case action == actionLike && target:
		return c.deps.Catalog.Like
	case action == actionLike:
		return c.deps.Catalog.Unlike
	case target:
		return c.deps.Catalog.Bookmark
	default:
		return c.deps.Catalog.Unbookmark
	}
}

func (c *Controller) finishToggle(key toggleKey, seq uint64, target bool, count int, err error) {
	c.mu.Lock()

	ts := c.toggles[key]
	var latest uint64
	if ts != nil {
		latest = ts.seq
		ts.outstanding--
		if ts.outstanding <= 0 {
			delete(c.toggles, key)
		}
	}

	if c.closed || ts == nil || seq != latest {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.mu.Unlock()
		c.logger.Error("toggle failed", "error", err, "videoId", key.videoID, "action", key.action)
		c.notify(LevelError, "could not update "+key.action+", try again")
		return
	}

	state := c.social[key.videoID]
	if key.action == actionLike {
		state.Liked = target
		state.LikeCount = count
	} else {
		state.Bookmarked = target
		state.BookmarkCount = count
	}
	c.social[key.videoID] = state
	c.mu.Unlock()
}

// Share copies a canonical link for the video to the clipboard. No catalog
// interaction happens.
func (c *Controller) Share(videoID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	base := strings.TrimSuffix(c.deps.ShareBaseURL, "/")
	c.mu.Unlock()

	link := base + "/videos/" + videoID
	if c.deps.Clipboard == nil {
		c.notify(LevelError, "could not copy link")
		return errors.New("feed: no clipboard available")
	}
	if err := c.deps.Clipboard.Copy(link); err != nil {
		c.notify(LevelError, "could not copy link")
		return err
	}
	c.notify(LevelInfo, "link copied")
	return nil
}

// OpenComments opens the drawer for the current video and fetches its
// comments. The drawer stays keyed to that video until closed, even if the
// viewer navigates on.
func (c *Controller) OpenComments() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if len(c.items) == 0 {
		c.mu.Unlock()
		return ErrNoVideo
	}

	videoID := c.items[c.currentIndex].ID
	c.drawerGen++
	gen := c.drawerGen
	c.drawer = drawerState{phase: DrawerLoading, videoID: videoID}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		comments, err := c.deps.Catalog.ListComments(c.ctx, videoID)
		c.finishCommentLoad(gen, comments, err)
	}()
	return nil
}

func (c *Controller) finishCommentLoad(gen uint64, comments []models.Comment, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.drawerGen || c.drawer.phase != DrawerLoading {
		return
	}

	if err != nil {
		c.logger.Error("comment fetch failed", "error", err, "videoId", c.drawer.videoID)
		c.drawer.phase = DrawerError
		c.drawer.errMsg = "failed to load comments"
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.drawer.phase = DrawerLoaded
	c.drawer.comments = comments
}

// CloseComments discards the drawer, including any draft text. Comments are
// re-fetched on the next open.
func (c *Controller) CloseComments() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.drawerGen++
	c.drawer = drawerState{}
}

// PostComment submits draft text for the drawer's video. Blank text is
// rejected locally. On success the created comment is prepended, keeping
// newest-first order without a re-fetch; on failure the draft survives.
func (c *Controller) PostComment(text string) error {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.drawer.phase != DrawerLoaded {
		c.mu.Unlock()
		return ErrDrawerClosed
	}
	if trimmed == "" {
		c.mu.Unlock()
		return ErrEmptyComment
	}
	if c.deps.Identity.ViewerID() == "" {
		c.mu.Unlock()
		c.notify(LevelError, "sign in to comment")
		return ErrUnauthenticated
	}

	c.drawer.draft = text
	gen := c.drawerGen
	videoID := c.drawer.videoID
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		comment, err := c.deps.Catalog.AddComment(c.ctx, videoID, trimmed)
		c.finishCommentPost(gen, comment, err)
	}()
	return nil
}

func (c *Controller) finishCommentPost(gen uint64, comment models.Comment, err error) {
	c.mu.Lock()

	if c.closed || gen != c.drawerGen || c.drawer.phase != DrawerLoaded {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.mu.Unlock()
		c.logger.Error("comment post failed", "error", err)
		c.notify(LevelError, "could not post comment, try again")
		return
	}

	c.drawer.comments = append([]models.Comment{comment}, c.drawer.comments...)
	c.drawer.draft = ""
	c.mu.Unlock()
}

// Close tears the session down. Registered players are paused, background
// calls are cancelled, and any completion arriving afterwards is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, p := range c.players {
		p.Pause()
	}
	c.players = nil
	c.mu.Unlock()

	c.cancel()
}

// DrawerSnapshot is a point-in-time copy of the comment drawer.
type DrawerSnapshot struct {
	Phase    DrawerPhase
	VideoID  string
	Comments []models.Comment
	Draft    string
	Err      string
}

// Snapshot is a point-in-time copy of the session state for rendering.
type Snapshot struct {
	Items        []models.Video
	CurrentIndex int
	Playing      bool
	LoadingMore  bool
	HasMore      bool
	LoadErr      string
	Social       map[string]SocialState
	Drawer       DrawerSnapshot
}

// Snapshot returns a copy of the current state. The copy is detached; mutating
// it has no effect on the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	social := make(map[string]SocialState, len(c.social))
	for id, s := range c.social {
		social[id] = s
	}
	return Snapshot{
		Items:        slices.Clone(c.items),
		CurrentIndex: c.currentIndex,
		Playing:      c.playing,
		LoadingMore:  c.loadingMore,
		HasMore:      c.hasMore,
		LoadErr:      c.loadErrMsg,
		Social:       social,
		Drawer: DrawerSnapshot{
			Phase:    c.drawer.phase,
			VideoID:  c.drawer.videoID,
			Comments: slices.Clone(c.drawer.comments),
			Draft:    c.drawer.draft,
			Err:      c.drawer.errMsg,
		},
	}
}

func (c *Controller) notify(level Level, message string) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(Notification{Level: level, Message: message})
}
