// Package thread owns one feedback record's discussion. Its consistency
// model is optimistic-write with periodic refetch reconciliation:
//
//   - Every mutation is applied to the local list immediately, before
//     the network call, and is retained even when the call fails.
//   - A fixed-interval refresh (default 10s) refetches the whole list
//     and replaces the local one wholesale. Optimistic items that the
//     server has not confirmed by then are dropped by that replacement;
//     the per-comment sync state makes the pending window observable.
//   - Replies are exactly one level deep. The constraint is enforced
//     here at the boundary: replying to a reply is rejected, and any
//     deeper nesting in a server payload is flattened on ingest.
//
// Optimistic items carry negative local ids; server ids are positive.
package thread

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// CommentAPI is the slice of the API client the controller needs.
type CommentAPI interface {
	ListComments(ctx context.Context, feedbackID int) ([]domain.Comment, error)
	CreateComment(ctx context.Context, feedbackID int, text string, parentID *int) (domain.Comment, error)
	UpdateComment(ctx context.Context, feedbackID, commentID int, text string) (domain.Comment, error)
	DeleteComment(ctx context.Context, feedbackID, commentID int) error
	ToggleCommentLike(ctx context.Context, feedbackID, commentID int) (domain.Comment, error)
}

// Controller maintains the local comment list for one open thread.
type Controller struct {
	api        CommentAPI
	feedbackID int
	session    domain.Session

	interval time.Duration
	onError  func(error)

	mu          sync.Mutex
	comments    []domain.Comment
	nextLocalID int
	closed      bool
	stop        chan struct{}
	stopOnce    sync.Once
}

// Option customizes a Controller.
type Option func(*Controller)

// WithRefreshInterval overrides the default 10-second reconciliation
// period.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithErrorHandler receives network failures. Failures never remove
// rendered content; the handler is the only signal.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// New builds a Controller for one feedback record's thread.
func New(api CommentAPI, feedbackID int, session domain.Session, opts ...Option) *Controller {
	c := &Controller{
		api:        api,
		feedbackID: feedbackID,
		session:    session,
		interval:   10 * time.Second,
		stop:       make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start performs an initial fetch and launches the reconciliation loop.
// The loop stops when ctx is cancelled or Close is called.
func (c *Controller) Start(ctx context.Context) {
	c.Refresh(ctx)
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()
}

// Refresh refetches the thread and replaces the local list wholesale.
// On failure the local list, optimistic items included, stays as is.
func (c *Controller) Refresh(ctx context.Context) {
	fetched, err := c.api.ListComments(ctx, c.feedbackID)
	if err != nil {
		c.notify(err)
		return
	}
	normalized := normalize(fetched)
	c.mu.Lock()
	if !c.closed {
		c.comments = normalized
	}
	c.mu.Unlock()
}

// Comments returns a deep copy of the current local list.
func (c *Controller) Comments() []domain.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyComments(c.comments)
}

// ----------------------------------------------------------------------------
// Mutations

// Create posts a comment, optimistically appending it before the
// network call. A non-nil parentID makes it a reply and must reference
// a local top-level comment. When the server confirms, the optimistic
// item is swapped for the canonical copy; on failure it stays, tagged
// pending-local, until the next reconciliation.
func (c *Controller) Create(ctx context.Context, text string, parentID *int) (domain.Comment, error) {
	if err := validateText(text); err != nil {
		return domain.Comment{}, err
	}
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.Comment{}, ErrClosed
	}
	if parentID != nil {
		parent := c.findLocked(*parentID)
		if parent == nil {
			c.mu.Unlock()
			return domain.Comment{}, ErrParentNotFound
		}
		if parent.IsReply() {
			c.mu.Unlock()
			return domain.Comment{}, ErrReplyDepth
		}
	}
	c.nextLocalID--
	optimistic := domain.Comment{
		ID:         c.nextLocalID,
		FeedbackID: c.feedbackID,
		UserID:     c.session.UserID,
		UserName:   c.session.UserName,
		UserRole:   c.session.Role,
		Text:       text,
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
		State:      domain.SyncPendingLocal,
	}
	c.insertLocked(optimistic)
	localID := optimistic.ID
	c.mu.Unlock()

	confirmed, err := c.api.CreateComment(ctx, c.feedbackID, text, parentID)
	if err != nil {
		c.notify(err)
		return optimistic, nil
	}

	confirmed.State = domain.SyncConfirmed
	confirmed.Replies = nil
	c.mu.Lock()
	c.replaceLocked(localID, confirmed)
	c.mu.Unlock()
	return confirmed, nil
}

// Edit replaces a comment's text. Only the author may edit, and the
// change is applied locally before the network call.
func (c *Controller) Edit(ctx context.Context, commentID int, text string) error {
	if err := validateText(text); err != nil {
		return err
	}
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	target := c.findLocked(commentID)
	if target == nil {
		c.mu.Unlock()
		return ErrNotFound
	}
	if target.UserID != c.session.UserID {
		c.mu.Unlock()
		return ErrNotAuthor
	}
	target.Text = text
	pendingLocal := target.ID < 0
	c.mu.Unlock()

	// A comment the server has never seen has nothing to update there.
	if pendingLocal {
		return nil
	}
	if _, err := c.api.UpdateComment(ctx, c.feedbackID, commentID, text); err != nil {
		c.notify(err)
	}
	return nil
}

// Delete removes a comment (and, for a top-level one, its replies)
// locally, then tells the server. Only the author may delete.
func (c *Controller) Delete(ctx context.Context, commentID int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	target := c.findLocked(commentID)
	if target == nil {
		c.mu.Unlock()
		return ErrNotFound
	}
	if target.UserID != c.session.UserID {
		c.mu.Unlock()
		return ErrNotAuthor
	}
	c.removeLocked(commentID)
	pendingLocal := commentID < 0
	c.mu.Unlock()

	if pendingLocal {
		return nil
	}
	if err := c.api.DeleteComment(ctx, c.feedbackID, commentID); err != nil {
		c.notify(err)
	}
	return nil
}

// ToggleLike inverts the session user's like on a comment: +1 and true,
// or -1 and false. The inversion is purely local and idempotent in
// pairs; the server call runs afterwards and its outcome never changes
// the local count.
func (c *Controller) ToggleLike(ctx context.Context, commentID int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	target := c.findLocked(commentID)
	if target == nil {
		c.mu.Unlock()
		return ErrNotFound
	}
	if target.LikedByUser {
		target.Likes--
		target.LikedByUser = false
	} else {
		target.Likes++
		target.LikedByUser = true
	}
	pendingLocal := commentID < 0
	c.mu.Unlock()

	if pendingLocal {
		return nil
	}
	if _, err := c.api.ToggleCommentLike(ctx, c.feedbackID, commentID); err != nil {
		c.notify(err)
	}
	return nil
}

// Close stops the reconciliation loop and discards the local list.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.mu.Lock()
	c.closed = true
	c.comments = nil
	c.mu.Unlock()
}

func (c *Controller) notify(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

// ----------------------------------------------------------------------------
// Local list plumbing (callers hold c.mu)

func (c *Controller) findLocked(id int) *domain.Comment {
	for i := range c.comments {
		if c.comments[i].ID == id {
			return &c.comments[i]
		}
		for j := range c.comments[i].Replies {
			if c.comments[i].Replies[j].ID == id {
				return &c.comments[i].Replies[j]
			}
		}
	}
	return nil
}

func (c *Controller) insertLocked(cm domain.Comment) {
	if cm.ParentID == nil {
		c.comments = append(c.comments, cm)
		return
	}
	for i := range c.comments {
		if c.comments[i].ID == *cm.ParentID {
			c.comments[i].Replies = append(c.comments[i].Replies, cm)
			return
		}
	}
}

func (c *Controller) replaceLocked(oldID int, cm domain.Comment) {
	for i := range c.comments {
		if c.comments[i].ID == oldID {
			cm.Replies = c.comments[i].Replies
			c.comments[i] = cm
			return
		}
		for j := range c.comments[i].Replies {
			if c.comments[i].Replies[j].ID == oldID {
				c.comments[i].Replies[j] = cm
				return
			}
		}
	}
}

func (c *Controller) removeLocked(id int) {
	for i := range c.comments {
		if c.comments[i].ID == id {
			c.comments = append(c.comments[:i], c.comments[i+1:]...)
			return
		}
		for j := range c.comments[i].Replies {
			if c.comments[i].Replies[j].ID == id {
				c.comments[i].Replies = append(c.comments[i].Replies[:j], c.comments[i].Replies[j+1:]...)
				return
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Ingest

// normalize marks everything confirmed and enforces the depth-1 shape:
// all descendants of a top-level comment become its direct replies,
// re-parented and stripped of their own reply lists.
func normalize(fetched []domain.Comment) []domain.Comment {
	out := make([]domain.Comment, 0, len(fetched))
	for _, top := range fetched {
		top.State = domain.SyncConfirmed
		var flat []domain.Comment
		for _, r := range top.Replies {
			flat = appendFlattened(flat, r, top.ID)
		}
		top.Replies = flat
		out = append(out, top)
	}
	return out
}

func appendFlattened(dst []domain.Comment, cm domain.Comment, parentID int) []domain.Comment {
	nested := cm.Replies
	cm.Replies = nil
	pid := parentID
	cm.ParentID = &pid
	cm.State = domain.SyncConfirmed
	dst = append(dst, cm)
	for _, n := range nested {
		dst = appendFlattened(dst, n, parentID)
	}
	return dst
}

func copyComments(src []domain.Comment) []domain.Comment {
	out := make([]domain.Comment, len(src))
	copy(out, src)
	for i := range out {
		out[i].Replies = append([]domain.Comment(nil), out[i].Replies...)
	}
	return out
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > domain.MaxCommentLen {
		return ErrCommentTooLong
	}
	return nil
}
