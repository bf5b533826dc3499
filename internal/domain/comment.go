package domain

import "time"

// SyncState describes whether a comment has been confirmed by the server
// or exists only as a local optimistic write. It is never serialized; the
// wire format has no notion of it.
type SyncState string

// Comment sync states.
const (
	SyncConfirmed    SyncState = "confirmed"
	SyncPendingLocal SyncState = "pending-local"
)

// Comment is one entry in a feedback record's discussion thread.
//
// Threads are exactly one level deep: a comment either has a nil
// ParentID (top level, may carry Replies) or points at a top-level
// comment (reply, Replies always empty). Optimistic local comments use
// negative IDs until the next reconciliation; server IDs are positive.
type Comment struct {
	ID          int       `json:"id"`
	FeedbackID  int       `json:"feedback_id"`
	UserID      int       `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserRole    Role      `json:"user_role"`
	Text        string    `json:"comment_text"`
	ParentID    *int      `json:"parent_id"`
	Likes       int       `json:"likes"`
	LikedByUser bool      `json:"liked_by_user"`
	Replies     []Comment `json:"replies,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// State is local bookkeeping only.
	State SyncState `json:"-"`
}

// IsReply reports whether c targets a parent comment.
func (c Comment) IsReply() bool { return c.ParentID != nil }

// MaxCommentLen is the maximum comment length in runes.
const MaxCommentLen = 500
