package thread

import "errors"

// Sentinel errors returned by the thread controller.
var (
	// ErrEmptyComment indicates blank or whitespace-only comment text.
	ErrEmptyComment = errors.New("comment text is required")

	// ErrCommentTooLong indicates text over the 500 character limit.
	ErrCommentTooLong = errors.New("comment exceeds maximum length")

	// ErrReplyDepth indicates an attempt to reply to a reply.
	ErrReplyDepth = errors.New("replies may only target top-level comments")

	// ErrParentNotFound indicates the reply target does not exist locally.
	ErrParentNotFound = errors.New("parent comment not found")

	// ErrNotAuthor indicates an edit or delete by someone other than the
	// comment's author.
	ErrNotAuthor = errors.New("only the author may modify a comment")

	// ErrNotFound indicates the comment does not exist locally.
	ErrNotFound = errors.New("comment not found")

	// ErrClosed indicates the controller was torn down.
	ErrClosed = errors.New("thread controller closed")
)
