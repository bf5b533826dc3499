package upstream

import "errors"

// Sentinel errors the state layer reports to handlers, which map them
// onto HTTP statuses and error envelope messages.
var (
	errNotFound       = errors.New("not found")
	errParentNotFound = errors.New("parent comment not found")
	errNotAuthor      = errors.New("not the author")
	errPendingRequest = errors.New("pending request exists")
	errInvalidStatus  = errors.New("invalid request status")
)
