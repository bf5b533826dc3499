package wizard

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors returned by the wizard.
var (
	// ErrClosed indicates the wizard was torn down.
	ErrClosed = errors.New("wizard closed")

	// ErrNotOnReview indicates Submit was called away from the review step.
	ErrNotOnReview = errors.New("submit is only available from the review step")

	// ErrAlreadySubmitted indicates the wizard already reached its
	// terminal state.
	ErrAlreadySubmitted = errors.New("feedback already submitted")
)

// ValidationError carries the field-scoped messages that blocked a
// submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %v", keys)
}
