package domain

import (
	"fmt"
	"time"
)

// DraftSnapshot is a partial feedback record in progress, persisted by
// the draft store between sessions. At most one snapshot exists per
// employee. IsDraft marks a freshly restored snapshot; the wizard resets
// it to false once the user accepts the resume prompt.
type DraftSnapshot struct {
	EmployeeID     int          `json:"employee_id"`
	Strengths      string       `json:"strengths"`
	AreasToImprove string       `json:"areas_to_improve"`
	Sentiment      Sentiment    `json:"sentiment"`
	Tags           []string     `json:"tags"`
	Priority       Priority     `json:"priority"`
	Goals          string       `json:"goals"`
	ActionItems    []ActionItem `json:"action_items"`
	IsDraft        bool         `json:"is_draft"`
	LastSavedAt    time.Time    `json:"last_saved_at"`
}

// HasContent reports whether the snapshot carries anything worth
// persisting. Empty drafts are never written.
func (d DraftSnapshot) HasContent() bool {
	return d.Strengths != "" || d.AreasToImprove != ""
}

// DraftKey is the storage key for an employee's draft.
func DraftKey(employeeID int) string {
	return fmt.Sprintf("feedback_draft_%d", employeeID)
}
