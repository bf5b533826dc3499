// Package domain defines the core data types of the feedback engine:
// feedback records, comments, drafts, filter state and the tag catalog.
// JSON tags follow the external API's snake_case wire format, so these
// types marshal directly to and from request/response bodies.
package domain

import "time"

// Role identifies a participant's relationship to a feedback record.
type Role string

// Known participant roles. The external API only ever reports these three.
const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RolePeer     Role = "peer"
)

// Sentiment is the overall tone a manager assigns to a feedback record.
type Sentiment string

// Valid sentiments, in descending rank order.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Rank maps a sentiment onto its sort weight: positive(3) > neutral(2) >
// negative(1). Unknown or absent sentiments rank 0 and therefore sort
// last under the sentiment sort key.
func (s Sentiment) Rank() int {
	switch s {
	case SentimentPositive:
		return 3
	case SentimentNeutral:
		return 2
	case SentimentNegative:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known sentiments.
func (s Sentiment) Valid() bool { return s.Rank() > 0 }

// Priority is the follow-up urgency attached to a feedback record.
type Priority string

// Valid priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// SortKey selects the ordering applied to the visible record subset.
type SortKey string

// Supported sort keys. SortDateDesc is the default.
const (
	SortDateDesc  SortKey = "date_desc"
	SortDateAsc   SortKey = "date_asc"
	SortSentiment SortKey = "sentiment"
	SortName      SortKey = "name"
)

// ActionItem is one independently addressable follow-up task attached to
// a feedback record. Items keep insertion order; there is no reordering.
type ActionItem struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// FeedbackRecord is a single piece of structured performance feedback.
//
// A record is created by a manager through the submission wizard and is
// immutable once persisted, with one exception: the receiving employee
// may flip Acknowledged to true. Display names are denormalized by the
// server so the client never joins against a user directory.
type FeedbackRecord struct {
	ID             int          `json:"id"`
	ManagerID      int          `json:"manager_id"`
	EmployeeID     int          `json:"employee_id"`
	ManagerName    string       `json:"manager_name"`
	EmployeeName   string       `json:"employee_name"`
	Strengths      string       `json:"strengths"`
	AreasToImprove string       `json:"areas_to_improve"`
	Sentiment      Sentiment    `json:"sentiment"`
	Acknowledged   bool         `json:"acknowledged"`
	Tags           []string     `json:"tags"`
	Priority       Priority     `json:"priority,omitempty"`
	Goals          string       `json:"goals,omitempty"`
	ActionItems    []ActionItem `json:"action_items,omitempty"`
	CommentsCount  int          `json:"comments_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CounterpartName returns the name of the other party in the feedback
// relationship relative to the viewer: the employee's name when a
// manager is looking, the manager's name otherwise.
func (r FeedbackRecord) CounterpartName(viewer Role) string {
	if viewer == RoleManager {
		return r.EmployeeName
	}
	return r.ManagerName
}

// NewFeedback is the creation payload sent to POST /api/feedback/.
// The server assigns id, created_at and the acknowledged flag.
type NewFeedback struct {
	EmployeeID     int          `json:"employee_id"`
	Strengths      string       `json:"strengths"`
	AreasToImprove string       `json:"areas_to_improve"`
	Sentiment      Sentiment    `json:"sentiment"`
	Tags           []string     `json:"tags"`
	Priority       Priority     `json:"priority,omitempty"`
	Goals          string       `json:"goals,omitempty"`
	ActionItems    []ActionItem `json:"action_items,omitempty"`
}

// TeamMember is one direct report as returned by GET /api/users/team.
type TeamMember struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	ManagerID int       `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// MinFeedbackTextLen is the minimum rune count for the strengths and
// areas-to-improve fields before a record validates.
const MinFeedbackTextLen = 20
