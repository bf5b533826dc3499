package domain

import "time"

// RequestStatus is the lifecycle state of a feedback request.
type RequestStatus string

// Feedback request states.
const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
	RequestDeclined  RequestStatus = "declined"
)

// FeedbackRequest is an employee's ask for feedback from their manager.
// Managers resolve a request by completing or declining it. ResolvedAt
// is set only on completion; pending and declined requests carry nil.
type FeedbackRequest struct {
	ID           int           `json:"id"`
	EmployeeID   int           `json:"employee_id"`
	ManagerID    int           `json:"manager_id"`
	EmployeeName string        `json:"employee_name,omitempty"`
	Message      string        `json:"message"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
}
