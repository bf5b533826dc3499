package upstream

import (
	"sort"
	"sync"
	"time"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// State is the in-memory dataset behind the development server. All
// reads return detached copies in the wire types, so handlers never
// hand out pointers into the store.
type State struct {
	mu  sync.Mutex
	now func() time.Time

	feedback map[int]*feedbackRow
	comments map[int]*commentRow
	requests map[int]*requestRow

	nextFeedbackID int
	nextCommentID  int
	nextRequestID  int
}

type feedbackRow struct {
	ID             int
	ManagerID      int
	EmployeeID     int
	Strengths      string
	AreasToImprove string
	Sentiment      domain.Sentiment
	Acknowledged   bool
	Tags           []string
	Priority       domain.Priority
	Goals          string
	ActionItems    []domain.ActionItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type commentRow struct {
	ID         int
	FeedbackID int
	UserID     int
	Text       string
	ParentID   *int
	LikedBy    map[int]struct{}
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type requestRow struct {
	ID         int
	EmployeeID int
	ManagerID  int
	Message    string
	Status     domain.RequestStatus
	CreatedAt  time.Time
	ResolvedAt time.Time
}

// StateOption customizes a State.
type StateOption func(*State)

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) StateOption {
	return func(s *State) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewState builds an empty State.
func NewState(opts ...StateOption) *State {
	s := &State{
		now:            func() time.Time { return time.Now().UTC() },
		feedback:       make(map[int]*feedbackRow),
		comments:       make(map[int]*commentRow),
		requests:       make(map[int]*requestRow),
		nextFeedbackID: 1,
		nextCommentID:  1,
		nextRequestID:  1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed loads the demo records the development server starts with.
func (s *State) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []feedbackRow{
		{
			ManagerID: 1, EmployeeID: 2,
			Strengths:      "Excellent problem-solving skills and great team collaboration. Shows initiative in taking on challenging tasks.",
			AreasToImprove: "Could improve time management and deadline adherence. Consider using project management tools.",
			Sentiment:      domain.SentimentPositive,
		},
		{
			ManagerID: 1, EmployeeID: 3,
			Strengths:      "Strong technical skills and attention to detail. Very reliable and consistent performer.",
			AreasToImprove: "Would benefit from more proactive communication with team members and stakeholders.",
			Sentiment:      domain.SentimentPositive,
			Acknowledged:   true,
		},
		{
			ManagerID: 1, EmployeeID: 2,
			Strengths:      "Great improvement in communication skills over the past quarter. Very responsive to feedback.",
			AreasToImprove: "Continue working on presentation skills for client meetings.",
			Sentiment:      domain.SentimentPositive,
		},
	}
	now := s.now()
	for i := range rows {
		row := rows[i]
		row.ID = s.nextFeedbackID
		row.CreatedAt = now
		row.UpdatedAt = now
		s.nextFeedbackID++
		s.feedback[row.ID] = &row
	}
}

// ----------------------------------------------------------------------------
// Feedback

// CreateFeedback stores a new record authored by managerID.
func (s *State) CreateFeedback(managerID int, nf domain.NewFeedback) domain.FeedbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	row := &feedbackRow{
		ID:             s.nextFeedbackID,
		ManagerID:      managerID,
		EmployeeID:     nf.EmployeeID,
		Strengths:      nf.Strengths,
		AreasToImprove: nf.AreasToImprove,
		Sentiment:      nf.Sentiment,
		Tags:           append([]string(nil), nf.Tags...),
		Priority:       nf.Priority,
		Goals:          nf.Goals,
		ActionItems:    append([]domain.ActionItem(nil), nf.ActionItems...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.nextFeedbackID++
	s.feedback[row.ID] = row
	return s.recordViewLocked(row)
}

// ListFeedbackFor returns the records visible to u: authored ones for a
// manager, received ones for an employee. Ordered by id ascending.
func (s *State) ListFeedbackFor(u domain.TeamMember) []domain.FeedbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.FeedbackRecord{}
	for _, row := range s.feedback {
		if u.Role == domain.RoleManager {
			if row.ManagerID != u.ID {
				continue
			}
		} else if row.EmployeeID != u.ID {
			continue
		}
		out = append(out, s.recordViewLocked(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Feedback returns one record's view.
func (s *State) Feedback(id int) (domain.FeedbackRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.feedback[id]
	if !ok {
		return domain.FeedbackRecord{}, false
	}
	return s.recordViewLocked(row), true
}

// FeedbackParty reports the manager and employee of one record.
func (s *State) FeedbackParty(id int) (managerID, employeeID int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, found := s.feedback[id]
	if !found {
		return 0, 0, false
	}
	return row.ManagerID, row.EmployeeID, true
}

// FeedbackPatch carries the updatable fields of a record; nil means
// leave unchanged.
type FeedbackPatch struct {
	Strengths      *string
	AreasToImprove *string
	Sentiment      *domain.Sentiment
	Tags           *[]string
	Priority       *domain.Priority
	Goals          *string
	ActionItems    *[]domain.ActionItem
}

// UpdateFeedback applies patch to a record.
func (s *State) UpdateFeedback(id int, patch FeedbackPatch) (domain.FeedbackRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.feedback[id]
	if !ok {
		return domain.FeedbackRecord{}, false
	}
	if patch.Strengths != nil {
		row.Strengths = *patch.Strengths
	}
	if patch.AreasToImprove != nil {
		row.AreasToImprove = *patch.AreasToImprove
	}
	if patch.Sentiment != nil {
		row.Sentiment = *patch.Sentiment
	}
	if patch.Tags != nil {
		row.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Priority != nil {
		row.Priority = *patch.Priority
	}
	if patch.Goals != nil {
		row.Goals = *patch.Goals
	}
	if patch.ActionItems != nil {
		row.ActionItems = append([]domain.ActionItem(nil), (*patch.ActionItems)...)
	}
	row.UpdatedAt = s.now()
	return s.recordViewLocked(row), true
}

// Acknowledge flips a record's acknowledged flag on.
func (s *State) Acknowledge(id int) (domain.FeedbackRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.feedback[id]
	if !ok {
		return domain.FeedbackRecord{}, false
	}
	row.Acknowledged = true
	row.UpdatedAt = s.now()
	return s.recordViewLocked(row), true
}

func (s *State) recordViewLocked(row *feedbackRow) domain.FeedbackRecord {
	count := 0
	for _, cm := range s.comments {
		if cm.FeedbackID == row.ID {
			count++
		}
	}
	return domain.FeedbackRecord{
		ID:             row.ID,
		ManagerID:      row.ManagerID,
		EmployeeID:     row.EmployeeID,
		ManagerName:    userName(row.ManagerID),
		EmployeeName:   userName(row.EmployeeID),
		Strengths:      row.Strengths,
		AreasToImprove: row.AreasToImprove,
		Sentiment:      row.Sentiment,
		Acknowledged:   row.Acknowledged,
		Tags:           append([]string{}, row.Tags...),
		Priority:       row.Priority,
		Goals:          row.Goals,
		ActionItems:    append([]domain.ActionItem(nil), row.ActionItems...),
		CommentsCount:  count,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// ----------------------------------------------------------------------------
// Comments

// Comments returns a record's top-level comments ordered by creation
// time, with replies nested under their parents. LikedByUser reflects
// viewerID.
func (s *State) Comments(feedbackID, viewerID int) []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Comment{}
	for _, row := range s.comments {
		if row.FeedbackID != feedbackID || row.ParentID != nil {
			continue
		}
		out = append(out, s.commentViewLocked(row, viewerID, true))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FlatComments returns every comment of a record, replies included,
// ordered by creation time. Used by the PDF export.
func (s *State) FlatComments(feedbackID, viewerID int) []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Comment{}
	for _, row := range s.comments {
		if row.FeedbackID != feedbackID {
			continue
		}
		out = append(out, s.commentViewLocked(row, viewerID, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// AddComment appends a comment to a record's thread. A non-nil parentID
// must reference an existing comment of the same record.
func (s *State) AddComment(feedbackID, userID int, text string, parentID *int) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parentID != nil {
		parent, ok := s.comments[*parentID]
		if !ok || parent.FeedbackID != feedbackID {
			return domain.Comment{}, errParentNotFound
		}
	}
	now := s.now()
	row := &commentRow{
		ID:         s.nextCommentID,
		FeedbackID: feedbackID,
		UserID:     userID,
		Text:       text,
		ParentID:   parentID,
		LikedBy:    make(map[int]struct{}),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.nextCommentID++
	s.comments[row.ID] = row
	return s.commentViewLocked(row, userID, true), nil
}

// EditComment replaces a comment's text. Author only.
func (s *State) EditComment(feedbackID, commentID, userID int, text string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.comments[commentID]
	if !ok || row.FeedbackID != feedbackID {
		return domain.Comment{}, errNotFound
	}
	if row.UserID != userID {
		return domain.Comment{}, errNotAuthor
	}
	row.Text = text
	row.UpdatedAt = s.now()
	return s.commentViewLocked(row, userID, true), nil
}

// RemoveComment deletes a comment and, for a top-level one, its replies.
// Author only.
func (s *State) RemoveComment(feedbackID, commentID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.comments[commentID]
	if !ok || row.FeedbackID != feedbackID {
		return errNotFound
	}
	if row.UserID != userID {
		return errNotAuthor
	}
	delete(s.comments, commentID)
	for id, cm := range s.comments {
		if cm.ParentID != nil && *cm.ParentID == commentID {
			delete(s.comments, id)
		}
	}
	return nil
}

// ToggleLike flips viewerID's like on a comment and reports the action
// taken, "liked" or "unliked".
func (s *State) ToggleLike(feedbackID, commentID, viewerID int) (domain.Comment, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.comments[commentID]
	if !ok || row.FeedbackID != feedbackID {
		return domain.Comment{}, "", errNotFound
	}
	action := "liked"
	if _, liked := row.LikedBy[viewerID]; liked {
		delete(row.LikedBy, viewerID)
		action = "unliked"
	} else {
		row.LikedBy[viewerID] = struct{}{}
	}
	return s.commentViewLocked(row, viewerID, true), action, nil
}

func (s *State) commentViewLocked(row *commentRow, viewerID int, withReplies bool) domain.Comment {
	_, liked := row.LikedBy[viewerID]
	cm := domain.Comment{
		ID:          row.ID,
		FeedbackID:  row.FeedbackID,
		UserID:      row.UserID,
		UserName:    userName(row.UserID),
		UserRole:    userRole(row.UserID),
		Text:        row.Text,
		ParentID:    row.ParentID,
		Likes:       len(row.LikedBy),
		LikedByUser: liked,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if withReplies && row.ParentID == nil {
		for _, r := range s.comments {
			if r.ParentID != nil && *r.ParentID == row.ID {
				cm.Replies = append(cm.Replies, s.commentViewLocked(r, viewerID, false))
			}
		}
		sort.Slice(cm.Replies, func(i, j int) bool { return cm.Replies[i].ID < cm.Replies[j].ID })
	}
	return cm
}

// ----------------------------------------------------------------------------
// Feedback requests

// CreateRequest files a feedback request from employee u to their
// manager. At most one pending request per employee/manager pair.
func (s *State) CreateRequest(u domain.TeamMember, message string) (domain.FeedbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.requests {
		if row.EmployeeID == u.ID && row.ManagerID == u.ManagerID && row.Status == domain.RequestPending {
			return domain.FeedbackRequest{}, errPendingRequest
		}
	}
	row := &requestRow{
		ID:         s.nextRequestID,
		EmployeeID: u.ID,
		ManagerID:  u.ManagerID,
		Message:    message,
		Status:     domain.RequestPending,
		CreatedAt:  s.now(),
	}
	s.nextRequestID++
	s.requests[row.ID] = row
	return requestView(row), nil
}

// ListRequestsFor returns u's requests, newest first: received ones for
// a manager, own ones for an employee.
func (s *State) ListRequestsFor(u domain.TeamMember) []domain.FeedbackRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.FeedbackRequest{}
	for _, row := range s.requests {
		if u.Role == domain.RoleManager {
			if row.ManagerID != u.ID {
				continue
			}
		} else if row.EmployeeID != u.ID {
			continue
		}
		out = append(out, requestView(row))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ResolveRequest moves a pending request to completed or declined. Only
// the addressed manager may resolve it. Ownership is checked before the
// status value so an outsider cannot probe valid statuses.
func (s *State) ResolveRequest(id, managerID int, status domain.RequestStatus) (domain.FeedbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.requests[id]
	if !ok {
		return domain.FeedbackRequest{}, errNotFound
	}
	if row.ManagerID != managerID {
		return domain.FeedbackRequest{}, errNotAuthor
	}
	if status != domain.RequestCompleted && status != domain.RequestDeclined {
		return domain.FeedbackRequest{}, errInvalidStatus
	}
	row.Status = status
	if status == domain.RequestCompleted {
		row.ResolvedAt = s.now()
	}
	return requestView(row), nil
}

func requestView(row *requestRow) domain.FeedbackRequest {
	view := domain.FeedbackRequest{
		ID:           row.ID,
		EmployeeID:   row.EmployeeID,
		ManagerID:    row.ManagerID,
		EmployeeName: userName(row.EmployeeID),
		Message:      row.Message,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
	}
	if !row.ResolvedAt.IsZero() {
		resolved := row.ResolvedAt
		view.ResolvedAt = &resolved
	}
	return view
}

// ----------------------------------------------------------------------------
// Dashboard

// DashboardFor assembles the role-specific dashboard payload.
func (s *State) DashboardFor(u domain.TeamMember) map[string]any {
	if u.Role == domain.RoleManager {
		given := s.ListFeedbackFor(u)
		counts := map[string]int{"positive": 0, "neutral": 0, "negative": 0}
		for _, f := range given {
			if _, ok := counts[string(f.Sentiment)]; ok {
				counts[string(f.Sentiment)]++
			}
		}
		recent := given
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		return map[string]any{
			"team_members_count":     len(teamOf(u.ID)),
			"total_feedback_given":   len(given),
			"sentiment_distribution": counts,
			"team_members":           teamOf(u.ID),
			"recent_feedback":        recent,
		}
	}

	received := s.ListFeedbackFor(u)
	acked := 0
	for _, f := range received {
		if f.Acknowledged {
			acked++
		}
	}
	return map[string]any{
		"total_feedback_received": len(received),
		"acknowledged_feedback":   acked,
		"unacknowledged_feedback": len(received) - acked,
		"feedback_timeline":       received,
	}
}
