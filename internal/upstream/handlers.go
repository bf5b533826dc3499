package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// Server holds the handlers of the development API.
type Server struct {
	state *State
}

// NewServer builds a Server over state.
func NewServer(state *State) *Server {
	return &Server{state: state}
}

// fail writes the API's error envelope and aborts the request.
func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func currentUser(c *gin.Context) (domain.TeamMember, bool) {
	raw := c.GetHeader(headerUserID)
	if raw == "" {
		return domain.TeamMember{}, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return domain.TeamMember{}, false
	}
	return lookupUser(id)
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, false
	}
	return n, true
}

// feedbackAccess resolves the :id param and verifies the caller is a
// party to that record.
func (s *Server) feedbackAccess(c *gin.Context, u domain.TeamMember) (int, bool) {
	id, ok := intParam(c, "id")
	if !ok {
		fail(c, http.StatusNotFound, "Feedback not found")
		return 0, false
	}
	managerID, employeeID, found := s.state.FeedbackParty(id)
	if !found {
		fail(c, http.StatusNotFound, "Feedback not found")
		return 0, false
	}
	if managerID != u.ID && employeeID != u.ID {
		fail(c, http.StatusForbidden, "Access denied")
		return 0, false
	}
	return id, true
}

// notifyEmail stands in for a real mail provider: the notification that
// would be delivered is logged instead.
func notifyEmail(c *gin.Context, to, subject string) {
	loggerFrom(c).Info().
		Str("to", to).
		Str("subject", subject).
		Msg("email notification")
}

// ----------------------------------------------------------------------------
// Feedback

func (s *Server) handleCreateFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if u.Role != domain.RoleManager {
		fail(c, http.StatusForbidden, "Only managers can create feedback")
		return
	}

	var in domain.NewFeedback
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.EmployeeID == 0 || in.Strengths == "" || in.AreasToImprove == "" || in.Sentiment == "" {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if !in.Sentiment.Valid() {
		fail(c, http.StatusBadRequest, "Sentiment must be positive, neutral, or negative")
		return
	}
	employee, found := lookupUser(in.EmployeeID)
	if !found {
		fail(c, http.StatusNotFound, "Employee not found")
		return
	}
	if employee.ManagerID != u.ID {
		fail(c, http.StatusForbidden, "You can only give feedback to your team members")
		return
	}

	rec := s.state.CreateFeedback(u.ID, in)
	c.JSON(http.StatusCreated, gin.H{"feedback": rec})
}

func (s *Server) handleListFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": s.state.ListFeedbackFor(u)})
}

func (s *Server) handleUpdateFeedback(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		fail(c, http.StatusNotFound, "Feedback not found")
		return
	}
	managerID, _, found := s.state.FeedbackParty(id)
	if !found {
		fail(c, http.StatusNotFound, "Feedback not found")
		return
	}
	if u.Role != domain.RoleManager || managerID != u.ID {
		fail(c, http.StatusForbidden, "You can only update your own feedback")
		return
	}

	var in struct {
		Strengths      *string              `json:"strengths"`
		AreasToImprove *string              `json:"areas_to_improve"`
		Sentiment      *domain.Sentiment    `json:"sentiment"`
		Tags           *[]string            `json:"tags"`
		Priority       *domain.Priority     `json:"priority"`
		Goals          *string              `json:"goals"`
		ActionItems    *[]domain.ActionItem `json:"action_items"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Sentiment != nil && !in.Sentiment.Valid() {
		fail(c, http.StatusBadRequest, "Sentiment must be positive, neutral, or negative")
		return
	}

	rec, _ := s.state.UpdateFeedback(id, FeedbackPatch{
		Strengths:      in.Strengths,
		AreasToImprove: in.AreasToImprove,
		Sentiment:      in.Sentiment,
		Tags:           in.Tags,
		Priority:       in.Priority,
		Goals:          in.Goals,
		ActionItems:    in.ActionItems,
	})
	c.JSON(http.StatusOK, gin.H{"feedback": rec})
}

func (s *Server) handleAcknowledge(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		fail(c, http.StatusNotFound, "Feedback not found")
		return
	}
	_, employeeID, found := s.state.FeedbackParty(id)
	if !found {
		fail(c, http.StatusNotFound, "Feedback not found")
		return
	}
	if employeeID != u.ID {
		fail(c, http.StatusForbidden, "You can only acknowledge your own feedback")
		return
	}
	rec, _ := s.state.Acknowledge(id)
	c.JSON(http.StatusOK, gin.H{"feedback": rec})
}

// ----------------------------------------------------------------------------
// Comments

func (s *Server) handleListComments(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": s.state.Comments(id, u.ID)})
}

func (s *Server) handleCreateComment(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}

	var in struct {
		Text     string `json:"comment_text"`
		ParentID *int   `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		fail(c, http.StatusBadRequest, "Comment text is required")
		return
	}

	cm, err := s.state.AddComment(id, u.ID, text, in.ParentID)
	if err != nil {
		fail(c, http.StatusNotFound, "Parent comment not found")
		return
	}

	// Top-level comments notify the other party of the record.
	if in.ParentID == nil {
		managerID, employeeID, _ := s.state.FeedbackParty(id)
		other := employeeID
		if u.ID == employeeID {
			other = managerID
		}
		if recipient, found := lookupUser(other); found {
			notifyEmail(c, recipient.Email, fmt.Sprintf("New comment on feedback from %s", u.Name))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"comment": cm})
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "cid")
	if !ok {
		fail(c, http.StatusNotFound, "Comment not found")
		return
	}

	var in struct {
		Text string `json:"comment_text"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		fail(c, http.StatusBadRequest, "Comment text is required")
		return
	}

	cm, err := s.state.EditComment(id, commentID, u.ID, text)
	switch {
	case errors.Is(err, errNotFound):
		fail(c, http.StatusNotFound, "Comment not found")
	case errors.Is(err, errNotAuthor):
		fail(c, http.StatusForbidden, "You can only edit your own comments")
	default:
		c.JSON(http.StatusOK, gin.H{"comment": cm})
	}
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "cid")
	if !ok {
		fail(c, http.StatusNotFound, "Comment not found")
		return
	}

	err := s.state.RemoveComment(id, commentID, u.ID)
	switch {
	case errors.Is(err, errNotFound):
		fail(c, http.StatusNotFound, "Comment not found")
	case errors.Is(err, errNotAuthor):
		fail(c, http.StatusForbidden, "You can only delete your own comments")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
	}
}

func (s *Server) handleToggleLike(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "cid")
	if !ok {
		fail(c, http.StatusNotFound, "Comment not found")
		return
	}

	cm, action, err := s.state.ToggleLike(id, commentID, u.ID)
	if err != nil {
		fail(c, http.StatusNotFound, "Comment not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": cm, "action": action})
}

// ----------------------------------------------------------------------------
// Dashboard and export

func (s *Server) handleDashboard(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": s.state.DashboardFor(u)})
}

func (s *Server) handleExportPDF(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := s.feedbackAccess(c, u)
	if !ok {
		return
	}
	rec, _ := s.state.Feedback(id)
	comments := s.state.FlatComments(id, u.ID)

	data, err := renderPDF(rec, comments)
	if err != nil {
		loggerFrom(c).Error().Err(err).Int("feedback_id", id).Msg("pdf generation failed")
		fail(c, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	filename := fmt.Sprintf("feedback_%s_%s.pdf",
		strings.ReplaceAll(rec.EmployeeName, " ", "_"),
		rec.CreatedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ----------------------------------------------------------------------------
// Feedback requests

func (s *Server) handleCreateRequest(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if u.Role != domain.RoleEmployee {
		fail(c, http.StatusForbidden, "Only employees can request feedback")
		return
	}
	if u.ManagerID == 0 {
		fail(c, http.StatusBadRequest, "No manager assigned")
		return
	}

	var in struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := s.state.CreateRequest(u, strings.TrimSpace(in.Message))
	if err != nil {
		fail(c, http.StatusBadRequest, "You already have a pending feedback request")
		return
	}
	if manager, found := lookupUser(u.ManagerID); found {
		notifyEmail(c, manager.Email, fmt.Sprintf("Feedback request from %s", u.Name))
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

func (s *Server) handleListRequests(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": s.state.ListRequestsFor(u)})
}

func (s *Server) handleUpdateRequest(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		fail(c, http.StatusNotFound, "Feedback request not found")
		return
	}
	if u.Role != domain.RoleManager {
		fail(c, http.StatusForbidden, "Access denied")
		return
	}

	var in struct {
		Status domain.RequestStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := s.state.ResolveRequest(id, u.ID, in.Status)
	switch {
	case errors.Is(err, errNotFound):
		fail(c, http.StatusNotFound, "Feedback request not found")
	case errors.Is(err, errNotAuthor):
		fail(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, errInvalidStatus):
		fail(c, http.StatusBadRequest, "Status must be completed or declined")
	default:
		if employee, found := lookupUser(req.EmployeeID); found {
			notifyEmail(c, employee.Email, fmt.Sprintf("Your feedback request has been %s", req.Status))
		}
		c.JSON(http.StatusOK, gin.H{"request": req})
	}
}

// ----------------------------------------------------------------------------
// Users

func (s *Server) handleTeamMembers(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if u.Role != domain.RoleManager {
		fail(c, http.StatusForbidden, "Only managers can view team members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team_members": teamOf(u.ID)})
}

func (s *Server) handleManagers(c *gin.Context) {
	out := []gin.H{}
	for _, m := range managers() {
		out = append(out, gin.H{"id": m.ID, "name": m.Name, "email": m.Email})
	}
	c.JSON(http.StatusOK, gin.H{"managers": out})
}
