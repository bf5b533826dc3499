package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Apocalypse96/FeedbackPro/internal/config"
	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

var testTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*gin.Engine, *State) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	state := NewState(WithClock(func() time.Time { return testTime }))
	r := gin.New()
	cfg := config.Config{
		RateRPS:   1000,
		RateBurst: 1000,
		OTEL:      config.OTELConfig{ServiceName: "feedback-upstream-test"},
	}
	RegisterRoutes(r, NewServer(state), cfg)
	return r, state
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, userID int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &env)
	return env.Error
}

func createSample(t *testing.T, r *gin.Engine, employeeID int) domain.FeedbackRecord {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/feedback/", 1, domain.NewFeedback{
		EmployeeID:     employeeID,
		Strengths:      "Consistently ships well-tested features ahead of schedule.",
		AreasToImprove: "Could delegate more of the routine review workload.",
		Sentiment:      domain.SentimentPositive,
		Tags:           []string{"leadership", "teamwork"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create feedback: status %d body %s", w.Code, w.Body.String())
	}
	var env struct {
		Feedback domain.FeedbackRecord `json:"feedback"`
	}
	decodeBody(t, w, &env)
	return env.Feedback
}

// ----------------------------------------------------------------------------
// Auth and routing

func TestAuthenticationRequired(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/feedback/", 0, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if got := errMessage(t, w); got != "Authentication required" {
		t.Fatalf("error = %q", got)
	}
}

func TestUnknownUserRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/feedback/", 42, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/nope", 1, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if got := errMessage(t, w); got != "Route not found" {
		t.Fatalf("error = %q", got)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Feedback

func TestCreateFeedback(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)

	if rec.ID == 0 || rec.ManagerID != 1 || rec.EmployeeID != 2 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ManagerName != "John Manager" || rec.EmployeeName != "Jane Employee" {
		t.Fatalf("names not denormalized: %+v", rec)
	}
	if rec.Acknowledged || rec.CommentsCount != 0 {
		t.Fatalf("fresh record flags: %+v", rec)
	}
	if len(rec.Tags) != 2 {
		t.Fatalf("tags = %v", rec.Tags)
	}
}

func TestCreateFeedbackRoleAndValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/feedback/", 2, domain.NewFeedback{
		EmployeeID: 3, Strengths: "x", AreasToImprove: "y", Sentiment: domain.SentimentNeutral,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee create: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/", 1, map[string]any{"employee_id": 2})
	if w.Code != http.StatusBadRequest || errMessage(t, w) != "All fields are required" {
		t.Fatalf("missing fields: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/", 1, domain.NewFeedback{
		EmployeeID: 2, Strengths: "a", AreasToImprove: "b", Sentiment: "ecstatic",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad sentiment: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/", 1, domain.NewFeedback{
		EmployeeID: 99, Strengths: "a", AreasToImprove: "b", Sentiment: domain.SentimentNeutral,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown employee: status %d", w.Code)
	}
}

func TestListFeedbackVisibility(t *testing.T) {
	r, _ := newTestRouter(t)
	createSample(t, r, 2)
	createSample(t, r, 3)

	var env struct {
		Feedback []domain.FeedbackRecord `json:"feedback"`
	}

	w := doJSON(t, r, http.MethodGet, "/api/feedback/", 1, nil)
	decodeBody(t, w, &env)
	if len(env.Feedback) != 2 {
		t.Fatalf("manager sees %d records", len(env.Feedback))
	}

	w = doJSON(t, r, http.MethodGet, "/api/feedback/", 2, nil)
	decodeBody(t, w, &env)
	if len(env.Feedback) != 1 || env.Feedback[0].EmployeeID != 2 {
		t.Fatalf("employee 2 sees %+v", env.Feedback)
	}

	w = doJSON(t, r, http.MethodGet, "/api/feedback/", 3, nil)
	decodeBody(t, w, &env)
	if len(env.Feedback) != 1 || env.Feedback[0].EmployeeID != 3 {
		t.Fatalf("employee 3 sees %+v", env.Feedback)
	}
}

func TestAcknowledge(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/feedback/%d/acknowledge", rec.ID), 1, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("manager acknowledge: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/feedback/%d/acknowledge", rec.ID), 2, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("acknowledge: status %d body %s", w.Code, w.Body.String())
	}
	var env struct {
		Feedback domain.FeedbackRecord `json:"feedback"`
	}
	decodeBody(t, w, &env)
	if !env.Feedback.Acknowledged {
		t.Fatal("acknowledged flag not set")
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/999/acknowledge", 2, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing record: status %d", w.Code)
	}
}

func TestUpdateFeedbackPartial(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/feedback/%d", rec.ID), 1,
		map[string]any{"strengths": "Rewritten strengths text for the record."})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	var env struct {
		Feedback domain.FeedbackRecord `json:"feedback"`
	}
	decodeBody(t, w, &env)
	if env.Feedback.Strengths != "Rewritten strengths text for the record." {
		t.Fatalf("strengths = %q", env.Feedback.Strengths)
	}
	if env.Feedback.AreasToImprove != rec.AreasToImprove {
		t.Fatal("untouched field changed")
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/feedback/%d", rec.ID), 2,
		map[string]any{"strengths": "nope"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee update: status %d", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Comments

func TestCommentThreadLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)
	base := fmt.Sprintf("/api/feedback/%d/comments", rec.ID)

	w := doJSON(t, r, http.MethodPost, base, 1, map[string]any{"comment_text": "Let's discuss next week."})
	if w.Code != http.StatusCreated {
		t.Fatalf("create comment: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Comment domain.Comment `json:"comment"`
	}
	decodeBody(t, w, &created)
	top := created.Comment
	if top.UserName != "John Manager" || top.UserRole != domain.RoleManager {
		t.Fatalf("author view: %+v", top)
	}

	w = doJSON(t, r, http.MethodPost, base, 2, map[string]any{
		"comment_text": "Sounds good, thanks!", "parent_id": top.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("reply: status %d body %s", w.Code, w.Body.String())
	}

	var listed struct {
		Comments []domain.Comment `json:"comments"`
	}
	w = doJSON(t, r, http.MethodGet, base, 2, nil)
	decodeBody(t, w, &listed)
	if len(listed.Comments) != 1 {
		t.Fatalf("top-level comments = %d", len(listed.Comments))
	}
	if len(listed.Comments[0].Replies) != 1 || listed.Comments[0].Replies[0].Text != "Sounds good, thanks!" {
		t.Fatalf("replies = %+v", listed.Comments[0].Replies)
	}

	// Outsider employee 3 is not a party to this record.
	w = doJSON(t, r, http.MethodGet, base, 3, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider list: status %d", w.Code)
	}

	// Deleting the parent removes the reply as well.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("%s/%d", base, top.ID), 1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, base, 1, nil)
	decodeBody(t, w, &listed)
	if len(listed.Comments) != 0 {
		t.Fatalf("comments after delete = %+v", listed.Comments)
	}
}

func TestCommentAuthorOnly(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)
	base := fmt.Sprintf("/api/feedback/%d/comments", rec.ID)

	w := doJSON(t, r, http.MethodPost, base, 1, map[string]any{"comment_text": "Original text."})
	var created struct {
		Comment domain.Comment `json:"comment"`
	}
	decodeBody(t, w, &created)
	id := created.Comment.ID

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("%s/%d", base, id), 2, map[string]any{"comment_text": "Hijacked."})
	if w.Code != http.StatusForbidden || errMessage(t, w) != "You can only edit your own comments" {
		t.Fatalf("foreign edit: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("%s/%d", base, id), 2, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("%s/%d", base, id), 1, map[string]any{"comment_text": "Edited text."})
	if w.Code != http.StatusOK {
		t.Fatalf("author edit: status %d", w.Code)
	}
	decodeBody(t, w, &created)
	if created.Comment.Text != "Edited text." {
		t.Fatalf("text = %q", created.Comment.Text)
	}
}

func TestCommentReplyToMissingParent(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)
	base := fmt.Sprintf("/api/feedback/%d/comments", rec.ID)

	w := doJSON(t, r, http.MethodPost, base, 1, map[string]any{"comment_text": "reply", "parent_id": 777})
	if w.Code != http.StatusNotFound || errMessage(t, w) != "Parent comment not found" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestToggleLike(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)
	base := fmt.Sprintf("/api/feedback/%d/comments", rec.ID)

	w := doJSON(t, r, http.MethodPost, base, 1, map[string]any{"comment_text": "Like me."})
	var created struct {
		Comment domain.Comment `json:"comment"`
	}
	decodeBody(t, w, &created)
	likePath := fmt.Sprintf("%s/%d/like", base, created.Comment.ID)

	var toggled struct {
		Comment domain.Comment `json:"comment"`
		Action  string         `json:"action"`
	}
	w = doJSON(t, r, http.MethodPost, likePath, 2, nil)
	decodeBody(t, w, &toggled)
	if toggled.Action != "liked" || toggled.Comment.Likes != 1 || !toggled.Comment.LikedByUser {
		t.Fatalf("first toggle: %+v action %q", toggled.Comment, toggled.Action)
	}

	// The author has not liked it, so their view shows liked_by_user false.
	var listed struct {
		Comments []domain.Comment `json:"comments"`
	}
	w = doJSON(t, r, http.MethodGet, base, 1, nil)
	decodeBody(t, w, &listed)
	if listed.Comments[0].Likes != 1 || listed.Comments[0].LikedByUser {
		t.Fatalf("author view: %+v", listed.Comments[0])
	}

	w = doJSON(t, r, http.MethodPost, likePath, 2, nil)
	decodeBody(t, w, &toggled)
	if toggled.Action != "unliked" || toggled.Comment.Likes != 0 || toggled.Comment.LikedByUser {
		t.Fatalf("second toggle: %+v action %q", toggled.Comment, toggled.Action)
	}
}

// ----------------------------------------------------------------------------
// Requests

func TestFeedbackRequestLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/feedback/requests", 1, map[string]any{"message": "hi"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("manager request: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/requests", 2, map[string]any{"message": "Quarterly check-in please"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Request domain.FeedbackRequest `json:"request"`
	}
	decodeBody(t, w, &created)
	if created.Request.Status != domain.RequestPending || created.Request.ManagerID != 1 {
		t.Fatalf("request = %+v", created.Request)
	}

	w = doJSON(t, r, http.MethodPost, "/api/feedback/requests", 2, map[string]any{"message": "again"})
	if w.Code != http.StatusBadRequest || errMessage(t, w) != "You already have a pending feedback request" {
		t.Fatalf("duplicate pending: status %d", w.Code)
	}

	var listed struct {
		Requests []domain.FeedbackRequest `json:"requests"`
	}
	w = doJSON(t, r, http.MethodGet, "/api/feedback/requests", 1, nil)
	decodeBody(t, w, &listed)
	if len(listed.Requests) != 1 {
		t.Fatalf("manager sees %d requests", len(listed.Requests))
	}

	path := fmt.Sprintf("/api/feedback/requests/%d", created.Request.ID)

	w = doJSON(t, r, http.MethodPut, path, 2, map[string]any{"status": "completed"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee resolve: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, path, 1, map[string]any{"status": "archived"})
	if w.Code != http.StatusBadRequest || errMessage(t, w) != "Status must be completed or declined" {
		t.Fatalf("bad status: %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, path, 1, map[string]any{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: status %d body %s", w.Code, w.Body.String())
	}
	var resolved struct {
		Request domain.FeedbackRequest `json:"request"`
	}
	decodeBody(t, w, &resolved)
	if resolved.Request.Status != domain.RequestCompleted || resolved.Request.ResolvedAt == nil {
		t.Fatalf("resolved = %+v", resolved.Request)
	}

	// The pending slot is free again after resolution.
	w = doJSON(t, r, http.MethodPost, "/api/feedback/requests", 2, map[string]any{"message": "round two"})
	if w.Code != http.StatusCreated {
		t.Fatalf("second request: status %d", w.Code)
	}
	decodeBody(t, w, &created)

	// Declining does not stamp a resolution time, and the wire payload
	// omits the field entirely.
	path = fmt.Sprintf("/api/feedback/requests/%d", created.Request.ID)
	w = doJSON(t, r, http.MethodPut, path, 1, map[string]any{"status": "declined"})
	if w.Code != http.StatusOK {
		t.Fatalf("decline: status %d body %s", w.Code, w.Body.String())
	}
	resolved.Request = domain.FeedbackRequest{}
	decodeBody(t, w, &resolved)
	if resolved.Request.Status != domain.RequestDeclined || resolved.Request.ResolvedAt != nil {
		t.Fatalf("declined = %+v", resolved.Request)
	}
	if strings.Contains(w.Body.String(), "resolved_at") {
		t.Fatalf("declined payload carries resolved_at: %s", w.Body.String())
	}
}

// ----------------------------------------------------------------------------
// Dashboard, team, export

func TestDashboardShapes(t *testing.T) {
	r, _ := newTestRouter(t)
	createSample(t, r, 2)
	createSample(t, r, 3)

	var mgr struct {
		Dashboard struct {
			TeamMembersCount      int                     `json:"team_members_count"`
			TotalFeedbackGiven    int                     `json:"total_feedback_given"`
			SentimentDistribution map[string]int          `json:"sentiment_distribution"`
			TeamMembers           []domain.TeamMember     `json:"team_members"`
			RecentFeedback        []domain.FeedbackRecord `json:"recent_feedback"`
		} `json:"dashboard"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/feedback/dashboard", 1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &mgr)
	if mgr.Dashboard.TeamMembersCount != 2 || mgr.Dashboard.TotalFeedbackGiven != 2 {
		t.Fatalf("dashboard = %+v", mgr.Dashboard)
	}
	if mgr.Dashboard.SentimentDistribution["positive"] != 2 {
		t.Fatalf("sentiments = %v", mgr.Dashboard.SentimentDistribution)
	}

	var emp struct {
		Dashboard struct {
			TotalReceived  int                     `json:"total_feedback_received"`
			Acknowledged   int                     `json:"acknowledged_feedback"`
			Unacknowledged int                     `json:"unacknowledged_feedback"`
			Timeline       []domain.FeedbackRecord `json:"feedback_timeline"`
		} `json:"dashboard"`
	}
	w = doJSON(t, r, http.MethodGet, "/api/feedback/dashboard", 2, nil)
	decodeBody(t, w, &emp)
	if emp.Dashboard.TotalReceived != 1 || emp.Dashboard.Unacknowledged != 1 {
		t.Fatalf("employee dashboard = %+v", emp.Dashboard)
	}
}

func TestTeamMembers(t *testing.T) {
	r, _ := newTestRouter(t)

	var env struct {
		TeamMembers []domain.TeamMember `json:"team_members"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/users/team", 1, nil)
	decodeBody(t, w, &env)
	if len(env.TeamMembers) != 2 || env.TeamMembers[0].Name != "Jane Employee" {
		t.Fatalf("team = %+v", env.TeamMembers)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/team", 2, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee team view: status %d", w.Code)
	}
}

func TestExportPDF(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := createSample(t, r, 2)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/feedback/%d/export-pdf", rec.ID), 2, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "feedback_Jane_Employee_") {
		t.Fatalf("disposition = %q", cd)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/feedback/%d/export-pdf", rec.ID), 3, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider export: status %d", w.Code)
	}
}

func TestExportPDFStripsInlineFormatting(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/feedback/", 1, domain.NewFeedback{
		EmployeeID:     2,
		Strengths:      "Delivers **excellent** results and keeps `main` green under pressure.",
		AreasToImprove: "Could delegate *more* of the routine review workload to the team.",
		Sentiment:      domain.SentimentPositive,
		Tags:           []string{},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var env struct {
		Feedback domain.FeedbackRecord `json:"feedback"`
	}
	decodeBody(t, w, &env)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/feedback/%d/comments", env.Feedback.ID), 2,
		map[string]any{"comment_text": "Thanks, the `main` tip was **very** useful."})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: status %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/feedback/%d/export-pdf", env.Feedback.ID), 1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	// The content stream is uncompressed, so the rendered text is
	// visible in the raw bytes.
	pdf := w.Body.String()
	if strings.Contains(pdf, "**") || strings.Contains(pdf, "`") {
		t.Fatal("formatting markers leaked into the report")
	}
	for _, want := range []string{"excellent", "main", "very useful"} {
		if !strings.Contains(pdf, want) {
			t.Fatalf("report is missing %q", want)
		}
	}
}

func TestSeedData(t *testing.T) {
	r, state := newTestRouter(t)
	state.Seed()

	var env struct {
		Feedback []domain.FeedbackRecord `json:"feedback"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/feedback/", 1, nil)
	decodeBody(t, w, &env)
	if len(env.Feedback) != 3 {
		t.Fatalf("seeded records = %d", len(env.Feedback))
	}
	w = doJSON(t, r, http.MethodGet, "/api/feedback/", 3, nil)
	decodeBody(t, w, &env)
	if len(env.Feedback) != 1 || !env.Feedback[0].Acknowledged {
		t.Fatalf("bob's seed = %+v", env.Feedback)
	}
}
