// Package apiclient is the HTTP client for the feedback API. It speaks
// the API's snake_case JSON wire format, stamps every request with the
// session's X-User-ID header and decodes {"error": ...} envelopes into
// *APIError values. There are no retries: callers see the first failure.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// SessionSource yields the identity to stamp outgoing requests with.
type SessionSource interface {
	Load(ctx context.Context) (domain.Session, error)
}

// StaticSession is a SessionSource that always returns the same identity.
type StaticSession domain.Session

// Load implements SessionSource.
func (s StaticSession) Load(context.Context) (domain.Session, error) {
	return domain.Session(s), nil
}

// Client talks to the feedback API. Construct with New; the zero value
// is not usable.
type Client struct {
	baseURL string
	http    *http.Client
	session SessionSource
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithSession sets the identity source for the X-User-ID header.
func WithSession(src SessionSource) Option {
	return func(c *Client) { c.session = src }
}

// New builds a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ----------------------------------------------------------------------------
// Wire envelopes

type feedbackListEnvelope struct {
	Feedback []domain.FeedbackRecord `json:"feedback"`
}

type feedbackEnvelope struct {
	Feedback domain.FeedbackRecord `json:"feedback"`
}

type commentListEnvelope struct {
	Comments []domain.Comment `json:"comments"`
}

type commentEnvelope struct {
	Comment domain.Comment `json:"comment"`
	Action  string         `json:"action,omitempty"`
}

type teamEnvelope struct {
	TeamMembers []domain.TeamMember `json:"team_members"`
}

type requestEnvelope struct {
	Request domain.FeedbackRequest `json:"request"`
}

type requestListEnvelope struct {
	Requests []domain.FeedbackRequest `json:"requests"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// ----------------------------------------------------------------------------
// Operations

// ListFeedback returns the records visible to the session: given feedback
// for managers, received feedback for employees.
func (c *Client) ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error) {
	var env feedbackListEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/feedback/", nil, &env); err != nil {
		return nil, err
	}
	return env.Feedback, nil
}

// CreateFeedback submits a new record and returns the server's copy.
func (c *Client) CreateFeedback(ctx context.Context, nf domain.NewFeedback) (domain.FeedbackRecord, error) {
	var env feedbackEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/feedback/", nf, &env); err != nil {
		return domain.FeedbackRecord{}, err
	}
	return env.Feedback, nil
}

// UpdateFeedback applies a partial update to an existing record.
func (c *Client) UpdateFeedback(ctx context.Context, id int, fields map[string]any) (domain.FeedbackRecord, error) {
	var env feedbackEnvelope
	path := fmt.Sprintf("/api/feedback/%d", id)
	if err := c.do(ctx, http.MethodPut, path, fields, &env); err != nil {
		return domain.FeedbackRecord{}, err
	}
	return env.Feedback, nil
}

// Acknowledge marks a record as acknowledged by the receiving employee.
func (c *Client) Acknowledge(ctx context.Context, id int) (domain.FeedbackRecord, error) {
	var env feedbackEnvelope
	path := fmt.Sprintf("/api/feedback/%d/acknowledge", id)
	if err := c.do(ctx, http.MethodPost, path, nil, &env); err != nil {
		return domain.FeedbackRecord{}, err
	}
	return env.Feedback, nil
}

// TeamMembers lists the manager's direct reports.
func (c *Client) TeamMembers(ctx context.Context) ([]domain.TeamMember, error) {
	var env teamEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/users/team", nil, &env); err != nil {
		return nil, err
	}
	return env.TeamMembers, nil
}

// ListComments returns the top-level comments of a record with replies
// nested one level deep.
func (c *Client) ListComments(ctx context.Context, feedbackID int) ([]domain.Comment, error) {
	var env commentListEnvelope
	path := fmt.Sprintf("/api/feedback/%d/comments", feedbackID)
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Comments, nil
}

// CreateComment posts a comment; parentID non-nil makes it a reply.
func (c *Client) CreateComment(ctx context.Context, feedbackID int, text string, parentID *int) (domain.Comment, error) {
	body := map[string]any{"comment_text": text}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	var env commentEnvelope
	path := fmt.Sprintf("/api/feedback/%d/comments", feedbackID)
	if err := c.do(ctx, http.MethodPost, path, body, &env); err != nil {
		return domain.Comment{}, err
	}
	return env.Comment, nil
}

// UpdateComment replaces a comment's text. Author only.
func (c *Client) UpdateComment(ctx context.Context, feedbackID, commentID int, text string) (domain.Comment, error) {
	body := map[string]any{"comment_text": text}
	var env commentEnvelope
	path := fmt.Sprintf("/api/feedback/%d/comments/%d", feedbackID, commentID)
	if err := c.do(ctx, http.MethodPut, path, body, &env); err != nil {
		return domain.Comment{}, err
	}
	return env.Comment, nil
}

// DeleteComment removes a comment and its replies. Author only.
func (c *Client) DeleteComment(ctx context.Context, feedbackID, commentID int) error {
	path := fmt.Sprintf("/api/feedback/%d/comments/%d", feedbackID, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ToggleCommentLike flips the session user's like on a comment and
// returns the server's updated copy.
func (c *Client) ToggleCommentLike(ctx context.Context, feedbackID, commentID int) (domain.Comment, error) {
	var env commentEnvelope
	path := fmt.Sprintf("/api/feedback/%d/comments/%d/like", feedbackID, commentID)
	if err := c.do(ctx, http.MethodPost, path, nil, &env); err != nil {
		return domain.Comment{}, err
	}
	return env.Comment, nil
}

// ExportPDF downloads a record's PDF report as opaque bytes.
func (c *Client) ExportPDF(ctx context.Context, feedbackID int) ([]byte, error) {
	path := fmt.Sprintf("/api/feedback/%d/export-pdf", feedbackID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// CreateRequest files a feedback request with the employee's manager.
func (c *Client) CreateRequest(ctx context.Context, message string) (domain.FeedbackRequest, error) {
	var env requestEnvelope
	body := map[string]any{"message": message}
	if err := c.do(ctx, http.MethodPost, "/api/feedback/requests", body, &env); err != nil {
		return domain.FeedbackRequest{}, err
	}
	return env.Request, nil
}

// ListRequests returns the session's feedback requests: received ones
// for managers, own ones for employees.
func (c *Client) ListRequests(ctx context.Context) ([]domain.FeedbackRequest, error) {
	var env requestListEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/feedback/requests", nil, &env); err != nil {
		return nil, err
	}
	return env.Requests, nil
}

// UpdateRequest resolves a pending request to completed or declined.
func (c *Client) UpdateRequest(ctx context.Context, id int, status domain.RequestStatus) (domain.FeedbackRequest, error) {
	var env requestEnvelope
	body := map[string]any{"status": string(status)}
	path := fmt.Sprintf("/api/feedback/requests/%d", id)
	if err := c.do(ctx, http.MethodPut, path, body, &env); err != nil {
		return domain.FeedbackRequest{}, err
	}
	return env.Request, nil
}

// ----------------------------------------------------------------------------
// Plumbing

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		sess, err := c.session.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		req.Header.Set("X-User-ID", fmt.Sprint(sess.UserID))
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	ae := &APIError{
		StatusCode: resp.StatusCode,
		Code:       codeForStatus(resp.StatusCode),
		Message:    http.StatusText(resp.StatusCode),
	}
	var env errorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env); err == nil && env.Error != "" {
		ae.Message = env.Error
	}
	return ae
}
