// Package wizard implements the four-step feedback authoring workflow:
// employee selection, main feedback, details and review. It validates
// per step, autosaves drafts after a debounce window, recovers drafts
// when an employee is selected, and submits the finished record through
// the API client.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
	"github.com/Apocalypse96/FeedbackPro/internal/store"
)

// Step identifies one wizard step.
type Step int

// Wizard steps in order.
const (
	StepEmployee Step = 1
	StepFeedback Step = 2
	StepDetails  Step = 3
	StepReview   Step = 4
)

// Field-scoped validation messages, matching the product copy exactly.
const (
	msgSelectEmployee   = "Please select a team member"
	msgProvideStrengths = "Please provide strengths"
	msgProvideAreas     = "Please provide areas to improve"
	msgMinLength        = "Please provide more detailed feedback (minimum 20 characters)"
)

// DraftStore is the persistence the wizard autosaves into.
type DraftStore interface {
	Save(ctx context.Context, snapshot domain.DraftSnapshot) error
	Load(ctx context.Context, employeeID int) (domain.DraftSnapshot, error)
	Delete(ctx context.Context, employeeID int) error
}

// Submitter creates the finished record on the server.
type Submitter interface {
	CreateFeedback(ctx context.Context, nf domain.NewFeedback) (domain.FeedbackRecord, error)
}

// Wizard drives a single authoring session. All methods are safe for
// use from multiple goroutines; the autosave timer fires on its own
// goroutine and takes the same lock.
type Wizard struct {
	drafts DraftStore
	api    Submitter

	delay   time.Duration
	resume  func(domain.DraftSnapshot) bool
	onError func(error)
	onSaved func(domain.DraftSnapshot)

	mu         sync.Mutex
	step       Step
	form       domain.DraftSnapshot
	errs       map[string]string
	timer      *time.Timer
	generation uint64
	nextItemID int64
	submitted  bool
	closed     bool
}

// Option customizes a Wizard.
type Option func(*Wizard)

// WithAutosaveDelay overrides the default 3-second debounce window.
func WithAutosaveDelay(d time.Duration) Option {
	return func(w *Wizard) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithResumePrompt sets the callback asked whether to resume a found
// draft. Without one, drafts are never resumed (the stored snapshot is
// left untouched).
func WithResumePrompt(fn func(domain.DraftSnapshot) bool) Option {
	return func(w *Wizard) { w.resume = fn }
}

// WithErrorHandler receives autosave failures. They are otherwise
// swallowed; autosave must never interrupt editing.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Wizard) { w.onError = fn }
}

// WithSavedHandler is notified after each successful autosave.
func WithSavedHandler(fn func(domain.DraftSnapshot)) Option {
	return func(w *Wizard) { w.onSaved = fn }
}

// New builds a Wizard starting at the employee selection step.
func New(drafts DraftStore, api Submitter, opts ...Option) *Wizard {
	w := &Wizard{
		drafts: drafts,
		api:    api,
		delay:  3 * time.Second,
		step:   StepEmployee,
		errs:   map[string]string{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// ----------------------------------------------------------------------------
// Employee selection and draft recovery

// SelectEmployee switches the wizard to a new target employee. The
// pending autosave timer is cancelled first so an old edit can never
// land under the new employee's key. The form is reset, then the draft
// store is consulted: if a snapshot exists and the resume prompt
// accepts it, its fields are merged with IsDraft reset to false; on
// decline the stored snapshot is left untouched and the form starts
// empty.
func (w *Wizard) SelectEmployee(ctx context.Context, employeeID int) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.cancelTimerLocked()
	w.form = domain.DraftSnapshot{EmployeeID: employeeID}
	delete(w.errs, "employee_id")
	resume := w.resume
	w.mu.Unlock()

	if employeeID == 0 {
		return nil
	}
	snap, err := w.drafts.Load(ctx, employeeID)
	if err != nil {
		if errors.Is(err, store.ErrNoDraft) {
			return nil
		}
		return err
	}
	if resume == nil || !resume(snap) {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// The selection may have moved on while the prompt was open.
	if w.closed || w.form.EmployeeID != employeeID {
		return nil
	}
	snap.EmployeeID = employeeID
	snap.IsDraft = false
	w.form = snap
	return nil
}

// ----------------------------------------------------------------------------
// Field edits

// SetStrengths updates the strengths text and restarts the autosave
// debounce.
func (w *Wizard) SetStrengths(s string) {
	w.edit(func() {
		w.form.Strengths = s
		delete(w.errs, "strengths")
	})
}

// SetAreasToImprove updates the improvement text and restarts the
// autosave debounce.
func (w *Wizard) SetAreasToImprove(s string) {
	w.edit(func() {
		w.form.AreasToImprove = s
		delete(w.errs, "areas_to_improve")
	})
}

// SetSentiment updates the overall sentiment.
func (w *Wizard) SetSentiment(s domain.Sentiment) {
	w.edit(func() { w.form.Sentiment = s })
}

// SetPriority updates the follow-up priority.
func (w *Wizard) SetPriority(p domain.Priority) {
	w.edit(func() { w.form.Priority = p })
}

// SetGoals updates the goals text.
func (w *Wizard) SetGoals(s string) {
	w.edit(func() { w.form.Goals = s })
}

// ToggleTag adds the tag if absent, removes it if present.
func (w *Wizard) ToggleTag(name string) {
	w.edit(func() {
		for i, t := range w.form.Tags {
			if t == name {
				w.form.Tags = append(w.form.Tags[:i], w.form.Tags[i+1:]...)
				return
			}
		}
		w.form.Tags = append(w.form.Tags, name)
	})
}

// AddActionItem appends a new empty action item and returns its id.
func (w *Wizard) AddActionItem() int64 {
	var id int64
	w.edit(func() {
		w.nextItemID++
		id = time.Now().UnixMilli() + w.nextItemID
		w.form.ActionItems = append(w.form.ActionItems, domain.ActionItem{ID: id})
	})
	return id
}

// UpdateActionItem replaces the text of the matching item. Unknown ids
// are ignored.
func (w *Wizard) UpdateActionItem(id int64, text string) {
	w.edit(func() {
		for i := range w.form.ActionItems {
			if w.form.ActionItems[i].ID == id {
				w.form.ActionItems[i].Text = text
				return
			}
		}
	})
}

// RemoveActionItem deletes the matching item. Unknown ids are ignored.
func (w *Wizard) RemoveActionItem(id int64) {
	w.edit(func() {
		for i := range w.form.ActionItems {
			if w.form.ActionItems[i].ID == id {
				w.form.ActionItems = append(w.form.ActionItems[:i], w.form.ActionItems[i+1:]...)
				return
			}
		}
	})
}

func (w *Wizard) edit(apply func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.submitted {
		return
	}
	apply()
	w.scheduleAutosaveLocked()
}

// ----------------------------------------------------------------------------
// Autosave

func (w *Wizard) scheduleAutosaveLocked() {
	w.cancelTimerLocked()
	w.generation++
	gen := w.generation
	w.timer = time.AfterFunc(w.delay, func() { w.autosave(gen) })
}

func (w *Wizard) cancelTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.generation++
}

func (w *Wizard) autosave(gen uint64) {
	w.mu.Lock()
	if w.closed || w.submitted || gen != w.generation {
		w.mu.Unlock()
		return
	}
	if w.form.EmployeeID == 0 || !w.form.HasContent() {
		w.mu.Unlock()
		return
	}
	snap := w.snapshotLocked()
	snap.IsDraft = true
	snap.LastSavedAt = time.Now().UTC()
	onError := w.onError
	onSaved := w.onSaved

	// The write stays under the lock: Submit marks the wizard submitted
	// before deleting the draft, so a stale save cannot land after that
	// delete and resurrect it.
	err := w.drafts.Save(context.Background(), snap)
	w.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onSaved != nil {
		onSaved(snap)
	}
}

// snapshotLocked deep-copies the form so the caller can release the lock.
func (w *Wizard) snapshotLocked() domain.DraftSnapshot {
	snap := w.form
	snap.Tags = append([]string(nil), w.form.Tags...)
	snap.ActionItems = append([]domain.ActionItem(nil), w.form.ActionItems...)
	return snap
}

// ----------------------------------------------------------------------------
// Validation and navigation

// ValidateStep returns the field-scoped errors for a step, empty when
// the step is valid. Steps 3 and 4 have no hard requirements.
func (w *Wizard) ValidateStep(step Step) map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateStepLocked(step)
}

func (w *Wizard) validateStepLocked(step Step) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepEmployee:
		if w.form.EmployeeID == 0 {
			errs["employee_id"] = msgSelectEmployee
		}
	case StepFeedback:
		if strings.TrimSpace(w.form.Strengths) == "" {
			errs["strengths"] = msgProvideStrengths
		}
		if strings.TrimSpace(w.form.AreasToImprove) == "" {
			errs["areas_to_improve"] = msgProvideAreas
		}
		if utf8.RuneCountInString(w.form.Strengths) < domain.MinFeedbackTextLen {
			errs["strengths"] = msgMinLength
		}
		if utf8.RuneCountInString(w.form.AreasToImprove) < domain.MinFeedbackTextLen {
			errs["areas_to_improve"] = msgMinLength
		}
	}
	return errs
}

// Next advances one step if the current step validates, otherwise stays
// put and records the errors. Reports whether it advanced.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.submitted {
		return false
	}
	errs := w.validateStepLocked(w.step)
	if len(errs) > 0 {
		w.errs = errs
		return false
	}
	if w.step < StepReview {
		w.step++
	}
	return true
}

// Previous moves back one step. Backward navigation is never gated.
func (w *Wizard) Previous() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepEmployee {
		w.step--
	}
}

// GoTo jumps straight to a step, clamped to the valid range. Like
// Previous, it performs no validation.
func (w *Wizard) GoTo(step Step) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if step < StepEmployee {
		step = StepEmployee
	}
	if step > StepReview {
		step = StepReview
	}
	w.step = step
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Form returns a copy of the in-progress record.
func (w *Wizard) Form() domain.DraftSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Errors returns a copy of the current field errors.
func (w *Wizard) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Submitted reports whether the wizard reached its terminal state.
func (w *Wizard) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

// ----------------------------------------------------------------------------
// Submission

// Submit finishes the workflow. It is only legal from the review step.
// The full form is re-validated; on success the record is created on
// the server, the draft is deleted and the wizard becomes terminal. Any
// failure leaves every piece of state exactly as it was.
func (w *Wizard) Submit(ctx context.Context) (domain.FeedbackRecord, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.FeedbackRecord{}, ErrClosed
	}
	if w.submitted {
		w.mu.Unlock()
		return domain.FeedbackRecord{}, ErrAlreadySubmitted
	}
	if w.step != StepReview {
		w.mu.Unlock()
		return domain.FeedbackRecord{}, ErrNotOnReview
	}
	errs := w.validateStepLocked(StepEmployee)
	for k, v := range w.validateStepLocked(StepFeedback) {
		errs[k] = v
	}
	if len(errs) > 0 {
		w.errs = errs
		w.mu.Unlock()
		return domain.FeedbackRecord{}, &ValidationError{Fields: errs}
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()

	rec, err := w.api.CreateFeedback(ctx, domain.NewFeedback{
		EmployeeID:     snap.EmployeeID,
		Strengths:      snap.Strengths,
		AreasToImprove: snap.AreasToImprove,
		Sentiment:      snap.Sentiment,
		Tags:           snap.Tags,
		Priority:       snap.Priority,
		Goals:          snap.Goals,
		ActionItems:    snap.ActionItems,
	})
	if err != nil {
		return domain.FeedbackRecord{}, err
	}

	w.mu.Lock()
	w.cancelTimerLocked()
	w.submitted = true
	w.mu.Unlock()

	// The record exists on the server; a failed draft cleanup is
	// reported through the error handler, not to the caller.
	if derr := w.drafts.Delete(ctx, snap.EmployeeID); derr != nil && w.onError != nil {
		w.onError(derr)
	}
	return rec, nil
}

// Close tears the wizard down and cancels any pending autosave.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelTimerLocked()
	w.closed = true
}
