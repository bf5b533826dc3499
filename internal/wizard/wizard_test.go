package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
	"github.com/Apocalypse96/FeedbackPro/internal/store"
)

const (
	longStrengths = "Consistently delivers high quality work on time"
	longAreas     = "Could improve estimation accuracy on larger projects"
)

type memDrafts struct {
	mu    sync.Mutex
	saved map[int]domain.DraftSnapshot
}

func newMemDrafts() *memDrafts {
	return &memDrafts{saved: map[int]domain.DraftSnapshot{}}
}

func (m *memDrafts) Save(_ context.Context, snap domain.DraftSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[snap.EmployeeID] = snap
	return nil
}

func (m *memDrafts) Load(_ context.Context, employeeID int) (domain.DraftSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.saved[employeeID]
	if !ok {
		return domain.DraftSnapshot{}, store.ErrNoDraft
	}
	return snap, nil
}

func (m *memDrafts) Delete(_ context.Context, employeeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, employeeID)
	return nil
}

func (m *memDrafts) get(employeeID int) (domain.DraftSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.saved[employeeID]
	return snap, ok
}

type fakeAPI struct {
	mu      sync.Mutex
	err     error
	created []domain.NewFeedback
}

func (f *fakeAPI) CreateFeedback(_ context.Context, nf domain.NewFeedback) (domain.FeedbackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.FeedbackRecord{}, f.err
	}
	f.created = append(f.created, nf)
	return domain.FeedbackRecord{
		ID:             42,
		EmployeeID:     nf.EmployeeID,
		Strengths:      nf.Strengths,
		AreasToImprove: nf.AreasToImprove,
		Sentiment:      nf.Sentiment,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestValidateStepEmployee(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	errs := w.ValidateStep(StepEmployee)
	if errs["employee_id"] != "Please select a team member" {
		t.Fatalf("errs = %v", errs)
	}
	if err := w.SelectEmployee(context.Background(), 7); err != nil {
		t.Fatalf("select: %v", err)
	}
	if errs := w.ValidateStep(StepEmployee); len(errs) != 0 {
		t.Fatalf("errs after select = %v", errs)
	}
}

func TestValidateStepFeedbackMinimumLength(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	w.SetStrengths("only fifteen ch")
	w.SetAreasToImprove(longAreas)

	errs := w.ValidateStep(StepFeedback)
	if got := errs["strengths"]; got != "Please provide more detailed feedback (minimum 20 characters)" {
		t.Fatalf("strengths error = %q", got)
	}
	if _, ok := errs["areas_to_improve"]; ok {
		t.Fatalf("unexpected areas error: %v", errs)
	}

	w.SetStrengths("exactly twenty chars")
	if errs := w.ValidateStep(StepFeedback); errs["strengths"] != "" {
		t.Fatalf("20 chars must pass, got %v", errs)
	}
}

func TestValidateStepFeedbackWhitespaceOnly(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	w.SetStrengths(strings.Repeat(" ", 25))
	w.SetAreasToImprove(longAreas)

	errs := w.ValidateStep(StepFeedback)
	if got := errs["strengths"]; got != "Please provide strengths" {
		t.Fatalf("strengths error = %q", got)
	}
}

func TestNextGatedByValidation(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	if w.Next() {
		t.Fatal("must not advance without an employee")
	}
	if w.Step() != StepEmployee {
		t.Fatalf("step = %v", w.Step())
	}
	if w.Errors()["employee_id"] == "" {
		t.Fatal("error must be recorded")
	}

	w.SelectEmployee(context.Background(), 7)
	if !w.Next() {
		t.Fatal("must advance once valid")
	}
	if w.Step() != StepFeedback {
		t.Fatalf("step = %v", w.Step())
	}
}

func TestBackwardNavigationUnconditional(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	w.GoTo(StepReview)
	if w.Step() != StepReview {
		t.Fatalf("step = %v", w.Step())
	}
	w.Previous()
	if w.Step() != StepDetails {
		t.Fatalf("step = %v", w.Step())
	}
	w.GoTo(Step(99))
	if w.Step() != StepReview {
		t.Fatalf("clamped step = %v", w.Step())
	}
	w.GoTo(Step(-1))
	if w.Step() != StepEmployee {
		t.Fatalf("clamped step = %v", w.Step())
	}
}

func TestAutosaveWritesAfterDebounce(t *testing.T) {
	drafts := newMemDrafts()
	w := New(drafts, &fakeAPI{}, WithAutosaveDelay(20*time.Millisecond))
	defer w.Close()

	w.SelectEmployee(context.Background(), 7)
	w.SetStrengths(longStrengths)

	waitFor(t, func() bool {
		_, ok := drafts.get(7)
		return ok
	})
	snap, _ := drafts.get(7)
	if !snap.IsDraft {
		t.Error("autosaved snapshot must carry is_draft")
	}
	if snap.LastSavedAt.IsZero() {
		t.Error("autosaved snapshot must carry last_saved_at")
	}
	if snap.Strengths != longStrengths {
		t.Errorf("strengths = %q", snap.Strengths)
	}
}

func TestAutosaveSkipsEmptyForm(t *testing.T) {
	drafts := newMemDrafts()
	w := New(drafts, &fakeAPI{}, WithAutosaveDelay(10*time.Millisecond))
	defer w.Close()

	w.SelectEmployee(context.Background(), 7)
	w.SetSentiment(domain.SentimentNeutral)

	time.Sleep(60 * time.Millisecond)
	if _, ok := drafts.get(7); ok {
		t.Fatal("a form without text must not autosave")
	}
}

func TestEmployeeSwitchCancelsPendingAutosave(t *testing.T) {
	drafts := newMemDrafts()
	w := New(drafts, &fakeAPI{}, WithAutosaveDelay(50*time.Millisecond))
	defer w.Close()

	w.SelectEmployee(context.Background(), 7)
	w.SetStrengths(longStrengths)

	// Switch before the debounce window elapses.
	w.SelectEmployee(context.Background(), 9)

	time.Sleep(150 * time.Millisecond)
	if snap, ok := drafts.get(9); ok {
		t.Fatalf("employee 7 data leaked into employee 9 draft: %+v", snap)
	}
	if _, ok := drafts.get(7); ok {
		t.Fatal("cancelled timer must not write the old draft either")
	}
}

func TestCloseCancelsPendingAutosave(t *testing.T) {
	drafts := newMemDrafts()
	w := New(drafts, &fakeAPI{}, WithAutosaveDelay(30*time.Millisecond))

	w.SelectEmployee(context.Background(), 7)
	w.SetStrengths(longStrengths)
	w.Close()

	time.Sleep(100 * time.Millisecond)
	if _, ok := drafts.get(7); ok {
		t.Fatal("teardown must cancel the pending autosave")
	}
}

func TestDraftResumeAccepted(t *testing.T) {
	drafts := newMemDrafts()
	stored := domain.DraftSnapshot{
		EmployeeID: 7,
		Strengths:  longStrengths,
		Tags:       []string{"leadership"},
		IsDraft:    true,
	}
	drafts.Save(context.Background(), stored)

	var prompted domain.DraftSnapshot
	w := New(drafts, &fakeAPI{}, WithResumePrompt(func(s domain.DraftSnapshot) bool {
		prompted = s
		return true
	}))
	defer w.Close()

	if err := w.SelectEmployee(context.Background(), 7); err != nil {
		t.Fatalf("select: %v", err)
	}
	if prompted.Strengths != longStrengths {
		t.Fatal("prompt must receive the stored snapshot")
	}
	form := w.Form()
	if form.Strengths != longStrengths || len(form.Tags) != 1 {
		t.Fatalf("form = %+v", form)
	}
	if form.IsDraft {
		t.Fatal("resumed form must reset is_draft")
	}
}

func TestDraftResumeDeclinedLeavesStoreUntouched(t *testing.T) {
	drafts := newMemDrafts()
	stored := domain.DraftSnapshot{EmployeeID: 7, Strengths: longStrengths, IsDraft: true}
	drafts.Save(context.Background(), stored)

	w := New(drafts, &fakeAPI{}, WithResumePrompt(func(domain.DraftSnapshot) bool { return false }))
	defer w.Close()

	w.SelectEmployee(context.Background(), 7)
	if form := w.Form(); form.Strengths != "" {
		t.Fatalf("declined resume must start empty, got %+v", form)
	}
	if snap, ok := drafts.get(7); !ok || snap.Strengths != longStrengths {
		t.Fatal("declined resume must leave the stored draft alone")
	}
}

func fillValid(t *testing.T, w *Wizard) {
	t.Helper()
	w.SelectEmployee(context.Background(), 7)
	w.SetStrengths(longStrengths)
	w.SetAreasToImprove(longAreas)
	w.SetSentiment(domain.SentimentPositive)
	w.GoTo(StepReview)
}

func TestSubmitOnlyFromReview(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	defer w.Close()
	w.SelectEmployee(context.Background(), 7)

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrNotOnReview) {
		t.Fatalf("err = %v, want ErrNotOnReview", err)
	}
}

func TestSubmitSuccessDeletesDraftAndTerminates(t *testing.T) {
	drafts := newMemDrafts()
	api := &fakeAPI{}
	w := New(drafts, api, WithAutosaveDelay(10*time.Millisecond))
	defer w.Close()

	fillValid(t, w)
	waitFor(t, func() bool {
		_, ok := drafts.get(7)
		return ok
	})

	rec, err := w.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.ID != 42 {
		t.Errorf("rec.ID = %d", rec.ID)
	}
	if !w.Submitted() {
		t.Error("wizard must be terminal after submit")
	}
	if _, ok := drafts.get(7); ok {
		t.Error("draft must be deleted on success")
	}
	if len(api.created) != 1 || api.created[0].EmployeeID != 7 {
		t.Errorf("created = %+v", api.created)
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second submit err = %v", err)
	}
}

// gateDrafts blocks its first Save until released.
type gateDrafts struct {
	*memDrafts
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateDrafts) Save(ctx context.Context, snap domain.DraftSnapshot) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.memDrafts.Save(ctx, snap)
}

func TestSubmitWithInFlightAutosaveLeavesNoDraft(t *testing.T) {
	mem := newMemDrafts()
	drafts := &gateDrafts{memDrafts: mem, entered: make(chan struct{}), release: make(chan struct{})}
	api := &fakeAPI{}
	w := New(drafts, api, WithAutosaveDelay(20*time.Millisecond))
	defer w.Close()

	fillValid(t, w)
	<-drafts.entered // an autosave is now mid-write

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()

	// Let the submit run as far as it can before the blocked save lands.
	time.Sleep(50 * time.Millisecond)
	close(drafts.release)

	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := mem.get(7); ok {
		t.Fatal("autosave must not recreate the draft of a submitted record")
	}
}

func TestSubmitFailureKeepsEverything(t *testing.T) {
	drafts := newMemDrafts()
	api := &fakeAPI{err: errors.New("connection refused")}
	w := New(drafts, api, WithAutosaveDelay(10*time.Millisecond))
	defer w.Close()

	fillValid(t, w)
	waitFor(t, func() bool {
		_, ok := drafts.get(7)
		return ok
	})

	if _, err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected submit failure")
	}
	if w.Submitted() {
		t.Error("failed submit must not terminate the wizard")
	}
	if w.Step() != StepReview {
		t.Errorf("step = %v", w.Step())
	}
	if _, ok := drafts.get(7); !ok {
		t.Error("failed submit must keep the draft")
	}
	if form := w.Form(); form.Strengths != longStrengths {
		t.Errorf("form lost state: %+v", form)
	}
}

func TestSubmitRevalidates(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	defer w.Close()
	w.SelectEmployee(context.Background(), 7)
	w.SetStrengths("too short")
	w.SetAreasToImprove(longAreas)
	w.GoTo(StepReview)

	_, err := w.Submit(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Fields["strengths"] == "" {
		t.Fatalf("fields = %v", verr.Fields)
	}
}

func TestActionItemsLifecycle(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	defer w.Close()
	w.SelectEmployee(context.Background(), 7)

	first := w.AddActionItem()
	second := w.AddActionItem()
	if first == second {
		t.Fatal("action item ids must be distinct")
	}
	w.UpdateActionItem(first, "Schedule pairing session")
	w.UpdateActionItem(999999, "ignored")
	w.RemoveActionItem(second)

	items := w.Form().ActionItems
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].ID != first || items[0].Text != "Schedule pairing session" {
		t.Fatalf("items = %+v", items)
	}
}

func TestToggleTag(t *testing.T) {
	w := New(newMemDrafts(), &fakeAPI{})
	defer w.Close()
	w.SelectEmployee(context.Background(), 7)

	w.ToggleTag("leadership")
	w.ToggleTag("teamwork")
	w.ToggleTag("leadership")
	if tags := w.Form().Tags; len(tags) != 1 || tags[0] != "teamwork" {
		t.Fatalf("tags = %v", tags)
	}
}
