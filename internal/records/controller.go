// Package records drives the feedback list view: it fetches the record
// collection once, owns the filter state and sort key, and derives the
// visible subset through the memoizing filter engine. Unlike the
// comment thread, this view is not optimistic: acknowledgements are
// applied locally only after the server confirms them.
package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
	"github.com/Apocalypse96/FeedbackPro/internal/filter"
)

// API is the slice of the API client the controller needs.
type API interface {
	ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error)
	Acknowledge(ctx context.Context, id int) (domain.FeedbackRecord, error)
}

// Stats summarizes the loaded collection, before filtering.
type Stats struct {
	Total        int
	Acknowledged int
	Pending      int
	BySentiment  map[domain.Sentiment]int
}

// Controller owns the list view's state.
type Controller struct {
	api     API
	session domain.Session
	now     func() time.Time

	mu      sync.Mutex
	records []domain.FeedbackRecord
	fs      domain.FilterState
	sortKey domain.SortKey
	loaded  bool
	deriver filter.Deriver
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNow overrides the clock used by the date range facet.
func WithNow(fn func() time.Time) Option {
	return func(c *Controller) {
		if fn != nil {
			c.now = fn
		}
	}
}

// New builds a Controller with the neutral filter and date_desc sort.
func New(api API, session domain.Session, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		session: session,
		now:     time.Now,
		fs:      domain.NewFilterState(),
		sortKey: domain.SortDateDesc,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load fetches the collection. The first call populates the view;
// later calls are no-ops so the collection is fetched exactly once per
// view lifetime. Use Reload to force a refetch.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload refetches the collection unconditionally.
func (c *Controller) Reload(ctx context.Context) error {
	records, err := c.api.ListFeedback(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.records = records
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// ----------------------------------------------------------------------------
// Filter and sort state

// SetSearch updates the free-text search term.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs.Search = term
}

// SetSentimentFacet narrows by sentiment.
func (c *Controller) SetSentimentFacet(f domain.SentimentFacet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs.Sentiment = f
}

// SetAcknowledgedFacet narrows by acknowledgement.
func (c *Controller) SetAcknowledgedFacet(f domain.AcknowledgedFacet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs.Acknowledged = f
}

// SetDateRangeFacet narrows by trailing date window.
func (c *Controller) SetDateRangeFacet(f domain.DateRangeFacet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs.DateRange = f
}

// ToggleTagFilter adds the tag to the facet if absent, removes it if
// present.
func (c *Controller) ToggleTagFilter(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.fs.Tags {
		if t == tag {
			c.fs.Tags = append(append([]string(nil), c.fs.Tags[:i]...), c.fs.Tags[i+1:]...)
			return
		}
	}
	c.fs.Tags = append(append([]string(nil), c.fs.Tags...), tag)
}

// ClearFilters resets search and every facet.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = domain.NewFilterState()
}

// SetSortKey changes the ordering of the visible subset.
func (c *Controller) SetSortKey(k domain.SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortKey = k
}

// Filter returns a copy of the current filter state.
func (c *Controller) Filter() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := c.fs
	fs.Tags = append([]string(nil), c.fs.Tags...)
	return fs
}

// SortKey returns the active sort key.
func (c *Controller) SortKey() domain.SortKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortKey
}

// Visible derives the filtered, ordered subset for the session's role.
func (c *Controller) Visible() []domain.FeedbackRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deriver.Derive(c.records, c.fs, c.sortKey, c.session.Role, c.now())
}

// ----------------------------------------------------------------------------
// Acknowledgement

// Acknowledge marks one record acknowledged. The local copy changes
// only after the server confirms; a failure leaves the view untouched
// and is returned to the caller.
func (c *Controller) Acknowledge(ctx context.Context, id int) error {
	updated, err := c.api.Acknowledge(ctx, id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.applyLocked(updated)
	c.mu.Unlock()
	return nil
}

// BulkAcknowledge acknowledges each id independently and returns the
// ids that succeeded. Failures do not stop the remaining calls.
func (c *Controller) BulkAcknowledge(ctx context.Context, ids []int) []int {
	var acked []int
	for _, id := range ids {
		if err := c.Acknowledge(ctx, id); err == nil {
			acked = append(acked, id)
		}
	}
	return acked
}

// applyLocked swaps in the server's copy of one record. The collection
// gets a fresh backing array so identity-based memoization sees the
// change.
func (c *Controller) applyLocked(updated domain.FeedbackRecord) {
	fresh := make([]domain.FeedbackRecord, len(c.records))
	copy(fresh, c.records)
	for i := range fresh {
		if fresh[i].ID == updated.ID {
			fresh[i] = updated
			break
		}
	}
	c.records = fresh
}

// ----------------------------------------------------------------------------
// Collection summaries

// Stats counts the loaded collection before any filtering.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{BySentiment: map[domain.Sentiment]int{}}
	for _, r := range c.records {
		s.Total++
		if r.Acknowledged {
			s.Acknowledged++
		} else {
			s.Pending++
		}
		if r.Sentiment != "" {
			s.BySentiment[r.Sentiment]++
		}
	}
	return s
}

// AllTags returns the distinct tags across the collection, sorted.
func (c *Controller) AllTags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]struct{}{}
	for _, r := range c.records {
		for _, t := range r.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
