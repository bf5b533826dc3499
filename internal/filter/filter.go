// Package filter derives the visible, ordered subset of feedback records
// from a filter state, a sort key and the viewer's role. It is the pure
// core of the records view and is engineered for predictability:
//
//   - No logging and no I/O (callers decide how/what to log)
//   - Inputs are never mutated; the result is always a fresh slice
//   - Facets combine by AND; the free-text search is an OR over fields
//   - Deterministic, stable sorting (ties keep their relative order)
//   - Absent optional fields never panic; they simply fail to match
//
// Deriver adds identity-based memoization on top of Derive: the cached
// result is reused only when the exact same backing slice is passed with
// an equal filter state, the same sort key and the same viewer role.
package filter

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// Date range facet windows, matching the view's trailing windows of
// 7, 30 and 91 days.
const (
	weekWindow    = 7 * 24 * time.Hour
	monthWindow   = 30 * 24 * time.Hour
	quarterWindow = 91 * 24 * time.Hour
)

// Derive returns the records matching fs, ordered by sortKey, for a
// viewer with the given role. The input slice is left untouched.
func Derive(records []domain.FeedbackRecord, fs domain.FilterState, sortKey domain.SortKey, viewer domain.Role, now time.Time) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, 0, len(records))
	term := strings.ToLower(strings.TrimSpace(fs.Search))
	for _, r := range records {
		if term != "" && !matchesSearch(r, term, viewer) {
			continue
		}
		if !matchesSentiment(r, fs.Sentiment) {
			continue
		}
		if !matchesAcknowledged(r, fs.Acknowledged) {
			continue
		}
		if !matchesDateRange(r, fs.DateRange, now) {
			continue
		}
		if !matchesTags(r, fs.Tags) {
			continue
		}
		out = append(out, r)
	}
	sortRecords(out, sortKey, viewer)
	return out
}

// ----------------------------------------------------------------------------
// Predicates

// matchesSearch is the OR across strengths, areas to improve, the
// viewer's counterpart name and the labels of the record's tags. All
// comparisons are case-insensitive substring matches.
func matchesSearch(r domain.FeedbackRecord, term string, viewer domain.Role) bool {
	if strings.Contains(strings.ToLower(r.Strengths), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.AreasToImprove), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.CounterpartName(viewer)), term) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(domain.TagLabel(tag)), term) {
			return true
		}
	}
	return false
}

func matchesSentiment(r domain.FeedbackRecord, facet domain.SentimentFacet) bool {
	if facet == "" || facet == domain.FacetSentimentAll {
		return true
	}
	return string(r.Sentiment) == string(facet)
}

func matchesAcknowledged(r domain.FeedbackRecord, facet domain.AcknowledgedFacet) bool {
	switch facet {
	case domain.FacetAckAcknowledged:
		return r.Acknowledged
	case domain.FacetAckPending:
		return !r.Acknowledged
	default:
		return true
	}
}

func matchesDateRange(r domain.FeedbackRecord, facet domain.DateRangeFacet, now time.Time) bool {
	var window time.Duration
	switch facet {
	case domain.FacetDateWeek:
		window = weekWindow
	case domain.FacetDateMonth:
		window = monthWindow
	case domain.FacetDateQuarter:
		window = quarterWindow
	default:
		return true
	}
	return !r.CreatedAt.Before(now.Add(-window))
}

// matchesTags requires a non-empty intersection between the record's
// tags and the facet's tag set. Records without tags never match a
// non-empty facet.
func matchesTags(r domain.FeedbackRecord, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, have := range r.Tags {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Sorting

var nameCollator = collate.New(language.English, collate.IgnoreCase)
var nameCollatorMu sync.Mutex

// compareNames is locale-aware, mirroring the view's localeCompare.
// collate.Collator is not safe for concurrent use, hence the lock.
func compareNames(a, b string) int {
	nameCollatorMu.Lock()
	defer nameCollatorMu.Unlock()
	return nameCollator.CompareString(a, b)
}

func sortRecords(records []domain.FeedbackRecord, key domain.SortKey, viewer domain.Role) {
	switch key {
	case domain.SortDateAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		})
	case domain.SortSentiment:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Sentiment.Rank() > records[j].Sentiment.Rank()
		})
	case domain.SortName:
		sort.SliceStable(records, func(i, j int) bool {
			return compareNames(records[i].CounterpartName(viewer), records[j].CounterpartName(viewer)) < 0
		})
	default: // date_desc
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		})
	}
}

// ----------------------------------------------------------------------------
// Memoization

// Deriver caches the last derivation. A cached result is returned only
// when the caller passes the identical backing slice together with an
// equal filter state, the same sort key and the same viewer role; any
// new slice value is treated as new data. Time is deliberately not part
// of the cache key.
type Deriver struct {
	mu sync.Mutex

	haveResult bool
	lastHead   *domain.FeedbackRecord
	lastLen    int
	lastFilter domain.FilterState
	lastSort   domain.SortKey
	lastViewer domain.Role
	lastResult []domain.FeedbackRecord
}

// Derive returns the memoized result when the inputs are identical to
// the previous call, otherwise recomputes and caches.
func (d *Deriver) Derive(records []domain.FeedbackRecord, fs domain.FilterState, sortKey domain.SortKey, viewer domain.Role, now time.Time) []domain.FeedbackRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	var head *domain.FeedbackRecord
	if len(records) > 0 {
		head = &records[0]
	}
	if d.haveResult &&
		head == d.lastHead &&
		len(records) == d.lastLen &&
		fs.Equal(d.lastFilter) &&
		sortKey == d.lastSort &&
		viewer == d.lastViewer {
		return d.lastResult
	}

	res := Derive(records, fs, sortKey, viewer, now)
	d.haveResult = true
	d.lastHead = head
	d.lastLen = len(records)
	d.lastFilter = fs
	tags := make([]string, len(fs.Tags))
	copy(tags, fs.Tags)
	d.lastFilter.Tags = tags
	d.lastSort = sortKey
	d.lastViewer = viewer
	d.lastResult = res
	return res
}

// Invalidate drops the cached result.
func (d *Deriver) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.haveResult = false
	d.lastResult = nil
	d.lastHead = nil
}
