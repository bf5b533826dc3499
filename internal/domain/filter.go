package domain

// SentimentFacet narrows the visible records to one sentiment.
type SentimentFacet string

// Sentiment facet values. FacetSentimentAll disables the facet.
const (
	FacetSentimentAll      SentimentFacet = "all"
	FacetSentimentPositive SentimentFacet = "positive"
	FacetSentimentNeutral  SentimentFacet = "neutral"
	FacetSentimentNegative SentimentFacet = "negative"
)

// AcknowledgedFacet narrows the visible records by acknowledgement.
type AcknowledgedFacet string

// Acknowledged facet values.
const (
	FacetAckAll          AcknowledgedFacet = "all"
	FacetAckAcknowledged AcknowledgedFacet = "acknowledged"
	FacetAckPending      AcknowledgedFacet = "pending"
)

// DateRangeFacet narrows the visible records to a trailing window.
type DateRangeFacet string

// Date range facet values: trailing 7, 30 and 91 days.
const (
	FacetDateAll     DateRangeFacet = "all"
	FacetDateWeek    DateRangeFacet = "week"
	FacetDateMonth   DateRangeFacet = "month"
	FacetDateQuarter DateRangeFacet = "quarter"
)

// FilterState holds the complete filtering input of the records view.
// Facets combine by AND; the tag facet matches on non-empty intersection
// with the record's tag set. The zero value filters nothing, so
// NewFilterState should be used to get the explicit "all" facets.
type FilterState struct {
	Search       string
	Sentiment    SentimentFacet
	Acknowledged AcknowledgedFacet
	DateRange    DateRangeFacet
	Tags         []string
}

// NewFilterState returns the neutral filter: no search, every facet set
// to all, no required tags.
func NewFilterState() FilterState {
	return FilterState{
		Sentiment:    FacetSentimentAll,
		Acknowledged: FacetAckAll,
		DateRange:    FacetDateAll,
	}
}

// Equal reports whether two filter states select the same subset. Tag
// order matters; the controller only ever appends or removes in place,
// so order-insensitive comparison is not needed.
func (f FilterState) Equal(o FilterState) bool {
	if f.Search != o.Search ||
		f.Sentiment != o.Sentiment ||
		f.Acknowledged != o.Acknowledged ||
		f.DateRange != o.DateRange ||
		len(f.Tags) != len(o.Tags) {
		return false
	}
	for i := range f.Tags {
		if f.Tags[i] != o.Tags[i] {
			return false
		}
	}
	return true
}

// Active reports whether any facet or the search narrows the collection.
func (f FilterState) Active() bool {
	return f.Search != "" ||
		(f.Sentiment != "" && f.Sentiment != FacetSentimentAll) ||
		(f.Acknowledged != "" && f.Acknowledged != FacetAckAll) ||
		(f.DateRange != "" && f.DateRange != FacetDateAll) ||
		len(f.Tags) > 0
}
