// Package filter reduces the working dataset to the rows matching a
// session's selection.
package filter

import (
	"sort"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/pkg/fn"
)

// Selection is the session-owned filter state passed into every
// recomputation. An empty slice for a set dimension means "no restriction",
// never "exclude everything".
type Selection struct {
	Industries []string         `json:"industries,omitempty"`
	Countries  []string         `json:"countries,omitempty"`
	Companies  []string         `json:"companies,omitempty"`
	Years      domain.YearRange `json:"years"`
}

// Apply returns the rows of ds satisfying all four predicates. The set
// predicates are membership checks, the year range is inclusive, and the
// dimensions combine with AND. An empty result is valid output.
func Apply(ds *dataset.Dataset, sel Selection) []domain.Company {
	years := sel.Years.Normalize()
	industries := toSet(sel.Industries)
	countries := toSet(sel.Countries)
	companies := toSet(sel.Companies)

	return fn.Filter(ds.Rows, func(c domain.Company) bool {
		return member(industries, c.Industry) &&
			member(countries, c.Country) &&
			member(companies, c.Name) &&
			years.Contains(c.YearFounded)
	})
}

// member implements the select-all fallback: a nil set allows every value.
func member(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Options are the selectable values per dimension, presented so a UI can
// only build valid selections (the year slider is bounded by the dataset).
type Options struct {
	Industries []string         `json:"industries"`
	Countries  []string         `json:"countries"`
	Companies  []string         `json:"companies"`
	Years      domain.YearRange `json:"years"`
}

// OptionsFor returns the distinct sorted values per dimension plus the
// founding-year bounds of ds.
func OptionsFor(ds *dataset.Dataset) Options {
	opts := Options{
		Industries: distinctSorted(ds.Rows, func(c domain.Company) string { return c.Industry }),
		Countries:  distinctSorted(ds.Rows, func(c domain.Company) string { return c.Country }),
		Companies:  distinctSorted(ds.Rows, func(c domain.Company) string { return c.Name }),
	}
	for i, c := range ds.Rows {
		if i == 0 || c.YearFounded < opts.Years.Min {
			opts.Years.Min = c.YearFounded
		}
		if i == 0 || c.YearFounded > opts.Years.Max {
			opts.Years.Max = c.YearFounded
		}
	}
	return opts
}

func distinctSorted(rows []domain.Company, key func(domain.Company) string) []string {
	values := fn.Unique(fn.Map(rows, key))
	sort.Strings(values)
	return values
}
