// Package domain defines the core unicorn-company record and its
// validation rules.
package domain

import "time"

// Company is one row of the working dataset: a single company–investor
// association. A company with several investors appears in several rows,
// so per-company statistics must deduplicate by Name first.
type Company struct {
	Name        string    `json:"name"`
	Industry    string    `json:"industry"`
	Country     string    `json:"country"`
	City        string    `json:"city,omitempty"`
	YearFounded int       `json:"year_founded"`
	DateJoined  time.Time `json:"date_joined"`
	ValuationB  float64   `json:"valuation_b"` // valuation in $B
	FundingB    float64   `json:"funding_b"`   // funding in $B, valid only if HasFunding
	HasFunding  bool      `json:"has_funding"`
	Investor    string    `json:"investor"`
}

// JoinedYear returns the calendar year the company reached unicorn status.
func (c Company) JoinedYear() int { return c.DateJoined.Year() }

// YearRange is an inclusive [Min, Max] founding-year range.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether year falls inside the inclusive range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Normalize returns the range with Min and Max swapped if inverted, so an
// invalid range is never representable past the API boundary.
func (r YearRange) Normalize() YearRange {
	if r.Min > r.Max {
		return YearRange{Min: r.Max, Max: r.Min}
	}
	return r
}
