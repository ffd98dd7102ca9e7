package domain

import (
	"fmt"
	"strings"
)

// Founding-year sanity bounds. The dataset's oldest entry was founded in
// 1919; anything outside these bounds is a parse artifact, not a company.
const (
	MinYearFounded = 1900
	MaxYearFounded = 2100
)

// ValidateCompany checks a parsed row before it enters the working dataset.
// A row with missing valuation is a load-time drop, not a hard failure, so
// loaders typically log ErrMissingValuation rows and continue.
func ValidateCompany(c Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", c.Name, ErrMissingCompany)
	}
	if c.ValuationB <= 0 {
		return NewValidationError("valuation", fmt.Sprintf("%g", c.ValuationB), ErrMissingValuation)
	}
	if c.YearFounded < MinYearFounded || c.YearFounded > MaxYearFounded {
		return NewValidationError("year_founded", fmt.Sprintf("%d", c.YearFounded), ErrYearOutOfRange)
	}
	if c.DateJoined.IsZero() {
		return NewValidationError("date_joined", "", ErrMissingDate)
	}
	return nil
}
