// Package export produces the downloadable views of a filtered subset:
// a deduplicated CSV of company fundamentals and a raw row preview.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/herdstack/herd/engine/aggregate"
	"github.com/herdstack/herd/engine/domain"
)

// Columns of the CSV export, in order.
var header = []string{"Company", "Valuation ($B)", "Funding ($B)", "Industry", "Country", "Year Founded"}

// WriteCSV writes the deduplicated subset restricted to the export columns.
// Companies without funding data get an empty cell, preserving the
// absent/zero distinction through a round trip.
func WriteCSV(w io.Writer, subset []domain.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range aggregate.Dedupe(subset) {
		funding := ""
		if c.HasFunding {
			funding = strconv.FormatFloat(c.FundingB, 'g', -1, 64)
		}
		rec := []string{
			c.Name,
			strconv.FormatFloat(c.ValuationB, 'g', -1, 64),
			funding,
			c.Industry,
			c.Country,
			strconv.Itoa(c.YearFounded),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", c.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV previously produced by WriteCSV.
func ReadCSV(r io.Reader) ([]domain.Company, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("export is empty")
	}

	var out []domain.Company
	for _, rec := range rows[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row has %d columns, want %d", len(rec), len(header))
		}
		valuation, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse valuation for %s: %w", rec[0], err)
		}
		year, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("parse year for %s: %w", rec[0], err)
		}
		c := domain.Company{
			Name:        rec[0],
			ValuationB:  valuation,
			Industry:    rec[3],
			Country:     rec[4],
			YearFounded: year,
		}
		if rec[2] != "" {
			funding, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return nil, fmt.Errorf("parse funding for %s: %w", rec[0], err)
			}
			c.FundingB = funding
			c.HasFunding = true
		}
		out = append(out, c)
	}
	return out, nil
}

// PreviewLimit caps the raw preview.
const PreviewLimit = 100

// Preview returns the first PreviewLimit raw rows of the filtered subset,
// unmodified (no deduplication).
func Preview(subset []domain.Company) []domain.Company {
	if len(subset) <= PreviewLimit {
		return subset
	}
	return subset[:PreviewLimit]
}
