// Package dataset loads the unicorn-company CSV into the immutable working
// dataset: columns are coerced to billions, rows with missing valuation are
// dropped, and the multi-investor column is fanned out into one row per
// company–investor pair.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/pkg/fn"
)

// Accepted layouts for the Date Joined column.
var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

// Loader fetches and parses the dataset CSV.
type Loader struct {
	Client *http.Client
	Retry  fn.RetryOpts
	Logger *slog.Logger
}

// NewLoader creates a Loader with default HTTP client and retry policy.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Client: &http.Client{Timeout: 30 * time.Second},
		Retry:  fn.DefaultRetry,
		Logger: logger,
	}
}

// Load fetches the CSV at url and parses it into a Dataset. Transient HTTP
// failures are retried with backoff; a failure after retries is fatal for
// the session since no fallback data exists.
func (l *Loader) Load(ctx context.Context, url string) (*Dataset, error) {
	result := fn.Retry(ctx, l.Retry, func(ctx context.Context) fn.Result[[]byte] {
		return fn.FromPair(l.fetch(ctx, url))
	})
	body, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", url, err)
	}

	ds, err := Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", url, err)
	}
	ds.URL = url
	l.Logger.Info("dataset loaded",
		"url", url,
		"rows", ds.Len(),
		"dropped", ds.Dropped,
	)
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse reads the dataset CSV. The header row is matched case-insensitively
// so cosmetic renames in the source file don't break the loader.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"company", "valuation", "date joined", "industry", "country", "year founded"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	ds := &Dataset{LoadedAt: time.Now()}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		base, ok := parseRow(cols, row)
		if !ok {
			ds.Dropped++
			continue
		}

		// One working row per associated investor. A company with no listed
		// investors still gets one row so it participates in aggregates.
		investors := splitInvestors(field(cols, row, "select investors"))
		if len(investors) == 0 {
			ds.Rows = append(ds.Rows, base)
			continue
		}
		for _, inv := range investors {
			c := base
			c.Investor = inv
			ds.Rows = append(ds.Rows, c)
		}
	}
	return ds, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	// The investor column has appeared under both names in source exports.
	if _, ok := cols["select investors"]; !ok {
		if i, ok := cols["investors"]; ok {
			cols["select investors"] = i
		}
	}
	return cols
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRow converts one raw CSV row into a Company. Returns ok=false when
// the row must be dropped (missing valuation or otherwise invalid).
func parseRow(cols map[string]int, row []string) (domain.Company, bool) {
	valuation, ok := parseMoneyBillions(field(cols, row, "valuation"))
	if !ok {
		return domain.Company{}, false
	}

	joined, err := parseDate(field(cols, row, "date joined"))
	if err != nil {
		return domain.Company{}, false
	}

	year, err := strconv.Atoi(field(cols, row, "year founded"))
	if err != nil {
		return domain.Company{}, false
	}

	c := domain.Company{
		Name:        field(cols, row, "company"),
		Industry:    field(cols, row, "industry"),
		Country:     field(cols, row, "country"),
		City:        field(cols, row, "city"),
		YearFounded: year,
		DateJoined:  joined,
		ValuationB:  valuation,
	}
	if funding, ok := parseMoneyBillions(field(cols, row, "funding")); ok {
		c.FundingB = funding
		c.HasFunding = true
	}

	if err := domain.ValidateCompany(c); err != nil {
		return domain.Company{}, false
	}
	return c, true
}

// parseMoneyBillions coerces a currency cell to billions of dollars.
// Accepts raw dollar amounts ("180000000000") and abbreviated forms
// ("$180B", "$900M"). Non-numeric cells ("None", "") report ok=false and
// must be treated as absent, never as zero.
func parseMoneyBillions(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" || strings.EqualFold(s, "none") {
		return 0, false
	}

	scale := 1e-9 // raw dollars → billions
	switch {
	case strings.HasSuffix(s, "B"):
		s, scale = strings.TrimSuffix(s, "B"), 1
	case strings.HasSuffix(s, "M"):
		s, scale = strings.TrimSuffix(s, "M"), 1e-3
	case strings.HasSuffix(s, "K"):
		s, scale = strings.TrimSuffix(s, "K"), 1e-6
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * scale, true
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func splitInvestors(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
