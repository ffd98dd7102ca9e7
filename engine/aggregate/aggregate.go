// Package aggregate computes the dashboard KPIs and grouped series from a
// filtered subset of the working dataset.
//
// Every per-company statistic is computed on the deduplicated-by-name view
// (first row in original order wins) so investor fan-out never double
// counts a company. That rule deliberately includes the average founding
// year: the year is constant per company, so deduplicating keeps the KPI
// set consistent without changing the value.
package aggregate

import (
	"sort"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/pkg/fn"
)

// TopCountriesLimit caps the countries-by-unicorn-count ranking.
const TopCountriesLimit = 15

// KPIs are the four scalar headline metrics.
type KPIs struct {
	Companies       int     `json:"companies"`
	TotalValuationB float64 `json:"total_valuation_b"`
	AvgValuationB   float64 `json:"avg_valuation_b"`
	AvgYearFounded  float64 `json:"avg_year_founded"`
}

// YearValuation is one point of the valuation-over-time series.
type YearValuation struct {
	Year            int     `json:"year"`
	TotalValuationB float64 `json:"total_valuation_b"`
}

// CountryCount is one bar of the top-countries chart.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// IndustryCount is one bar of the industry-distribution chart.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
}

// ScatterPoint is one funding-vs-valuation point. Companies without
// funding data are excluded upstream, never plotted at zero.
type ScatterPoint struct {
	FundingB   float64 `json:"funding_b"`
	ValuationB float64 `json:"valuation_b"`
	Industry   string  `json:"industry"`
	Company    string  `json:"company"`
	Country    string  `json:"country"`
}

// Fallback carries a series together with whether the designed
// empty-subset fallback fired, so the presentation layer can annotate the
// chart with the substitution and its point count.
type Fallback[T any] struct {
	Points          []T  `json:"points"`
	FromFullDataset bool `json:"from_full_dataset"`
	Count           int  `json:"count"`
}

// View bundles everything the dashboard renders for one selection.
type View struct {
	KPIs                 KPIs                    `json:"kpis"`
	ValuationByYear      Fallback[YearValuation] `json:"valuation_by_year"`
	TopCountries         []CountryCount          `json:"top_countries"`
	IndustryDistribution []IndustryCount         `json:"industry_distribution"`
	Scatter              Fallback[ScatterPoint]  `json:"scatter"`
}

// Compute derives the full dashboard view from subset. The two time/scatter
// series fall back to the unfiltered dataset when empty; KPIs, country and
// industry counts have no fallback and stay empty. Pure function: calling
// it twice on the same inputs yields identical results.
func Compute(subset []domain.Company, full *dataset.Dataset) View {
	companies := Dedupe(subset)
	return View{
		KPIs:                 computeKPIs(companies),
		ValuationByYear:      withFallback(subset, full.Rows, valuationByYear),
		TopCountries:         topCountries(companies),
		IndustryDistribution: industryDistribution(companies),
		Scatter:              withFallback(subset, full.Rows, scatterPairs),
	}
}

// Dedupe reduces rows to one per distinct company name. The first row in
// original order is canonical; the raw data does not promise which row
// that is, so "first in file order" is the documented tie-break.
func Dedupe(rows []domain.Company) []domain.Company {
	return fn.UniqueBy(rows, func(c domain.Company) string { return c.Name })
}

// withFallback computes a series over the subset and, when the result is
// empty, recomputes it over the full dataset instead. This is the single
// reusable fallback policy shared by every chart that defines one.
func withFallback[T any](subset, full []domain.Company, series func([]domain.Company) []T) Fallback[T] {
	points := series(subset)
	if len(points) > 0 {
		return Fallback[T]{Points: points, Count: len(points)}
	}
	points = series(full)
	return Fallback[T]{Points: points, FromFullDataset: true, Count: len(points)}
}

func computeKPIs(companies []domain.Company) KPIs {
	valuation := func(c domain.Company) float64 { return c.ValuationB }
	return KPIs{
		Companies:       len(companies),
		TotalValuationB: fn.SumBy(companies, valuation),
		AvgValuationB:   fn.MeanBy(companies, valuation),
		AvgYearFounded:  fn.MeanBy(companies, func(c domain.Company) float64 { return float64(c.YearFounded) }),
	}
}

func valuationByYear(rows []domain.Company) []YearValuation {
	companies := Dedupe(rows)
	groups := fn.GroupBy(companies, domain.Company.JoinedYear)
	years := fn.GroupKeys(companies, domain.Company.JoinedYear)
	sort.Ints(years)

	return fn.Map(years, func(year int) YearValuation {
		return YearValuation{
			Year:            year,
			TotalValuationB: fn.SumBy(groups[year], func(c domain.Company) float64 { return c.ValuationB }),
		}
	})
}

func topCountries(companies []domain.Company) []CountryCount {
	counts := rankedCounts(companies, func(c domain.Company) string { return c.Country })
	if len(counts) > TopCountriesLimit {
		counts = counts[:TopCountriesLimit]
	}
	return fn.Map(counts, func(kc keyCount) CountryCount {
		return CountryCount{Country: kc.key, Count: kc.count}
	})
}

func industryDistribution(companies []domain.Company) []IndustryCount {
	counts := rankedCounts(companies, func(c domain.Company) string { return c.Industry })
	return fn.Map(counts, func(kc keyCount) IndustryCount {
		return IndustryCount{Industry: kc.key, Count: kc.count}
	})
}

func scatterPairs(rows []domain.Company) []ScatterPoint {
	companies := fn.Filter(Dedupe(rows), func(c domain.Company) bool { return c.HasFunding })
	return fn.Map(companies, func(c domain.Company) ScatterPoint {
		return ScatterPoint{
			FundingB:   c.FundingB,
			ValuationB: c.ValuationB,
			Industry:   c.Industry,
			Company:    c.Name,
			Country:    c.Country,
		}
	})
}

type keyCount struct {
	key   string
	count int
}

// rankedCounts counts distinct companies per key and orders descending.
// The stable sort breaks ties by first-encountered order in the input.
func rankedCounts(companies []domain.Company, key func(domain.Company) string) []keyCount {
	groups := fn.GroupBy(companies, key)
	keys := fn.GroupKeys(companies, key)

	counts := fn.Map(keys, func(k string) keyCount {
		return keyCount{key: k, count: len(groups[k])}
	})
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	return counts
}
