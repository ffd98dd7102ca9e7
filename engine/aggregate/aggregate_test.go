package aggregate

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
)

func day(year, month, d int) time.Time {
	return time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{Rows: []domain.Company{
		// Acme appears three times via investor fan-out.
		{Name: "Acme", Industry: "Fintech", Country: "United States", YearFounded: 2010, DateJoined: day(2019, 4, 1), ValuationB: 5, FundingB: 1, HasFunding: true, Investor: "Alpha"},
		{Name: "Acme", Industry: "Fintech", Country: "United States", YearFounded: 2010, DateJoined: day(2019, 4, 1), ValuationB: 5, FundingB: 1, HasFunding: true, Investor: "Beta"},
		{Name: "Acme", Industry: "Fintech", Country: "United States", YearFounded: 2010, DateJoined: day(2019, 4, 1), ValuationB: 5, FundingB: 1, HasFunding: true, Investor: "Gamma"},
		{Name: "Borealis", Industry: "Health", Country: "Canada", YearFounded: 2014, DateJoined: day(2020, 1, 15), ValuationB: 3, Investor: "Alpha"},
		{Name: "Chirp", Industry: "Fintech", Country: "United States", YearFounded: 2016, DateJoined: day(2020, 8, 3), ValuationB: 2, FundingB: 0.5, HasFunding: true, Investor: "Delta"},
	}}
}

func TestDedupeDoesNotDoubleCount(t *testing.T) {
	ds := testDataset()
	v := Compute(ds.Rows, ds)

	if v.KPIs.Companies != 3 {
		t.Fatalf("expected 3 distinct companies, got %d", v.KPIs.Companies)
	}
	// Acme must contribute 5, not 15, despite three investor rows.
	if v.KPIs.TotalValuationB != 10 {
		t.Fatalf("expected total valuation 10, got %g", v.KPIs.TotalValuationB)
	}
	wantAvg := 10.0 / 3.0
	if math.Abs(v.KPIs.AvgValuationB-wantAvg) > 1e-9 {
		t.Fatalf("expected avg valuation %g, got %g", wantAvg, v.KPIs.AvgValuationB)
	}
	wantYear := (2010.0 + 2014.0 + 2016.0) / 3.0
	if math.Abs(v.KPIs.AvgYearFounded-wantYear) > 1e-9 {
		t.Fatalf("expected avg year %g, got %g", wantYear, v.KPIs.AvgYearFounded)
	}
}

func TestValuationByYearSortedAscending(t *testing.T) {
	ds := testDataset()
	v := Compute(ds.Rows, ds)

	want := []YearValuation{
		{Year: 2019, TotalValuationB: 5},
		{Year: 2020, TotalValuationB: 5},
	}
	if !reflect.DeepEqual(v.ValuationByYear.Points, want) {
		t.Fatalf("valuation by year = %+v, want %+v", v.ValuationByYear.Points, want)
	}
	if v.ValuationByYear.FromFullDataset {
		t.Fatal("fallback should not fire on a non-empty subset")
	}
}

func TestFallbackFiresOnlyForDefinedAggregates(t *testing.T) {
	ds := testDataset()
	v := Compute(nil, ds)

	full := Compute(ds.Rows, ds)
	if !v.ValuationByYear.FromFullDataset {
		t.Fatal("valuation-by-year fallback should fire")
	}
	if !reflect.DeepEqual(v.ValuationByYear.Points, full.ValuationByYear.Points) {
		t.Fatal("fallback should equal the full-dataset series")
	}
	if !v.Scatter.FromFullDataset {
		t.Fatal("scatter fallback should fire")
	}
	if !reflect.DeepEqual(v.Scatter.Points, full.Scatter.Points) {
		t.Fatal("scatter fallback should equal the full-dataset series")
	}

	// No fallback is defined for KPIs, countries, or industries.
	if v.KPIs.Companies != 0 || v.KPIs.TotalValuationB != 0 {
		t.Fatalf("KPIs should be zero for an empty subset: %+v", v.KPIs)
	}
	if len(v.TopCountries) != 0 {
		t.Fatalf("top countries should be empty, got %v", v.TopCountries)
	}
	if len(v.IndustryDistribution) != 0 {
		t.Fatalf("industry distribution should be empty, got %v", v.IndustryDistribution)
	}
}

func TestScatterExcludesAbsentFunding(t *testing.T) {
	ds := testDataset()
	v := Compute(ds.Rows, ds)

	if len(v.Scatter.Points) != 2 {
		t.Fatalf("expected 2 scatter points, got %d", len(v.Scatter.Points))
	}
	for _, p := range v.Scatter.Points {
		if p.Company == "Borealis" {
			t.Fatal("company without funding must not appear in the scatter")
		}
	}
	if v.Scatter.Count != 2 {
		t.Fatalf("scatter count = %d", v.Scatter.Count)
	}
}

func TestTopCountriesRankingAndTieBreak(t *testing.T) {
	ds := testDataset()
	v := Compute(ds.Rows, ds)

	want := []CountryCount{
		{Country: "United States", Count: 2},
		{Country: "Canada", Count: 1},
	}
	if !reflect.DeepEqual(v.TopCountries, want) {
		t.Fatalf("top countries = %+v, want %+v", v.TopCountries, want)
	}
}

func TestTopCountriesTruncatesAtLimit(t *testing.T) {
	var rows []domain.Company
	for i := 0; i < TopCountriesLimit+5; i++ {
		rows = append(rows, domain.Company{
			Name:        string(rune('A' + i)),
			Country:     "Country" + string(rune('A'+i)),
			Industry:    "X",
			YearFounded: 2010,
			DateJoined:  day(2020, 1, 1),
			ValuationB:  1,
		})
	}
	ds := &dataset.Dataset{Rows: rows}
	v := Compute(rows, ds)
	if len(v.TopCountries) != TopCountriesLimit {
		t.Fatalf("expected %d countries, got %d", TopCountriesLimit, len(v.TopCountries))
	}
}

func TestIndustryDistributionNoTruncation(t *testing.T) {
	ds := testDataset()
	v := Compute(ds.Rows, ds)

	want := []IndustryCount{
		{Industry: "Fintech", Count: 2},
		{Industry: "Health", Count: 1},
	}
	if !reflect.DeepEqual(v.IndustryDistribution, want) {
		t.Fatalf("industry distribution = %+v, want %+v", v.IndustryDistribution, want)
	}
}

func TestComputeIdempotent(t *testing.T) {
	ds := testDataset()
	first := Compute(ds.Rows, ds)
	second := Compute(ds.Rows, ds)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Compute must be a pure function of its inputs")
	}
}
