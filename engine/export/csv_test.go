package export

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/herdstack/herd/engine/domain"
)

func subset() []domain.Company {
	joined := time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Company{
		{Name: "Acme", Industry: "Fintech", Country: "United States", YearFounded: 2010, DateJoined: joined, ValuationB: 5.123456, FundingB: 1.5, HasFunding: true, Investor: "Alpha"},
		{Name: "Acme", Industry: "Fintech", Country: "United States", YearFounded: 2010, DateJoined: joined, ValuationB: 5.123456, FundingB: 1.5, HasFunding: true, Investor: "Beta"},
		{Name: "Borealis", Industry: "Health", Country: "Canada", YearFounded: 2014, DateJoined: joined, ValuationB: 3, Investor: "Alpha"},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, subset()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Deduplicated: two distinct companies.
	if len(got) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(got))
	}
	if got[0].Name != "Acme" || got[1].Name != "Borealis" {
		t.Fatalf("company set mismatch: %+v", got)
	}
	if math.Abs(got[0].ValuationB-5.123456) > 1e-6 {
		t.Fatalf("valuation drifted: %g", got[0].ValuationB)
	}
	if !got[0].HasFunding || math.Abs(got[0].FundingB-1.5) > 1e-6 {
		t.Fatalf("funding drifted: %+v", got[0])
	}
}

func TestAbsentFundingSurvivesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, subset()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[1].HasFunding {
		t.Fatal("absent funding must not come back as zero funding")
	}
}

func TestWriteCSVColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, subset()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Company,Valuation ($B),Funding ($B),Industry,Country,Year Founded" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("empty input should fail")
	}
	bad := "Company,Valuation ($B),Funding ($B),Industry,Country,Year Founded\nAcme,notanumber,,X,Y,2010\n"
	if _, err := ReadCSV(strings.NewReader(bad)); err == nil {
		t.Fatal("non-numeric valuation should fail")
	}
}

func TestPreviewCapsAtLimit(t *testing.T) {
	rows := make([]domain.Company, PreviewLimit+50)
	for i := range rows {
		rows[i] = domain.Company{Name: "c", ValuationB: 1}
	}
	if got := Preview(rows); len(got) != PreviewLimit {
		t.Fatalf("expected %d rows, got %d", PreviewLimit, len(got))
	}
	short := rows[:10]
	if got := Preview(short); len(got) != 10 {
		t.Fatalf("short subsets pass through, got %d", len(got))
	}
}
