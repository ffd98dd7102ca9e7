package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/herdstack/herd/pkg/fn"
)

const sampleCSV = `Company,Valuation,Date Joined,Industry,City,Country,Continent,Year Founded,Funding,Select Investors
Bytedance,180000000000,2017-04-07,Artificial intelligence,Beijing,China,Asia,2012,8000000000,"Sequoia Capital China, SIG Asia Investments, Sina Weibo"
SpaceX,100000000000,2012-12-01,Other,Hawthorne,United States,North America,2002,7000000000,"Founders Fund, Draper Fisher Jurvetson"
Stripe,95000000000,2014-01-23,Fintech,San Francisco,United States,North America,2010,None,"Khosla Ventures, LowercaseCapital"
Broken,,2019-01-01,Fintech,London,United Kingdom,Europe,2015,1000000000,"Index Ventures"
`

func TestParseFansOutInvestors(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// 3 + 2 + 2 working rows; the row with missing valuation is dropped.
	if ds.Len() != 7 {
		t.Fatalf("expected 7 rows, got %d", ds.Len())
	}
	if ds.Dropped != 1 {
		t.Fatalf("expected 1 dropped row, got %d", ds.Dropped)
	}

	first := ds.Rows[0]
	if first.Name != "Bytedance" || first.Investor != "Sequoia Capital China" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.ValuationB != 180 {
		t.Fatalf("valuation should be in billions, got %g", first.ValuationB)
	}
	if first.JoinedYear() != 2017 {
		t.Fatalf("expected joined year 2017, got %d", first.JoinedYear())
	}
}

func TestParseFundingAbsentNotZero(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, row := range ds.Rows {
		switch row.Name {
		case "Stripe":
			if row.HasFunding {
				t.Fatal("non-numeric funding must be absent, not zero")
			}
		case "SpaceX":
			if !row.HasFunding || row.FundingB != 7 {
				t.Fatalf("expected SpaceX funding 7B, got %+v", row)
			}
		}
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("Company,Industry\nAcme,Fintech\n"))
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestParseMoneyBillions(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"180000000000", 180, true},
		{"$3B", 3, true},
		{"$900M", 0.9, true},
		{"$500K", 0.0005, true},
		{"None", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseMoneyBillions(tt.in)
		if ok != tt.wantOK {
			t.Errorf("parseMoneyBillions(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseMoneyBillions(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, in := range []string{"2017-04-07", "4/7/2017", "04/07/2017"} {
		got, err := parseDate(in)
		if err != nil {
			t.Fatalf("parseDate(%q): %v", in, err)
		}
		want := time.Date(2017, 4, 7, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("parseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	l := NewLoader(nil)
	l.Retry = fn.RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	ds, err := l.Load(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 7 || ds.URL != srv.URL {
		t.Fatalf("unexpected dataset: len=%d url=%s", ds.Len(), ds.URL)
	}
}

func TestLoadFatalAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLoader(nil)
	l.Retry = fn.RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	if _, err := l.Load(context.Background(), srv.URL); err == nil {
		t.Fatal("expected load failure")
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cache := NewCache(NewLoader(nil))
	for i := 0; i < 3; i++ {
		ds, err := cache.Get(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ds.Len() != 7 {
			t.Fatalf("unexpected len %d", ds.Len())
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", calls.Load())
	}
}
