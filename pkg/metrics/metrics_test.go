package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("herd_test_total", "test counter")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Fatalf("counter = %d", c.Value())
	}

	g := r.Gauge("herd_test_gauge", "test gauge")
	g.Set(5)
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("gauge = %d", g.Value())
	}

	out := r.Render()
	if !strings.Contains(out, "# TYPE herd_test_total counter") {
		t.Fatalf("missing counter type line:\n%s", out)
	}
	if !strings.Contains(out, "herd_test_total 3") {
		t.Fatalf("missing counter value:\n%s", out)
	}
}

func TestSameNameReturnsSameMetric(t *testing.T) {
	r := New()
	a := r.Counter("dup_total", "")
	b := r.Counter("dup_total", "")
	if a != b {
		t.Fatal("same name should return the same counter")
	}
}

func TestLabeledCounters(t *testing.T) {
	r := New()
	r.Counter(WithLabels("herd_rows_total", "kind", "kept"), "rows").Add(10)
	r.Counter(WithLabels("herd_rows_total", "kind", "dropped"), "rows").Add(2)

	out := r.Render()
	if !strings.Contains(out, `herd_rows_total{kind="dropped"} 2`) {
		t.Fatalf("missing dropped line:\n%s", out)
	}
	if !strings.Contains(out, `herd_rows_total{kind="kept"} 10`) {
		t.Fatalf("missing kept line:\n%s", out)
	}
	if strings.Count(out, "# TYPE herd_rows_total counter") != 1 {
		t.Fatalf("type line should render once:\n%s", out)
	}
}

func TestHistogramRendersCumulative(t *testing.T) {
	r := New()
	h := r.Histogram("herd_duration_seconds", "durations", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	if !strings.Contains(out, `herd_duration_seconds_bucket{le="0.1"} 1`) {
		t.Fatalf("wrong 0.1 bucket:\n%s", out)
	}
	if !strings.Contains(out, `herd_duration_seconds_bucket{le="1"} 2`) {
		t.Fatalf("wrong 1 bucket:\n%s", out)
	}
	if !strings.Contains(out, `herd_duration_seconds_bucket{le="+Inf"} 3`) {
		t.Fatalf("wrong +Inf bucket:\n%s", out)
	}
	if !strings.Contains(out, "herd_duration_seconds_count 3") {
		t.Fatalf("wrong count:\n%s", out)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	r := New()
	r.Counter("served_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "served_total 1") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
