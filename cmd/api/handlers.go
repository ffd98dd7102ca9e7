package main

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/herdstack/herd/engine/aggregate"
	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/engine/export"
	"github.com/herdstack/herd/engine/filter"
	"github.com/herdstack/herd/engine/relation"
	"github.com/herdstack/herd/engine/session"
	"github.com/herdstack/herd/pkg/metrics"
)

// server carries the per-session state shared by all handlers: the
// immutable dataset and its precomputed filter options.
type server struct {
	ds     *dataset.Dataset
	opts   filter.Options
	logger *slog.Logger

	mRecompute *metrics.Histogram
	mFallbacks *metrics.Counter
	mGraphWarn *metrics.Counter
}

func newServer(ds *dataset.Dataset, logger *slog.Logger, met *metrics.Registry) *server {
	return &server{
		ds:         ds,
		opts:       filter.OptionsFor(ds),
		logger:     logger,
		mRecompute: met.Histogram("herd_recompute_seconds", "Filter-aggregate-graph recompute duration", nil),
		mFallbacks: met.Counter("herd_fallbacks_total", "Empty-subset fallbacks to the full dataset"),
		mGraphWarn: met.Counter("herd_graph_warnings_total", "Graph builds downgraded to a warning"),
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "rows": s.ds.Len()})
}

func (s *server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.opts)
}

// selectionFromQuery builds the filter state from repeated query params.
// Absent year bounds default to the dataset's own bounds, and an inverted
// range is normalized, so an invalid range is not representable here.
func (s *server) selectionFromQuery(r *http.Request) filter.Selection {
	q := r.URL.Query()
	sel := filter.Selection{
		Industries: q["industry"],
		Countries:  q["country"],
		Companies:  q["company"],
		Years:      s.opts.Years,
	}
	if v, err := strconv.Atoi(q.Get("year_min")); err == nil {
		sel.Years.Min = v
	}
	if v, err := strconv.Atoi(q.Get("year_max")); err == nil {
		sel.Years.Max = v
	}
	sel.Years = sel.Years.Normalize()
	return sel
}

func topNFromQuery(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("top_n"))
	if err != nil || n <= 0 {
		return relation.DefaultTopN
	}
	if n > relation.MaxTopN {
		return relation.MaxTopN
	}
	return n
}

func (s *server) recompute(r *http.Request) session.View {
	start := time.Now()
	view := session.Recompute(r.Context(), s.ds, s.selectionFromQuery(r), topNFromQuery(r))
	s.mRecompute.Observe(time.Since(start).Seconds())

	if view.Aggregates.ValuationByYear.FromFullDataset {
		s.mFallbacks.Inc()
	}
	if view.Aggregates.Scatter.FromFullDataset {
		s.mFallbacks.Inc()
	}
	if view.GraphWarning != "" {
		s.mGraphWarn.Inc()
		s.logger.Warn("graph build failed", "warning", view.GraphWarning)
	}
	return view
}

// DashboardResponse is the JSON payload for GET /api/dashboard.
type DashboardResponse struct {
	KPIs         KPIBlock                                    `json:"kpis"`
	Valuation    aggregate.Fallback[aggregate.YearValuation] `json:"valuation_by_year"`
	TopCountries []aggregate.CountryCount                    `json:"top_countries"`
	Industries   []aggregate.IndustryCount                   `json:"industry_distribution"`
	Scatter      aggregate.Fallback[aggregate.ScatterPoint]  `json:"scatter"`
	GraphWarning string                                      `json:"graph_warning,omitempty"`
}

// KPIBlock rounds the headline scalars the way the dashboard displays
// them: valuations to one/two decimals, founding year to an integer.
type KPIBlock struct {
	Companies       int     `json:"companies"`
	TotalValuationB float64 `json:"total_valuation_b"`
	AvgValuationB   float64 `json:"avg_valuation_b"`
	AvgYearFounded  int     `json:"avg_year_founded"`
}

func kpiBlock(k aggregate.KPIs) KPIBlock {
	return KPIBlock{
		Companies:       k.Companies,
		TotalValuationB: math.Round(k.TotalValuationB*10) / 10,
		AvgValuationB:   math.Round(k.AvgValuationB*100) / 100,
		AvgYearFounded:  int(math.Round(k.AvgYearFounded)),
	}
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.recompute(r)
	writeJSON(w, DashboardResponse{
		KPIs:         kpiBlock(view.Aggregates.KPIs),
		Valuation:    view.Aggregates.ValuationByYear,
		TopCountries: view.Aggregates.TopCountries,
		Industries:   view.Aggregates.IndustryDistribution,
		Scatter:      view.Aggregates.Scatter,
		GraphWarning: view.GraphWarning,
	})
}

// GraphResponse is the JSON payload for GET /api/graph.
type GraphResponse struct {
	Graph   relation.Graph `json:"graph"`
	Warning string         `json:"warning,omitempty"`
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	view := s.recompute(r)
	writeJSON(w, GraphResponse{Graph: view.Graph, Warning: view.GraphWarning})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	subset := filter.Apply(s.ds, s.selectionFromQuery(r))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="unicorns.csv"`)
	if err := export.WriteCSV(w, subset); err != nil {
		s.logger.Error("export failed", "err", err)
	}
}

// PreviewResponse is the JSON payload for GET /api/preview.
type PreviewResponse struct {
	Rows  []domain.Company `json:"rows"`
	Total int              `json:"total"`
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	subset := filter.Apply(s.ds, s.selectionFromQuery(r))
	writeJSON(w, PreviewResponse{Rows: export.Preview(subset), Total: len(subset)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
