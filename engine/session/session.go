// Package session owns the per-session filter state and runs the full
// filter → aggregate → graph recomputation pipeline against the immutable
// loaded dataset.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/herdstack/herd/engine/aggregate"
	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/engine/filter"
	"github.com/herdstack/herd/engine/relation"
	"github.com/herdstack/herd/pkg/fn"
)

// View is the result of one full recomputation: the filtered subset, every
// aggregate, and the relationship graph. A graph failure is downgraded to
// GraphWarning so the rest of the dashboard stays usable.
type View struct {
	Subset       []domain.Company `json:"-"`
	Aggregates   aggregate.View   `json:"aggregates"`
	Graph        relation.Graph   `json:"graph"`
	GraphWarning string           `json:"graph_warning,omitempty"`
}

// Recompute runs the pipeline once for the given selection. Stateless:
// every call derives fresh views from the dataset, so two calls with the
// same inputs produce the same View.
func Recompute(ctx context.Context, ds *dataset.Dataset, sel filter.Selection, topN int) View {
	filterStage := fn.TracedStage("pipeline.filter", fn.MapStage(func(sel filter.Selection) []domain.Company {
		return filter.Apply(ds, sel)
	}))
	aggregateStage := fn.TracedStage("pipeline.aggregate", fn.MapStage(func(subset []domain.Company) aggregate.View {
		return aggregate.Compute(subset, ds)
	}))
	graphStage := fn.TracedStage("pipeline.graph", func(_ context.Context, subset []domain.Company) fn.Result[relation.Graph] {
		return relation.Build(subset, topN)
	})

	// Filtering and aggregation cannot fail; the graph stage can, and its
	// failure must not abort the view.
	subset := filterStage(ctx, sel).UnwrapOr(nil)
	view := View{
		Subset:     subset,
		Aggregates: aggregateStage(ctx, subset).UnwrapOr(aggregate.View{}),
	}
	if g, err := graphStage(ctx, subset).Unwrap(); err != nil {
		view.GraphWarning = err.Error()
	} else {
		view.Graph = g
	}
	return view
}

// Session holds one user's filter state across interactions. The dataset
// reference is shared and read-only; only the selection mutates, guarded
// for callers that serve a session from concurrent handlers.
type Session struct {
	ID      string
	Dataset *dataset.Dataset
	TopN    int

	mu  sync.Mutex
	sel filter.Selection
}

// New creates a Session whose initial selection is "everything": empty set
// dimensions and the dataset's full founding-year bounds.
func New(ds *dataset.Dataset) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Dataset: ds,
		TopN:    relation.DefaultTopN,
		sel:     filter.Selection{Years: filter.OptionsFor(ds).Years},
	}
}

// Selection returns the current filter state.
func (s *Session) Selection() filter.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SetSelection replaces the filter state. The year range is normalized so
// an inverted range never reaches the pipeline.
func (s *Session) SetSelection(sel filter.Selection) {
	sel.Years = sel.Years.Normalize()
	s.mu.Lock()
	s.sel = sel
	s.mu.Unlock()
}

// Recompute runs the pipeline with the session's current selection.
func (s *Session) Recompute(ctx context.Context) View {
	return Recompute(ctx, s.Dataset, s.Selection(), s.TopN)
}
