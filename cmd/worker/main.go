// Command worker serves dashboard queries over NATS request/reply: it
// loads the dataset once, then answers each Selection request with the
// recomputed view.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/engine/filter"
	"github.com/herdstack/herd/engine/relation"
	"github.com/herdstack/herd/engine/session"
	"github.com/herdstack/herd/pkg/metrics"
	"github.com/herdstack/herd/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// QuerySubject is the NATS subject for dashboard queries.
const QuerySubject = "herd.query"

var met = metrics.New()

var (
	mQueries    = met.Counter("herd_worker_queries_total", "Dashboard queries answered")
	mQueryDur   = met.Histogram("herd_worker_query_seconds", "Per-query recompute time", nil)
	mGraphWarns = met.Counter("herd_worker_graph_warnings_total", "Graph builds downgraded to a warning")
)

// QueryRequest is the JSON body of one dashboard query.
type QueryRequest struct {
	Selection filter.Selection `json:"selection"`
	TopN      int              `json:"top_n,omitempty"`
}

// QueryResponse mirrors session.View plus the subset size.
type QueryResponse struct {
	View       session.View `json:"view"`
	SubsetRows int          `json:"subset_rows"`
}

// queryHandler answers one decoded query. Absent fields get the same
// defaults the HTTP boundary applies: a zero year range means the
// dataset's own bounds, not exclude-everything, and a missing topN means
// DefaultTopN.
func queryHandler(ds *dataset.Dataset) func(context.Context, QueryRequest) QueryResponse {
	bounds := filter.OptionsFor(ds).Years
	return func(ctx context.Context, req QueryRequest) QueryResponse {
		start := time.Now()
		sel := req.Selection
		if sel.Years == (domain.YearRange{}) {
			sel.Years = bounds
		}
		topN := req.TopN
		if topN <= 0 {
			topN = relation.DefaultTopN
		}
		view := session.Recompute(ctx, ds, sel, topN)
		mQueries.Inc()
		mQueryDur.Observe(time.Since(start).Seconds())
		if view.GraphWarning != "" {
			mGraphWarns.Inc()
		}
		return QueryResponse{View: view, SubsetRows: len(view.Subset)}
	}
}

func main() {
	var (
		natsURL = flag.String("nats", nats.DefaultURL, "NATS server URL")
		dataURL = flag.String("data", "", "dataset CSV URL (required)")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dataURL == "" {
		log.Error("missing -data URL")
		os.Exit(1)
	}

	cache := dataset.NewCache(dataset.NewLoader(log))
	ds, err := cache.Get(ctx, *dataURL)
	if err != nil {
		log.Error("dataset load failed", "error", err)
		os.Exit(1)
	}

	nc, err := nats.Connect(*natsURL, nats.Name("herd-worker"))
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()

	sub, err := natsutil.Respond(nc, QuerySubject, queryHandler(ds))
	if err != nil {
		log.Error("subscribe failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("worker ready", "subject", QuerySubject, "rows", ds.Len())
	<-ctx.Done()
	log.Info("worker shutting down")
}
