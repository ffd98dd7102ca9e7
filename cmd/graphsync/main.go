// Command graphsync builds the top-N investor–company graph from the
// dataset (optionally filtered) and persists it into Neo4j for exploration.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/engine/filter"
	"github.com/herdstack/herd/engine/relation"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func main() {
	var (
		dataURL    = flag.String("data", "", "dataset CSV URL (required)")
		neo4jURL   = flag.String("neo4j", "neo4j://localhost:7687", "Neo4j bolt URL")
		neo4jUser  = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass  = flag.String("neo4j-pass", "", "Neo4j password")
		topN       = flag.Int("top-n", relation.DefaultTopN, "number of top investors to keep")
		industries = flag.String("industries", "", "comma-separated industry filter")
		countries  = flag.String("countries", "", "comma-separated country filter")
	)
	flag.Parse()

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dataURL == "" {
		log.Error("missing -data URL")
		os.Exit(1)
	}

	ds, err := dataset.NewLoader(log).Load(ctx, *dataURL)
	if err != nil {
		log.Error("dataset load failed", "error", err)
		os.Exit(1)
	}

	sel := filter.Selection{
		Industries: splitList(*industries),
		Countries:  splitList(*countries),
		Years:      domain.YearRange{Min: domain.MinYearFounded, Max: domain.MaxYearFounded},
	}
	subset := filter.Apply(ds, sel)

	g, err := relation.Build(subset, *topN).Unwrap()
	if err != nil {
		log.Error("graph build failed", "error", err)
		os.Exit(1)
	}
	log.Info("graph built", "nodes", len(g.Nodes), "edges", len(g.Edges))

	driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
	if err != nil {
		log.Error("neo4j connect failed", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)

	store := relation.NewStore(driver)
	if err := store.Sync(ctx, g); err != nil {
		log.Error("graph sync failed", "error", err)
		os.Exit(1)
	}
	nodes, edges, err := store.Counts(ctx)
	if err != nil {
		log.Warn("post-sync count failed", "error", err)
	} else {
		log.Info("graph synced", "nodes", nodes, "edges", edges)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
