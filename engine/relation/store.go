package relation

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store persists a built relationship graph into Neo4j so it can be
// explored outside the dashboard. The dashboard itself never reads from
// Neo4j; this is a one-way sync used by cmd/graphsync.
type Store struct {
	driver neo4j.DriverWithContext
}

// NewStore creates a Store.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// Sync replaces the persisted graph with g in a single transaction:
// clear, merge nodes, merge edges. The INVESTS_IN relationship is stored
// directed investor→company but queried undirected.
func (s *Store) Sync(ctx context.Context, g Graph) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (n) WHERE n:Investor OR n:Company DETACH DELETE n`, nil); err != nil {
			return nil, fmt.Errorf("clear graph: %w", err)
		}

		for _, n := range g.Nodes {
			var cypher string
			props := map[string]any{"id": n.ID, "label": n.Label}
			switch n.Kind {
			case KindInvestor:
				cypher = `MERGE (n:Investor {id: $id}) SET n.label = $label, n.companies = $companies`
				props["companies"] = n.Companies
			case KindCompany:
				cypher = `MERGE (n:Company {id: $id}) SET n.label = $label, n.valuation_b = $valuation, n.country = $country`
				props["valuation"] = n.ValuationB
				props["country"] = n.Country
			default:
				return nil, fmt.Errorf("unknown node kind %q", n.Kind)
			}
			if _, err := tx.Run(ctx, cypher, props); err != nil {
				return nil, fmt.Errorf("merge node %s: %w", n.ID, err)
			}
		}

		for _, e := range g.Edges {
			cypher := `MATCH (i:Investor {id: $investor}), (c:Company {id: $company})
				 MERGE (i)-[:INVESTS_IN]->(c)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"investor": InvestorID(e.Investor),
				"company":  CompanyID(e.Company),
			}); err != nil {
				return nil, fmt.Errorf("merge edge %s->%s: %w", e.Investor, e.Company, err)
			}
		}
		return nil, nil
	})
	return err
}

// Counts returns the persisted node and edge counts, for post-sync checks.
func (s *Store) Counts(ctx context.Context) (nodes, edges int64, err error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (n) WHERE n:Investor OR n:Company
		 OPTIONAL MATCH (:Investor)-[r:INVESTS_IN]->(:Company)
		 RETURN count(DISTINCT n) AS nodes, count(DISTINCT r) AS edges`, nil)
	if err != nil {
		return 0, 0, err
	}
	if !result.Next(ctx) {
		return 0, 0, fmt.Errorf("no count row returned")
	}
	rec := result.Record()
	if v, ok := rec.Get("nodes"); ok {
		nodes, _ = v.(int64)
	}
	if v, ok := rec.Get("edges"); ok {
		edges, _ = v.(int64)
	}
	return nodes, edges, nil
}
