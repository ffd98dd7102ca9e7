package relation

import (
	"sort"

	"github.com/herdstack/herd/engine/domain"
	"github.com/herdstack/herd/pkg/fn"
)

// Bounds on the top-N investor parameter.
const (
	DefaultTopN = 20
	MaxTopN     = 100
)

type pair struct {
	company  string
	investor string
}

// Build constructs the graph of the topN investors (ranked by distinct
// companies, descending) and the companies they back. An empty subset is
// not a failure: it yields an empty graph. Failures come back inside the
// Result so the caller can downgrade them to a rendering warning instead
// of taking down the dashboard.
func Build(rows []domain.Company, topN int) fn.Result[Graph] {
	if topN <= 0 {
		return fn.Errf[Graph]("relation: top-n must be positive, got %d", topN)
	}
	if topN > MaxTopN {
		topN = MaxTopN
	}

	// Step 1: project (company, investor) pairs, dropping rows without an
	// investor and collapsing duplicate pairs.
	pairs := fn.FilterMap(rows, func(c domain.Company) (pair, bool) {
		return pair{company: c.Name, investor: c.Investor}, c.Investor != ""
	})
	pairs = fn.Unique(pairs)

	// Step 2: rank investors by distinct-company count. The stable sort
	// breaks ties by first-encountered order in the subset, which pins the
	// selected set for identical inputs.
	top := rankInvestors(pairs)
	if len(top) > topN {
		top = top[:topN]
	}
	selected := make(map[string]int, len(top))
	for _, r := range top {
		selected[r.investor] = r.companies
	}

	// Step 3: retain only pairs whose investor made the cut.
	retained := fn.Filter(pairs, func(p pair) bool {
		_, ok := selected[p.investor]
		return ok
	})

	// Step 4: emit nodes and one undirected edge per retained pair.
	byName := companyIndex(rows)
	g := Graph{}
	for _, r := range top {
		g.Nodes = append(g.Nodes, Node{
			ID:        InvestorID(r.investor),
			Kind:      KindInvestor,
			Label:     r.investor,
			Companies: r.companies,
		})
	}
	for _, name := range fn.Unique(fn.Map(retained, func(p pair) string { return p.company })) {
		node := Node{ID: CompanyID(name), Kind: KindCompany, Label: name}
		if c, ok := byName[name]; ok {
			node.ValuationB = c.ValuationB
			node.Country = c.Country
		}
		g.Nodes = append(g.Nodes, node)
	}
	g.Edges = fn.Map(retained, func(p pair) Edge {
		return Edge{Investor: p.investor, Company: p.company}
	})
	return fn.Ok(g)
}

type investorRank struct {
	investor  string
	companies int
}

func rankInvestors(pairs []pair) []investorRank {
	investors := fn.GroupKeys(pairs, func(p pair) string { return p.investor })
	groups := fn.GroupBy(pairs, func(p pair) string { return p.investor })

	ranks := fn.Map(investors, func(inv string) investorRank {
		// Pairs are already distinct, so group size is the distinct-company count.
		return investorRank{investor: inv, companies: len(groups[inv])}
	})
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].companies > ranks[j].companies })
	return ranks
}

// companyIndex maps each company name to its canonical (first) row.
func companyIndex(rows []domain.Company) map[string]domain.Company {
	idx := make(map[string]domain.Company)
	for _, c := range rows {
		if _, ok := idx[c.Name]; !ok {
			idx[c.Name] = c
		}
	}
	return idx
}
