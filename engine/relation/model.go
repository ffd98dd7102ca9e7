// Package relation builds the bipartite investor–company relationship
// graph from a filtered subset of the dataset.
package relation

// Node kinds. Edges only ever connect an investor to a company.
const (
	KindInvestor = "investor"
	KindCompany  = "company"
)

// Node is one vertex of the relationship graph. Investor nodes carry the
// distinct-company count used for sizing; company nodes carry valuation
// for tooltips.
type Node struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Label      string  `json:"label"`
	Companies  int     `json:"companies,omitempty"`
	ValuationB float64 `json:"valuation_b,omitempty"`
	Country    string  `json:"country,omitempty"`
}

// Edge is one undirected investor–company association. A pair contributes
// at most one edge regardless of how often it appeared in raw rows.
type Edge struct {
	Investor string `json:"investor"`
	Company  string `json:"company"`
}

// Graph is the node/edge set handed to the rendering layer.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsEmpty reports whether there is anything to render.
func (g Graph) IsEmpty() bool { return len(g.Nodes) == 0 }

// InvestorID and CompanyID build namespaced node IDs so an investor and a
// company sharing a name never collide.
func InvestorID(name string) string { return "inv:" + name }
func CompanyID(name string) string  { return "co:" + name }
