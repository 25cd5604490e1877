package symbolgraph

import (
	"sort"

	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NodeMetric holds computed metrics for a single declaration.
type NodeMetric struct {
	ID        symbol.SymbolID `json:"id" toon:"id"`
	Name      string          `json:"name" toon:"name"`
	File      string          `json:"file" toon:"file"`
	PageRank  float64         `json:"pagerank" toon:"pagerank"`
	InDegree  int             `json:"in_degree" toon:"in_degree"`
	OutDegree int             `json:"out_degree" toon:"out_degree"`
}

// MetricsSummary aggregates graph-level statistics.
type MetricsSummary struct {
	TotalSymbols                int     `json:"total_symbols" toon:"total_symbols"`
	TotalEdges                  int     `json:"total_edges" toon:"total_edges"`
	AvgDegree                   float64 `json:"avg_degree" toon:"avg_degree"`
	Density                     float64 `json:"density" toon:"density"`
	StronglyConnectedComponents int     `json:"strongly_connected_components" toon:"strongly_connected_components"`
	CycleCount                  int     `json:"cycle_count" toon:"cycle_count"`
	IsCyclic                    bool    `json:"is_cyclic" toon:"is_cyclic"`
}

// Metrics holds per-symbol centrality scores and a graph summary.
type Metrics struct {
	NodeMetrics []NodeMetric   `json:"node_metrics" toon:"node_metrics"`
	Summary     MetricsSummary `json:"summary" toon:"summary"`
}

const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// ComputeMetrics calculates PageRank, degrees, and cycle structure over the
// reference edges. Node metrics come back sorted by PageRank descending.
func (g *Graph) ComputeMetrics() *Metrics {
	symbols := g.AllSymbols()
	edges := g.Edges()

	// Deterministic node ordering keeps gonum IDs stable across runs.
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].ID < symbols[j].ID })

	dg := simple.NewDirectedGraph()
	gonumID := make(map[symbol.SymbolID]int64, len(symbols))
	for i, s := range symbols {
		id := int64(i)
		gonumID[s.ID] = id
		dg.AddNode(simple.Node(id))
	}

	inDeg := make(map[symbol.SymbolID]int, len(symbols))
	outDeg := make(map[symbol.SymbolID]int, len(symbols))
	for _, e := range edges {
		from, okF := gonumID[e.From]
		to, okT := gonumID[e.To]
		if !okF || !okT || from == to {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		outDeg[e.From]++
		inDeg[e.To]++
	}

	var ranks map[int64]float64
	if len(symbols) > 0 {
		ranks = network.PageRank(dg, pageRankDamping, pageRankTolerance)
	}

	metrics := make([]NodeMetric, 0, len(symbols))
	for _, s := range symbols {
		metrics = append(metrics, NodeMetric{
			ID:        s.ID,
			Name:      s.QualifiedName,
			File:      s.Location.File,
			PageRank:  ranks[gonumID[s.ID]],
			InDegree:  inDeg[s.ID],
			OutDegree: outDeg[s.ID],
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].PageRank != metrics[j].PageRank {
			return metrics[i].PageRank > metrics[j].PageRank
		}
		return metrics[i].ID < metrics[j].ID
	})

	summary := MetricsSummary{
		TotalSymbols: len(symbols),
		TotalEdges:   len(edges),
	}
	if len(symbols) > 0 {
		summary.AvgDegree = float64(len(edges)) / float64(len(symbols))
	}
	if len(symbols) > 1 {
		n := float64(len(symbols))
		summary.Density = float64(len(edges)) / (n * (n - 1))
	}

	sccs := topo.TarjanSCC(dg)
	summary.StronglyConnectedComponents = len(sccs)
	for _, scc := range sccs {
		if len(scc) > 1 {
			summary.CycleCount++
		}
	}
	summary.IsCyclic = summary.CycleCount > 0

	return &Metrics{NodeMetrics: metrics, Summary: summary}
}
