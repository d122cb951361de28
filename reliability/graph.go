package reliability

import "sync"

const (
	defaultDamping    = 0.85
	defaultTolerance  = 1e-8
	defaultIterations = 100
)

// Graph accumulates routing outcomes as a directed weighted graph over
// provider ids: a self-loop records a direct success, an edge A->B records
// a request that fell back from A to B. Weights only grow; the graph is
// cleared only by a full registry reset. Ranks are advisory: they surface
// in the health report but never drive provider ordering.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]struct{}
	edges map[string]map[string]float64

	damping    float64
	tolerance  float64
	iterations int
}

// NewGraph creates an empty graph with the standard damping factor.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]struct{}),
		edges:      make(map[string]map[string]float64),
		damping:    defaultDamping,
		tolerance:  defaultTolerance,
		iterations: defaultIterations,
	}
}

// AddNode registers a provider id so it participates in ranking even
// before any outcome is recorded for it.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = struct{}{}
}

// RecordSuccess adds weight to the provider's self-loop.
func (g *Graph) RecordSuccess(id string) {
	g.addEdge(id, id)
}

// RecordFallback adds weight to the edge from the previously tried
// provider to the one tried next.
func (g *Graph) RecordFallback(from, to string) {
	g.addEdge(from, to)
}

func (g *Graph) addEdge(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	out, ok := g.edges[from]
	if !ok {
		out = make(map[string]float64)
		g.edges[from] = out
	}
	out[to]++
}

// Reset drops every node and edge.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]struct{})
	g.edges = make(map[string]map[string]float64)
}

// EdgeWeight returns the accumulated weight of one edge.
func (g *Graph) EdgeWeight(from, to string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[from][to]
}

// Ranks runs power iteration and returns a rank per node. The ranks sum to
// 1: sink nodes (no outgoing weight) redistribute their whole mass
// uniformly each round, so nothing leaks. An empty graph returns an empty
// map.
func (g *Graph) Ranks() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}

	ids := make([]string, 0, n)
	for id := range g.nodes {
		ids = append(ids, id)
	}

	outWeight := make(map[string]float64, n)
	for from, out := range g.edges {
		for _, w := range out {
			outWeight[from] += w
		}
	}

	ranks := make(map[string]float64, n)
	for _, id := range ids {
		ranks[id] = 1.0 / float64(n)
	}

	for iter := 0; iter < g.iterations; iter++ {
		var sinkMass float64
		for _, id := range ids {
			if outWeight[id] == 0 {
				sinkMass += ranks[id]
			}
		}

		next := make(map[string]float64, n)
		base := (1-g.damping)/float64(n) + g.damping*sinkMass/float64(n)
		for _, id := range ids {
			next[id] = base
		}

		for from, out := range g.edges {
			share := g.damping * ranks[from] / outWeight[from]
			for to, w := range out {
				next[to] += share * w
			}
		}

		var delta float64
		for _, id := range ids {
			d := next[id] - ranks[id]
			if d < 0 {
				d = -d
			}
			delta += d
		}

		ranks = next
		if delta < g.tolerance {
			break
		}
	}

	return ranks
}
