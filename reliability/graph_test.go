package reliability_test

import (
	"testing"

	"Lodestar/reliability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankSum(ranks map[string]float64) float64 {
	var sum float64
	for _, r := range ranks {
		sum += r
	}
	return sum
}

func TestRanksSumToOne(t *testing.T) {
	cases := []struct {
		name  string
		build func(g *reliability.Graph)
	}{
		{"no edges", func(g *reliability.Graph) {
			g.AddNode("a")
			g.AddNode("b")
			g.AddNode("c")
		}},
		{"self loops only", func(g *reliability.Graph) {
			g.RecordSuccess("a")
			g.RecordSuccess("b")
			g.RecordSuccess("b")
		}},
		{"fallback chain", func(g *reliability.Graph) {
			g.AddNode("d")
			g.RecordFallback("a", "b")
			g.RecordFallback("b", "c")
			g.RecordSuccess("c")
		}},
		{"mixed heavy traffic", func(g *reliability.Graph) {
			for i := 0; i < 50; i++ {
				g.RecordSuccess("a")
			}
			for i := 0; i < 20; i++ {
				g.RecordFallback("a", "b")
				g.RecordFallback("c", "b")
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := reliability.NewGraph()
			tc.build(g)
			ranks := g.Ranks()
			require.NotEmpty(t, ranks)
			assert.InDelta(t, 1.0, rankSum(ranks), 1e-6)
		})
	}
}

func TestEmptyGraph(t *testing.T) {
	g := reliability.NewGraph()
	assert.Empty(t, g.Ranks())
}

func TestNoEdgesIsUniform(t *testing.T) {
	g := reliability.NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	g.AddNode("d")

	ranks := g.Ranks()
	for id, r := range ranks {
		assert.InDelta(t, 0.25, r, 1e-9, "node %s", id)
	}
}

func TestFallbackTargetRanksHigher(t *testing.T) {
	g := reliability.NewGraph()
	// a and b keep falling back to c; c succeeds directly.
	for i := 0; i < 10; i++ {
		g.RecordFallback("a", "c")
		g.RecordFallback("b", "c")
		g.RecordSuccess("c")
	}

	ranks := g.Ranks()
	assert.Greater(t, ranks["c"], ranks["a"])
	assert.Greater(t, ranks["c"], ranks["b"])
	assert.InDelta(t, 1.0, rankSum(ranks), 1e-6)
}

func TestWeightsAccumulate(t *testing.T) {
	g := reliability.NewGraph()
	g.RecordFallback("a", "b")
	g.RecordFallback("a", "b")
	g.RecordSuccess("b")

	assert.EqualValues(t, 2, g.EdgeWeight("a", "b"))
	assert.EqualValues(t, 1, g.EdgeWeight("b", "b"))
	assert.Zero(t, g.EdgeWeight("b", "a"))
}

func TestReset(t *testing.T) {
	g := reliability.NewGraph()
	g.RecordSuccess("a")
	require.NotEmpty(t, g.Ranks())

	g.Reset()
	assert.Empty(t, g.Ranks())
	assert.Zero(t, g.EdgeWeight("a", "a"))
}
