package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonumflow "gonum.org/v1/gonum/graph/flow"
)

// diamond returns the graph 0 -> {1, 2} -> 3.
func diamond(t *testing.T) *Graph[NullVertex, NullEdge] {
	t.Helper()
	return newTestGraph(t,
		[]uint64{0, 1, 2, 3},
		[][2]uint64{{0, 1}, {0, 2}, {1, 3}, {2, 3}},
	)
}

// loop returns the graph 0 -> 1 -> {2, 3} with the back edge 2 -> 1.
func loop(t *testing.T) *Graph[NullVertex, NullEdge] {
	t.Helper()
	return newTestGraph(t,
		[]uint64{0, 1, 2, 3},
		[][2]uint64{{0, 1}, {1, 2}, {2, 1}, {1, 3}},
	)
}

func TestComputePredecessors(t *testing.T) {
	g := loop(t)

	predecessors := g.ComputePredecessors()

	// Transitive closure, not immediate predecessors.
	assert.Equal(t, Set{}, predecessors[0])
	assert.Equal(t, Set{0: true, 1: true, 2: true}, predecessors[1])
	assert.Equal(t, Set{0: true, 1: true, 2: true}, predecessors[2])
	assert.Equal(t, Set{0: true, 1: true, 2: true}, predecessors[3])
}

func TestComputePredecessorsChain(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1, 2}, [][2]uint64{{0, 1}, {1, 2}})

	predecessors := g.ComputePredecessors()

	assert.Equal(t, Set{}, predecessors[0])
	assert.Equal(t, Set{0: true}, predecessors[1])
	assert.Equal(t, Set{0: true, 1: true}, predecessors[2])
}

func TestComputeAcyclic(t *testing.T) {
	g := loop(t)

	dag, err := g.ComputeAcyclic(0)
	require.NoError(t, err)

	// The vertex set equals the original.
	assert.Equal(t, 4, dag.NumVertices())
	for index := uint64(0); index < 4; index++ {
		assert.True(t, dag.HasVertex(index))
	}

	// Only the back edge 2 -> 1 is removed.
	assert.True(t, dag.HasEdge(0, 1))
	assert.True(t, dag.HasEdge(1, 2))
	assert.True(t, dag.HasEdge(1, 3))
	assert.False(t, dag.HasEdge(2, 1))
	assert.Len(t, dag.Edges(), 3)
}

func TestComputeAcyclicKeepsCrossEdges(t *testing.T) {
	// 0 -> {1, 2}, 1 -> 3, 2 -> 3; no back edges, every edge survives.
	g := diamond(t)

	dag, err := g.ComputeAcyclic(0)
	require.NoError(t, err)
	assert.Len(t, dag.Edges(), 4)
}

func TestComputeDominatorsDiamond(t *testing.T) {
	g := diamond(t)

	dominators, err := g.ComputeDominators(0)
	require.NoError(t, err)

	want := map[uint64]Set{
		0: {0: true},
		1: {0: true, 1: true},
		2: {0: true, 2: true},
		3: {0: true, 3: true},
	}
	assert.Equal(t, want, dominators)
}

func TestComputeDominatorsLoop(t *testing.T) {
	g := loop(t)

	dominators, err := g.ComputeDominators(0)
	require.NoError(t, err)

	want := map[uint64]Set{
		0: {0: true},
		1: {0: true, 1: true},
		2: {0: true, 1: true, 2: true},
		3: {0: true, 1: true, 3: true},
	}
	assert.Equal(t, want, dominators)
}

func TestComputeDominatorsLinearChain(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1, 2}, [][2]uint64{{0, 1}, {1, 2}})

	dominators, err := g.ComputeDominators(0)
	require.NoError(t, err)

	// Along a linear chain every vertex inherits its predecessor's
	// dominators.
	assert.Equal(t, Set{0: true, 1: true}, dominators[1])
	assert.Equal(t, Set{0: true, 1: true, 2: true}, dominators[2])
}

func TestComputeDominatorsMissingStart(t *testing.T) {
	g := diamond(t)
	_, err := g.ComputeDominators(9)
	assert.ErrorIs(t, err, ErrVertexNotFound)
}

func TestComputeImmediateDominators(t *testing.T) {
	golden := []struct {
		name  string
		build func(t *testing.T) *Graph[NullVertex, NullEdge]
		want  map[uint64]uint64
	}{
		{
			name:  "diamond",
			build: diamond,
			want:  map[uint64]uint64{1: 0, 2: 0, 3: 0},
		},
		{
			name:  "loop",
			build: loop,
			want:  map[uint64]uint64{1: 0, 2: 1, 3: 1},
		},
	}
	for _, gold := range golden {
		t.Run(gold.name, func(t *testing.T) {
			g := gold.build(t)
			idoms, err := g.ComputeImmediateDominators(0)
			require.NoError(t, err)
			assert.Equal(t, gold.want, idoms)

			// Every immediate dominator is a strict dominator.
			dominators, err := g.ComputeDominators(0)
			require.NoError(t, err)
			for index, idom := range idoms {
				assert.NotEqual(t, index, idom)
				assert.True(t, dominators[index].contains(idom))
			}
		})
	}
}

func TestComputeDominanceFrontiers(t *testing.T) {
	g := diamond(t)

	frontiers, err := g.ComputeDominanceFrontiers(0)
	require.NoError(t, err)

	want := map[uint64]Set{
		0: {},
		1: {3: true},
		2: {3: true},
		3: {},
	}
	assert.Equal(t, want, frontiers)
}

func TestGonumDominatorsCrossCheck(t *testing.T) {
	for name, build := range map[string]func(t *testing.T) *Graph[NullVertex, NullEdge]{
		"diamond": diamond,
		"loop":    loop,
	} {
		t.Run(name, func(t *testing.T) {
			g := build(t)
			idoms, err := g.ComputeImmediateDominators(0)
			require.NoError(t, err)

			d := g.Directed()
			tree := gonumflow.Dominators(d.Node(0), d)
			for index, idom := range idoms {
				gonumIdom := tree.DominatorOf(int64(index))
				require.NotNil(t, gonumIdom)
				assert.Equal(t, int64(idom), gonumIdom.ID())
			}
		})
	}
}
