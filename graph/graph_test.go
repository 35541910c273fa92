package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGraph returns a graph over NullVertex and NullEdge with the given
// vertices and edges.
func newTestGraph(t *testing.T, vertices []uint64, edges [][2]uint64) *Graph[NullVertex, NullEdge] {
	t.Helper()
	g := NewGraph[NullVertex, NullEdge]()
	for _, index := range vertices {
		require.NoError(t, g.InsertVertex(NewNullVertex(index)))
	}
	for _, e := range edges {
		require.NoError(t, g.InsertEdge(NewNullEdge(e[0], e[1])))
	}
	return g
}

func TestInsertVertex(t *testing.T) {
	g := NewGraph[NullVertex, NullEdge]()
	require.NoError(t, g.InsertVertex(NewNullVertex(0)))
	assert.True(t, g.HasVertex(0))
	assert.Equal(t, 1, g.NumVertices())

	// Adjacency is initialized empty.
	edgesOut, err := g.EdgesOut(0)
	require.NoError(t, err)
	assert.Empty(t, edgesOut)
	edgesIn, err := g.EdgesIn(0)
	require.NoError(t, err)
	assert.Empty(t, edgesIn)

	err = g.InsertVertex(NewNullVertex(0))
	assert.ErrorIs(t, err, ErrDuplicateVertex)
	assert.Equal(t, 1, g.NumVertices())
}

func TestInsertEdgeDuplicate(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1}, [][2]uint64{{0, 1}})

	err := g.InsertEdge(NewNullEdge(0, 1))
	assert.ErrorIs(t, err, ErrDuplicateEdge)

	// State unchanged by the rejected insert.
	edgesOut, err := g.EdgesOut(0)
	require.NoError(t, err)
	assert.Len(t, edgesOut, 1)
	edgesIn, err := g.EdgesIn(1)
	require.NoError(t, err)
	assert.Len(t, edgesIn, 1)
	assert.Len(t, g.Edges(), 1)
}

func TestInsertEdgeMissingVertex(t *testing.T) {
	g := newTestGraph(t, []uint64{0}, nil)
	assert.ErrorIs(t, g.InsertEdge(NewNullEdge(0, 1)), ErrVertexNotFound)
	assert.ErrorIs(t, g.InsertEdge(NewNullEdge(7, 0)), ErrVertexNotFound)
	assert.Empty(t, g.Edges())
}

func TestRemoveVertex(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1, 2}, [][2]uint64{{0, 1}, {1, 2}, {2, 1}})

	require.NoError(t, g.RemoveVertex(1))

	assert.False(t, g.HasVertex(1))
	assert.False(t, g.HasEdge(0, 1))
	assert.False(t, g.HasEdge(1, 2))
	assert.False(t, g.HasEdge(2, 1))

	// Adjacency maps for the removed vertex are purged, and remaining
	// adjacency no longer references it.
	_, err := g.EdgesOut(1)
	assert.ErrorIs(t, err, ErrVertexNotFound)
	edgesOut, err := g.EdgesOut(0)
	require.NoError(t, err)
	assert.Empty(t, edgesOut)
	edgesOut, err = g.EdgesOut(2)
	require.NoError(t, err)
	assert.Empty(t, edgesOut)

	assert.ErrorIs(t, g.RemoveVertex(1), ErrVertexNotFound)
}

func TestRemoveVertexSelfLoop(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1}, [][2]uint64{{1, 1}, {0, 1}})
	require.NoError(t, g.RemoveVertex(1))
	assert.Empty(t, g.Edges())
	assert.Equal(t, 1, g.NumVertices())
}

func TestRemoveEdge(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1, 2}, [][2]uint64{{0, 1}, {0, 2}})

	require.NoError(t, g.RemoveEdge(0, 1))

	assert.False(t, g.HasEdge(0, 1))
	edgesOut, err := g.EdgesOut(0)
	require.NoError(t, err)
	require.Len(t, edgesOut, 1)
	assert.Equal(t, uint64(2), edgesOut[0].Tail())
	edgesIn, err := g.EdgesIn(1)
	require.NoError(t, err)
	assert.Empty(t, edgesIn)

	assert.ErrorIs(t, g.RemoveEdge(0, 1), ErrEdgeNotFound)
}

func TestInsertRemoveEdgeRoundTrip(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1, 2}, [][2]uint64{{0, 1}})

	require.NoError(t, g.InsertEdge(NewNullEdge(1, 2)))
	require.NoError(t, g.RemoveEdge(1, 2))

	// The graph is equal to its prior state.
	assert.Len(t, g.Edges(), 1)
	assert.True(t, g.HasEdge(0, 1))
	edgesOut, err := g.EdgesOut(1)
	require.NoError(t, err)
	assert.Empty(t, edgesOut)
	edgesIn, err := g.EdgesIn(2)
	require.NoError(t, err)
	assert.Empty(t, edgesIn)
}

func TestAdjacencyOrder(t *testing.T) {
	// Adjacency sequences preserve edge insertion order.
	g := newTestGraph(t, []uint64{0, 1, 2, 3}, [][2]uint64{{0, 2}, {0, 1}, {0, 3}, {1, 3}, {2, 3}})

	successors, err := g.Successors(0)
	require.NoError(t, err)
	var got []uint64
	for _, v := range successors {
		got = append(got, v.Index())
	}
	assert.Equal(t, []uint64{2, 1, 3}, got)

	predecessors, err := g.Predecessors(3)
	require.NoError(t, err)
	got = nil
	for _, v := range predecessors {
		got = append(got, v.Index())
	}
	assert.Equal(t, []uint64{0, 1, 2}, got)

	_, err = g.Successors(9)
	assert.ErrorIs(t, err, ErrVertexNotFound)
}

func TestSetHead(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1}, nil)

	_, ok := g.Head()
	assert.False(t, ok)

	assert.ErrorIs(t, g.SetHead(9), ErrVertexNotFound)
	require.NoError(t, g.SetHead(1))
	head, ok := g.Head()
	require.True(t, ok)
	assert.Equal(t, uint64(1), head)
}

func TestVertexNotFound(t *testing.T) {
	g := NewGraph[NullVertex, NullEdge]()
	_, err := g.Vertex(0)
	assert.ErrorIs(t, err, ErrVertexNotFound)
	_, err = g.Edge(0, 1)
	assert.ErrorIs(t, err, ErrEdgeNotFound)
}

func TestVerticesOrdered(t *testing.T) {
	g := newTestGraph(t, []uint64{3, 0, 2, 1}, [][2]uint64{{3, 0}, {0, 2}})

	var indices []uint64
	for _, v := range g.Vertices() {
		indices = append(indices, v.Index())
	}
	assert.Equal(t, []uint64{0, 1, 2, 3}, indices)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, uint64(0), edges[0].Head())
	assert.Equal(t, uint64(3), edges[1].Head())
}

func TestDotGraph(t *testing.T) {
	g := newTestGraph(t, []uint64{0, 1}, [][2]uint64{{0, 1}})

	want := `digraph G {
graph [fontname = "Courier New", splines="polyline"]
node [fontname = "Courier New"]
edge [fontname = "Courier New"]

0 [shape="box", label="0", style="filled", fillcolor="#ffddcc"];
1 [shape="box", label="1", style="filled", fillcolor="#ffddcc"];
0 -> 1 [label="0 -> 1"];
}`
	assert.Equal(t, want, g.DotGraph())
}
