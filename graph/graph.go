// Package graph provides a directed graph over 64-bit vertex indices, and the
// dominator machinery used by control flow analyses.
package graph

import (
	"sort"

	"github.com/pkg/errors"
)

// Sentinel errors for graph operations.
var (
	// ErrVertexNotFound indicates an operation referenced a vertex index not
	// present in the graph.
	ErrVertexNotFound = errors.New("graph: vertex not found")

	// ErrEdgeNotFound indicates an operation referenced a (head, tail) pair not
	// present in the graph.
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrDuplicateVertex indicates an insert of a vertex whose index is already
	// present in the graph.
	ErrDuplicateVertex = errors.New("graph: duplicate vertex index")

	// ErrDuplicateEdge indicates an insert of an edge whose (head, tail) pair
	// is already present in the graph.
	ErrDuplicateEdge = errors.New("graph: duplicate edge")

	// ErrInvariant indicates an internal graph invariant was violated. This is
	// a bug in the caller or the graph itself; the operation is aborted.
	ErrInvariant = errors.New("graph: invariant violated")
)

// === [ Vertex and Edge capabilities ] ========================================

// A Vertex is anything which can be stored as a vertex of a Graph.
type Vertex interface {
	// Index returns the index of this vertex, unique within its graph.
	Index() uint64
	// DotLabel returns a string to display in dot graphviz format.
	DotLabel() string
}

// An Edge is anything which can be stored as an edge of a Graph.
type Edge interface {
	// Head returns the index of the head (source) vertex of this edge.
	Head() uint64
	// Tail returns the index of the tail (destination) vertex of this edge.
	Tail() uint64
	// DotLabel returns a string to display in dot graphviz format.
	DotLabel() string
}

// NullVertex is an empty vertex for creating graphs when vertex data is not
// required.
type NullVertex struct {
	index uint64
}

// NewNullVertex returns a NullVertex with the given index.
func NewNullVertex(index uint64) NullVertex {
	return NullVertex{index: index}
}

// Index returns the index of the vertex.
func (v NullVertex) Index() uint64 { return v.index }

// DotLabel returns the index of the vertex as its label.
func (v NullVertex) DotLabel() string { return formatIndex(v.index) }

// NullEdge is an empty edge for creating graphs when edge data is not
// required.
type NullEdge struct {
	head uint64
	tail uint64
}

// NewNullEdge returns a NullEdge between the given vertex indices.
func NewNullEdge(head, tail uint64) NullEdge {
	return NullEdge{head: head, tail: tail}
}

// Head returns the index of the head vertex.
func (e NullEdge) Head() uint64 { return e.head }

// Tail returns the index of the tail vertex.
func (e NullEdge) Tail() uint64 { return e.tail }

// DotLabel returns the edge endpoints as its label.
func (e NullEdge) DotLabel() string {
	return formatIndex(e.head) + " -> " + formatIndex(e.tail)
}

// === [ Graph ] ===============================================================

// edgeKey identifies an edge by its (head, tail) vertex indices. At most one
// edge may exist per ordered pair.
type edgeKey struct {
	head uint64
	tail uint64
}

// A Graph is a directed graph of vertices V and edges E, indexed by 64-bit
// vertex indices.
//
// Adjacency lists preserve insertion order. This order is observable through
// Successors, Predecessors, EdgesOut and EdgesIn, and ComputeDominators relies
// on it to seed the dominator intersection deterministically.
type Graph[V Vertex, E Edge] struct {
	// Optional root vertex index for algorithms that require one.
	head     *uint64
	vertices map[uint64]V
	edges    map[edgeKey]E
	edgesOut map[uint64][]E
	edgesIn  map[uint64][]E
}

// NewGraph returns a new, empty directed graph.
func NewGraph[V Vertex, E Edge]() *Graph[V, E] {
	return &Graph[V, E]{
		vertices: make(map[uint64]V),
		edges:    make(map[edgeKey]E),
		edgesOut: make(map[uint64][]E),
		edgesIn:  make(map[uint64][]E),
	}
}

// NumVertices returns the number of vertices in the graph.
func (g *Graph[V, E]) NumVertices() int {
	return len(g.vertices)
}

// HasVertex reports whether a vertex with the given index exists in the graph.
func (g *Graph[V, E]) HasVertex(index uint64) bool {
	_, ok := g.vertices[index]
	return ok
}

// HasEdge reports whether an edge with the given head and tail indices exists
// in the graph.
func (g *Graph[V, E]) HasEdge(head, tail uint64) bool {
	_, ok := g.edges[edgeKey{head: head, tail: tail}]
	return ok
}

// SetHead sets the root vertex of this graph.
func (g *Graph[V, E]) SetHead(index uint64) error {
	if !g.HasVertex(index) {
		return errors.Wrapf(ErrVertexNotFound, "cannot set head to %d", index)
	}
	g.head = &index
	return nil
}

// Head returns the root vertex index of this graph, if set.
func (g *Graph[V, E]) Head() (uint64, bool) {
	if g.head == nil {
		return 0, false
	}
	return *g.head, true
}

// InsertVertex inserts a vertex into the graph. Fails if a vertex with the
// same index already exists.
func (g *Graph[V, E]) InsertVertex(v V) error {
	if g.HasVertex(v.Index()) {
		return errors.Wrapf(ErrDuplicateVertex, "vertex %d", v.Index())
	}
	g.vertices[v.Index()] = v
	g.edgesOut[v.Index()] = nil
	g.edgesIn[v.Index()] = nil
	return nil
}

// InsertEdge inserts an edge into the graph. Fails if an edge with the same
// head and tail indices already exists. Both endpoints must be present in the
// graph.
func (g *Graph[V, E]) InsertEdge(e E) error {
	key := edgeKey{head: e.Head(), tail: e.Tail()}
	if _, ok := g.edges[key]; ok {
		return errors.Wrapf(ErrDuplicateEdge, "edge %d -> %d", e.Head(), e.Tail())
	}
	if !g.HasVertex(e.Head()) {
		return errors.Wrapf(ErrVertexNotFound, "edge head %d", e.Head())
	}
	if !g.HasVertex(e.Tail()) {
		return errors.Wrapf(ErrVertexNotFound, "edge tail %d", e.Tail())
	}
	g.edges[key] = e
	g.edgesOut[e.Head()] = append(g.edgesOut[e.Head()], e)
	g.edgesIn[e.Tail()] = append(g.edgesIn[e.Tail()], e)
	return nil
}

// RemoveVertex removes a vertex, and all edges incident on that vertex.
func (g *Graph[V, E]) RemoveVertex(index uint64) error {
	if !g.HasVertex(index) {
		return errors.Wrapf(ErrVertexNotFound, "vertex %d", index)
	}
	delete(g.vertices, index)

	// Collect every edge incident on this vertex, then remove them one by one.
	var keys []edgeKey
	for _, e := range g.edgesOut[index] {
		keys = append(keys, edgeKey{head: e.Head(), tail: e.Tail()})
	}
	for _, e := range g.edgesIn[index] {
		key := edgeKey{head: e.Head(), tail: e.Tail()}
		if key.head != key.tail {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		if err := g.RemoveEdge(key.head, key.tail); err != nil {
			return errors.Wrapf(ErrInvariant, "removing edge %d -> %d of vertex %d: %v", key.head, key.tail, index, err)
		}
	}

	delete(g.edgesOut, index)
	delete(g.edgesIn, index)
	return nil
}

// RemoveEdge removes the edge with the given head and tail indices.
func (g *Graph[V, E]) RemoveEdge(head, tail uint64) error {
	key := edgeKey{head: head, tail: tail}
	if _, ok := g.edges[key]; !ok {
		return errors.Wrapf(ErrEdgeNotFound, "edge %d -> %d", head, tail)
	}
	delete(g.edges, key)
	g.edgesOut[head] = removeAdjacent(g.edgesOut[head], head, tail)
	g.edgesIn[tail] = removeAdjacent(g.edgesIn[tail], head, tail)
	return nil
}

// removeAdjacent removes the single edge with the given endpoints from an
// adjacency list, preserving the order of the remaining edges.
func removeAdjacent[E Edge](edges []E, head, tail uint64) []E {
	for i, e := range edges {
		if e.Head() == head && e.Tail() == tail {
			return append(edges[:i:i], edges[i+1:]...)
		}
	}
	return edges
}

// Vertex returns the vertex with the given index.
func (g *Graph[V, E]) Vertex(index uint64) (V, error) {
	v, ok := g.vertices[index]
	if !ok {
		var zero V
		return zero, errors.Wrapf(ErrVertexNotFound, "vertex %d", index)
	}
	return v, nil
}

// Edge returns the edge with the given head and tail indices.
func (g *Graph[V, E]) Edge(head, tail uint64) (E, error) {
	e, ok := g.edges[edgeKey{head: head, tail: tail}]
	if !ok {
		var zero E
		return zero, errors.Wrapf(ErrEdgeNotFound, "edge %d -> %d", head, tail)
	}
	return e, nil
}

// Successors returns the immediate successors of the vertex with the given
// index, in edge insertion order.
func (g *Graph[V, E]) Successors(index uint64) ([]V, error) {
	if !g.HasVertex(index) {
		return nil, errors.Wrapf(ErrVertexNotFound, "vertex %d has no successors", index)
	}
	var successors []V
	for _, e := range g.edgesOut[index] {
		v, err := g.Vertex(e.Tail())
		if err != nil {
			return nil, errors.Wrapf(ErrInvariant, "edge %d -> %d references missing tail", e.Head(), e.Tail())
		}
		successors = append(successors, v)
	}
	return successors, nil
}

// Predecessors returns the immediate predecessors of the vertex with the given
// index, in edge insertion order.
func (g *Graph[V, E]) Predecessors(index uint64) ([]V, error) {
	if !g.HasVertex(index) {
		return nil, errors.Wrapf(ErrVertexNotFound, "vertex %d has no predecessors", index)
	}
	var predecessors []V
	for _, e := range g.edgesIn[index] {
		v, err := g.Vertex(e.Head())
		if err != nil {
			return nil, errors.Wrapf(ErrInvariant, "edge %d -> %d references missing head", e.Head(), e.Tail())
		}
		predecessors = append(predecessors, v)
	}
	return predecessors, nil
}

// EdgesOut returns the outgoing edges of the vertex with the given index, in
// insertion order. The returned slice is owned by the graph.
func (g *Graph[V, E]) EdgesOut(index uint64) ([]E, error) {
	if !g.HasVertex(index) {
		return nil, errors.Wrapf(ErrVertexNotFound, "vertex %d", index)
	}
	return g.edgesOut[index], nil
}

// EdgesIn returns the incoming edges of the vertex with the given index, in
// insertion order. The returned slice is owned by the graph.
func (g *Graph[V, E]) EdgesIn(index uint64) ([]E, error) {
	if !g.HasVertex(index) {
		return nil, errors.Wrapf(ErrVertexNotFound, "vertex %d", index)
	}
	return g.edgesIn[index], nil
}

// Vertices returns every vertex in the graph, ordered by index.
func (g *Graph[V, E]) Vertices() []V {
	vertices := make([]V, 0, len(g.vertices))
	for _, index := range g.vertexIndices() {
		vertices = append(vertices, g.vertices[index])
	}
	return vertices
}

// Edges returns every edge in the graph, ordered by (head, tail).
func (g *Graph[V, E]) Edges() []E {
	keys := make([]edgeKey, 0, len(g.edges))
	for key := range g.edges {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].head != keys[j].head {
			return keys[i].head < keys[j].head
		}
		return keys[i].tail < keys[j].tail
	})
	edges := make([]E, 0, len(keys))
	for _, key := range keys {
		edges = append(edges, g.edges[key])
	}
	return edges
}

// vertexIndices returns every vertex index in the graph in ascending order.
func (g *Graph[V, E]) vertexIndices() []uint64 {
	indices := make([]uint64, 0, len(g.vertices))
	for index := range g.vertices {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}
