package graph

import (
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// Directed returns a gonum directed-graph view of this graph, so falcon
// graphs compose with the algorithms under gonum.org/v1/gonum/graph. Vertex
// indices map to gonum node IDs unchanged. The view is read-only and remains
// valid as the underlying graph mutates.
func (g *Graph[V, E]) Directed() gonumgraph.Directed {
	return directed[V, E]{g: g}
}

// directed adapts a Graph to gonum's graph.Directed interface.
type directed[V Vertex, E Edge] struct {
	g *Graph[V, E]
}

// gonumNode is a gonum node backed by a vertex index.
type gonumNode uint64

// ID returns the gonum node ID.
func (n gonumNode) ID() int64 { return int64(n) }

// gonumEdge is a gonum edge backed by a (head, tail) pair.
type gonumEdge struct {
	from, to int64
}

// From returns the head node of the edge.
func (e gonumEdge) From() gonumgraph.Node { return gonumNode(e.from) }

// To returns the tail node of the edge.
func (e gonumEdge) To() gonumgraph.Node { return gonumNode(e.to) }

// ReversedEdge returns the edge with its endpoints swapped.
func (e gonumEdge) ReversedEdge() gonumgraph.Edge {
	return gonumEdge{from: e.to, to: e.from}
}

// Node returns the node with the given ID if it exists, and nil otherwise.
func (d directed[V, E]) Node(id int64) gonumgraph.Node {
	if !d.g.HasVertex(uint64(id)) {
		return nil
	}
	return gonumNode(id)
}

// Nodes returns all nodes of the graph, ordered by vertex index.
func (d directed[V, E]) Nodes() gonumgraph.Nodes {
	var nodes []gonumgraph.Node
	for _, index := range d.g.vertexIndices() {
		nodes = append(nodes, gonumNode(index))
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns all nodes reachable directly from the node with the given ID.
func (d directed[V, E]) From(id int64) gonumgraph.Nodes {
	var nodes []gonumgraph.Node
	for _, e := range d.g.edgesOut[uint64(id)] {
		nodes = append(nodes, gonumNode(e.Tail()))
	}
	return iterator.NewOrderedNodes(nodes)
}

// To returns all nodes that reach directly to the node with the given ID.
func (d directed[V, E]) To(id int64) gonumgraph.Nodes {
	var nodes []gonumgraph.Node
	for _, e := range d.g.edgesIn[uint64(id)] {
		nodes = append(nodes, gonumNode(e.Head()))
	}
	return iterator.NewOrderedNodes(nodes)
}

// Edge returns the edge from u to v if such an edge exists, and nil otherwise.
func (d directed[V, E]) Edge(uid, vid int64) gonumgraph.Edge {
	if !d.g.HasEdge(uint64(uid), uint64(vid)) {
		return nil
	}
	return gonumEdge{from: uid, to: vid}
}

// HasEdgeFromTo reports whether an edge exists from u to v.
func (d directed[V, E]) HasEdgeFromTo(uid, vid int64) bool {
	return d.g.HasEdge(uint64(uid), uint64(vid))
}

// HasEdgeBetween reports whether an edge exists between u and v, ignoring
// direction.
func (d directed[V, E]) HasEdgeBetween(xid, yid int64) bool {
	return d.g.HasEdge(uint64(xid), uint64(yid)) || d.g.HasEdge(uint64(yid), uint64(xid))
}
