package graph

import (
	"sort"

	"github.com/pkg/errors"
)

// A Set is a set of vertex indices.
type Set map[uint64]bool

// contains reports whether the set contains the given index.
func (s Set) contains(index uint64) bool {
	return s[index]
}

// sorted returns the members of the set in ascending order.
func (s Set) sorted() []uint64 {
	return sortedIndices(s)
}

// clone returns a copy of the set.
func (s Set) clone() Set {
	c := make(Set, len(s))
	for index := range s {
		c[index] = true
	}
	return c
}

// intersect removes from s every index not contained in other.
func (s Set) intersect(other Set) {
	for index := range s {
		if !other[index] {
			delete(s, index)
		}
	}
}

// sortedIndices returns the keys of a vertex-index set in ascending order.
func sortedIndices(s Set) []uint64 {
	indices := make([]uint64, 0, len(s))
	for index := range s {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

// ComputePredecessors computes the predecessors for every vertex in the graph.
//
// The resulting sets include all predecessors for each vertex, not just
// immediate predecessors. Given A -> B -> C, both A and B will be in the set
// for C.
func (g *Graph[V, E]) ComputePredecessors() map[uint64]Set {
	predecessors := make(map[uint64]Set, len(g.vertices))
	q := newQueue()

	// Initial population with immediate predecessors.
	for _, index := range g.vertexIndices() {
		preds := make(Set)
		for _, e := range g.edgesIn[index] {
			preds[e.Head()] = true
		}
		predecessors[index] = preds
		q.push(index)
	}

	for !q.empty() {
		index := q.pop()

		// Ensure each predecessor's predecessors are predecessors of this
		// vertex.
		this := predecessors[index]
		var toAdd []uint64
		for _, predecessor := range this.sorted() {
			for pp := range predecessors[predecessor] {
				if !this.contains(pp) {
					toAdd = append(toAdd, pp)
				}
			}
		}
		for _, predecessor := range toAdd {
			this[predecessor] = true
		}

		// This vertex grew, so its successors may grow as well.
		if len(toAdd) > 0 {
			for _, e := range g.edgesOut[index] {
				q.push(e.Tail())
			}
		}
	}

	return predecessors
}

// ComputeAcyclic computes an acyclic subgraph of this graph, rooted at the
// vertex with the given start index, over NullVertex and NullEdge.
//
// The vertex set of the result equals the vertex set of this graph. Edges are
// discovered by BFS from start; an edge to an already visited vertex is
// dropped when that vertex is a transitive predecessor of the edge's head
// (a back edge), and retained otherwise.
func (g *Graph[V, E]) ComputeAcyclic(start uint64) (*Graph[NullVertex, NullEdge], error) {
	acyclic := NewGraph[NullVertex, NullEdge]()
	for _, index := range g.vertexIndices() {
		if err := acyclic.InsertVertex(NewNullVertex(index)); err != nil {
			return nil, err
		}
	}

	predecessors := g.ComputePredecessors()

	visited := make(Set)
	q := newQueue()
	q.push(start)

	for !q.empty() {
		index := q.pop()
		visited[index] = true

		vertexPredecessors := predecessors[index]

		for _, e := range g.edgesOut[index] {
			// Skip edges that would create a loop.
			if visited.contains(e.Tail()) && vertexPredecessors.contains(e.Tail()) {
				continue
			}
			// Successors we haven't seen yet get added to the queue.
			if !visited.contains(e.Tail()) && !q.has(e.Tail()) {
				q.push(e.Tail())
			}
			if err := acyclic.InsertEdge(NewNullEdge(e.Head(), e.Tail())); err != nil {
				return nil, err
			}
		}
	}

	return acyclic, nil
}

// ComputeDominators computes the dominators for every vertex in the graph
// reachable from the vertex with the given start index. Every dominator set
// includes the vertex itself.
func (g *Graph[V, E]) ComputeDominators(start uint64) (map[uint64]Set, error) {
	if !g.HasVertex(start) {
		return nil, errors.Wrapf(ErrVertexNotFound, "start vertex %d", start)
	}

	dominators := make(map[uint64]Set)
	dominators[start] = Set{start: true}

	// Work the successors of the start vertex first.
	q := newQueue()
	for _, e := range g.edgesOut[start] {
		q.push(e.Tail())
	}

	dag, err := g.ComputeAcyclic(start)
	if err != nil {
		return nil, err
	}
	predecessors := dag.ComputePredecessors()

	for !q.empty() {
		index := q.pop()

		// Dominators for every predecessor of this vertex must be known before
		// this vertex can settle.
		predecessorsSet := true
		for _, predecessor := range predecessors[index].sorted() {
			if _, ok := dominators[predecessor]; !ok {
				if !q.has(predecessor) {
					q.push(predecessor)
				}
				predecessorsSet = false
			}
		}
		if !predecessorsSet {
			q.push(index)
			continue
		}

		// This vertex's dominators are the intersection of the dominators of
		// its immediate predecessors that are also its DAG predecessors (back
		// edges are ignored), plus itself. The first incoming DAG edge seeds
		// the intersection.
		var doms Set
		dagIn, err := dag.EdgesIn(index)
		if err != nil {
			return nil, err
		}
		if len(dagIn) > 0 {
			doms = dominators[dagIn[0].Head()].clone()
		} else {
			doms = make(Set)
		}

		for _, e := range g.edgesIn[index] {
			if predecessors[index].contains(e.Head()) {
				doms.intersect(dominators[e.Head()])
			}
		}

		doms[index] = true
		dominators[index] = doms

		// Add successors to the queue.
		for _, e := range dag.edgesOut[index] {
			if !q.has(e.Tail()) {
				q.push(e.Tail())
			}
		}
	}

	return dominators, nil
}

// ComputeImmediateDominators computes the immediate dominator for every vertex
// in the graph reachable from the vertex with the given start index.
//
// The immediate dominator of a vertex is its unique strict dominator that
// dominates no other strict dominator of that vertex. The start vertex has no
// immediate dominator and is absent from the result.
func (g *Graph[V, E]) ComputeImmediateDominators(start uint64) (map[uint64]uint64, error) {
	idoms := make(map[uint64]uint64)

	dominators, err := g.ComputeDominators(start)
	if err != nil {
		return nil, err
	}

	for _, index := range g.vertexIndices() {
		doms, ok := dominators[index]
		if !ok {
			// Unreachable from start.
			continue
		}
		sdoms := doms.clone()
		delete(sdoms, index)

		// Find the strict dominator that dominates no other strict dominators.
		for _, sdom := range sdoms.sorted() {
			isIdom := true
			for sdom2 := range sdoms {
				if sdom == sdom2 {
					continue
				}
				if dominators[sdom2].contains(sdom) {
					isIdom = false
					break
				}
			}
			if isIdom {
				idoms[index] = sdom
				break
			}
		}
	}

	return idoms, nil
}

// ComputeDominanceFrontiers computes the dominance frontier for every vertex
// in the graph, against the vertex with the given start index.
//
// The frontier walk stops as soon as a vertex without an immediate dominator
// entry is reached, so frontiers of regions not dominated by start may be
// under-populated. See Cooper, Harvey and Kennedy, "A Simple, Fast Dominance
// Algorithm" for the canonical formulation.
func (g *Graph[V, E]) ComputeDominanceFrontiers(start uint64) (map[uint64]Set, error) {
	df := make(map[uint64]Set, len(g.vertices))
	for index := range g.vertices {
		df[index] = make(Set)
	}

	idoms, err := g.ComputeImmediateDominators(start)
	if err != nil {
		return nil, err
	}

	for _, index := range g.vertexIndices() {
		// Only join points contribute to dominance frontiers.
		if len(g.edgesIn[index]) < 2 {
			continue
		}
		for _, e := range g.edgesIn[index] {
			idomHead, ok := idoms[e.Head()]
			runner := e.Head()
			for ok && runner != idomHead {
				df[runner][index] = true
				idomRunner, haveIdom := idoms[runner]
				if !haveIdom {
					break
				}
				runner = idomRunner
			}
		}
	}

	return df, nil
}
