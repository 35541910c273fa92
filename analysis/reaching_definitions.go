package analysis

import (
	"github.com/chubbymaggie/falcon/il"
)

// Reaches holds the definitions reaching into and out of an analysis
// location.
type Reaches struct {
	in  LocationSet
	out LocationSet
}

// newReaches returns an empty Reaches.
func newReaches() *Reaches {
	return &Reaches{in: make(LocationSet), out: make(LocationSet)}
}

// In returns the set of definitions reaching into this location. The returned
// set is owned by the analysis result.
func (r *Reaches) In() LocationSet { return r.in }

// Out returns the set of definitions reaching out of this location. The
// returned set is owned by the analysis result.
func (r *Reaches) Out() LocationSet { return r.out }

// A locationQueue is a FIFO work list of analysis locations.
type locationQueue struct {
	l []AnalysisLocation
	i int
}

// push appends the given location to the end of the queue.
func (q *locationQueue) push(loc AnalysisLocation) {
	q.l = append(q.l, loc)
}

// has reports whether the given location is pending in the queue.
func (q *locationQueue) has(loc AnalysisLocation) bool {
	for _, pending := range q.l[q.i:] {
		if pending == loc {
			return true
		}
	}
	return false
}

// pop pops and returns the first location of the queue.
func (q *locationQueue) pop() AnalysisLocation {
	loc := q.l[q.i]
	q.i++
	return loc
}

// empty reports whether the queue is empty.
func (q *locationQueue) empty() bool {
	return len(q.l[q.i:]) == 0
}

// flowGraph is the location-level flow relation of a control flow graph:
// instruction to instruction within a block, block tail to outgoing edges,
// and edge to the entry location of its tail block.
type flowGraph struct {
	successors   map[AnalysisLocation][]AnalysisLocation
	predecessors map[AnalysisLocation][]AnalysisLocation
	// Variable written at each instruction location, when any.
	written map[AnalysisLocation]il.MultiVar
}

// newFlowGraph builds the location-level flow relation for the given control
// flow graph.
func newFlowGraph(cfg *il.ControlFlowGraph) (*flowGraph, error) {
	fg := &flowGraph{
		successors:   make(map[AnalysisLocation][]AnalysisLocation),
		predecessors: make(map[AnalysisLocation][]AnalysisLocation),
		written:      make(map[AnalysisLocation]il.MultiVar),
	}

	// entryLocation is the first location of each block: its first
	// instruction, or the empty-block sentinel.
	entryLocation := make(map[uint64]AnalysisLocation)

	for _, block := range cfg.Blocks() {
		instructions := block.Instructions()
		if len(instructions) == 0 {
			loc := EmptyBlockLocation(block.Index())
			entryLocation[block.Index()] = loc
			fg.touch(loc)
			continue
		}
		var prev AnalysisLocation
		for i, instruction := range instructions {
			loc := InstructionLocation(block.Index(), instruction.Index())
			fg.touch(loc)
			if written, ok := instruction.VariableWritten(); ok {
				fg.written[loc] = written.MultiVarClone()
			}
			if i == 0 {
				entryLocation[block.Index()] = loc
			} else {
				fg.link(prev, loc)
			}
			prev = loc
		}
	}

	for _, block := range cfg.Blocks() {
		// The last location of the block flows into its outgoing edges.
		last := entryLocation[block.Index()]
		if instructions := block.Instructions(); len(instructions) > 0 {
			last = InstructionLocation(block.Index(), instructions[len(instructions)-1].Index())
		}
		edgesOut, err := cfg.Graph().EdgesOut(block.Index())
		if err != nil {
			return nil, err
		}
		for _, e := range edgesOut {
			edgeLoc := EdgeLocation(e.Head(), e.Tail())
			fg.touch(edgeLoc)
			fg.link(last, edgeLoc)
			fg.link(edgeLoc, entryLocation[e.Tail()])
		}
	}

	return fg, nil
}

// touch ensures a location is present in the flow relation.
func (fg *flowGraph) touch(loc AnalysisLocation) {
	if _, ok := fg.successors[loc]; !ok {
		fg.successors[loc] = nil
	}
	if _, ok := fg.predecessors[loc]; !ok {
		fg.predecessors[loc] = nil
	}
}

// link records that control flows from one location to another.
func (fg *flowGraph) link(from, to AnalysisLocation) {
	fg.successors[from] = append(fg.successors[from], to)
	fg.predecessors[to] = append(fg.predecessors[to], from)
}

// ReachingDefinitions computes, for every location of the given control flow
// graph, the set of definitions which may be observed unmodified at that
// location.
//
// A definition is the location of an instruction writing a variable. A
// definition reaching an instruction which writes the same variable is killed
// past that instruction. Edge and empty-block locations pass definitions
// through unmodified.
func ReachingDefinitions(cfg *il.ControlFlowGraph) (map[AnalysisLocation]*Reaches, error) {
	fg, err := newFlowGraph(cfg)
	if err != nil {
		return nil, err
	}

	reaches := make(map[AnalysisLocation]*Reaches, len(fg.successors))
	for loc := range fg.successors {
		reaches[loc] = newReaches()
	}

	q := &locationQueue{}
	for _, loc := range sortedLocations(reaches) {
		q.push(loc)
	}

	for !q.empty() {
		loc := q.pop()
		r := reaches[loc]

		// in is the union of the predecessors' out sets.
		in := make(LocationSet)
		for _, predecessor := range fg.predecessors[loc] {
			for d := range reaches[predecessor].out {
				in[d] = true
			}
		}

		// Transfer: a write kills earlier definitions of the same variable
		// and generates a definition at this location.
		out := in.clone()
		if written, ok := fg.written[loc]; ok {
			for d := range in {
				if fg.written[d] == written {
					delete(out, d)
				}
			}
			out[loc] = true
		}

		changed := !r.in.equal(in) || !r.out.equal(out)
		r.in = in
		r.out = out

		if changed {
			for _, successor := range fg.successors[loc] {
				if !q.has(successor) {
					q.push(successor)
				}
			}
		}
	}

	return reaches, nil
}
