package il

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/chubbymaggie/falcon/graph"
)

// Sentinel errors for control flow graph composition.
var (
	// ErrEntryExitNotSet indicates a structural operation required entry and
	// exit markers which were not set.
	ErrEntryExitNotSet = errors.New("il: entry/exit not set on control flow graph")

	// ErrBlockNotFound indicates an operation referenced a block index not
	// present in a control flow graph.
	ErrBlockNotFound = errors.New("il: block not found")
)

// === [ Edge ] ================================================================

// An Edge connects two blocks of a ControlFlowGraph.
//
// An Edge carries an optional condition. When present, the condition is an
// Expression which must evaluate to a 1-bit value; the edge is taken when the
// condition evaluates to 1. When absent, the edge is unconditional and always
// taken.
//
// Edges are created by ControlFlowGraph.UnconditionalEdge and
// ControlFlowGraph.ConditionalEdge.
type Edge struct {
	head      uint64
	tail      uint64
	condition Expression
	comment   string
}

// newEdge returns a new edge between the given block indices. A nil condition
// makes the edge unconditional.
func newEdge(head, tail uint64, condition Expression) *Edge {
	return &Edge{head: head, tail: tail, condition: condition}
}

// Head returns the index of the head block of this edge.
func (e *Edge) Head() uint64 { return e.head }

// Tail returns the index of the tail block of this edge.
func (e *Edge) Tail() uint64 { return e.tail }

// Condition returns the condition of this edge, or nil when the edge is
// unconditional.
func (e *Edge) Condition() Expression { return e.condition }

// SetCondition replaces the condition of this edge.
func (e *Edge) SetCondition(condition Expression) { e.condition = condition }

// Comment returns the comment attached to this edge.
func (e *Edge) Comment() string { return e.comment }

// SetComment attaches a comment to this edge.
func (e *Edge) SetComment(comment string) { e.comment = comment }

// clone returns a copy of this edge with the given endpoints.
func (e *Edge) clone(head, tail uint64) *Edge {
	return &Edge{head: head, tail: tail, condition: e.condition, comment: e.comment}
}

// DotLabel returns the rendering of this edge for dot graphviz output.
func (e *Edge) DotLabel() string { return e.String() }

func (e *Edge) String() string {
	var buf strings.Builder
	if e.comment != "" {
		fmt.Fprintf(&buf, "// %s\n", e.comment)
	}
	if e.condition != nil {
		fmt.Fprintf(&buf, "(0x%X->0x%X) ? (%s)", e.head, e.tail, e.condition)
	}
	return buf.String()
}

// === [ ControlFlowGraph ] ====================================================

// A ControlFlowGraph is a directed graph of Block and Edge.
//
// A ControlFlowGraph has an optional entry and an optional exit block index.
// When both are set, graphs compose: Append chains one graph onto another
// through the exit, and Insert imports a graph for later wiring. Translators
// which lift single instructions into small graphs rely on these markers.
type ControlFlowGraph struct {
	// The internal graph used to store the blocks.
	graph *graph.Graph[*Block, *Edge]
	// The next index to use when creating a basic block.
	nextIndex uint64
	// The index of the next temporary scalar. Advanced through shared
	// handles, so translators holding a read-only view may still allocate
	// temporaries.
	nextTempIndex *atomic.Uint64
	// Optional entry block index.
	entry *uint64
	// Optional exit block index.
	exit *uint64
	// True once SSA numbering has been applied.
	ssaForm bool
}

// NewControlFlowGraph returns a new, empty control flow graph.
func NewControlFlowGraph() *ControlFlowGraph {
	return &ControlFlowGraph{
		graph:         graph.NewGraph[*Block, *Edge](),
		nextTempIndex: new(atomic.Uint64),
	}
}

// Graph returns the underlying graph.
func (cfg *ControlFlowGraph) Graph() *graph.Graph[*Block, *Edge] {
	return cfg.graph
}

// SetEntry sets the entry block of this control flow graph.
func (cfg *ControlFlowGraph) SetEntry(entry uint64) error {
	if !cfg.graph.HasVertex(entry) {
		return errors.Wrapf(ErrBlockNotFound, "cannot set entry to %d", entry)
	}
	cfg.entry = &entry
	return nil
}

// SetExit sets the exit block of this control flow graph.
func (cfg *ControlFlowGraph) SetExit(exit uint64) error {
	if !cfg.graph.HasVertex(exit) {
		return errors.Wrapf(ErrBlockNotFound, "cannot set exit to %d", exit)
	}
	cfg.exit = &exit
	return nil
}

// Entry returns the entry block index, if set.
func (cfg *ControlFlowGraph) Entry() (uint64, bool) {
	if cfg.entry == nil {
		return 0, false
	}
	return *cfg.entry, true
}

// Exit returns the exit block index, if set.
func (cfg *ControlFlowGraph) Exit() (uint64, bool) {
	if cfg.exit == nil {
		return 0, false
	}
	return *cfg.exit, true
}

// Block returns the block with the given index.
func (cfg *ControlFlowGraph) Block(index uint64) (*Block, error) {
	block, err := cfg.graph.Vertex(index)
	if err != nil {
		return nil, errors.Wrapf(ErrBlockNotFound, "block 0x%X", index)
	}
	return block, nil
}

// Blocks returns every block of this control flow graph, ordered by index.
func (cfg *ControlFlowGraph) Blocks() []*Block {
	return cfg.graph.Vertices()
}

// Edge returns the edge between the given block indices.
func (cfg *ControlFlowGraph) Edge(head, tail uint64) (*Edge, error) {
	return cfg.graph.Edge(head, tail)
}

// Edges returns every edge of this control flow graph, ordered by endpoints.
func (cfg *ControlFlowGraph) Edges() []*Edge {
	return cfg.graph.Edges()
}

// EntryBlock returns the entry block of this control flow graph, if entry is
// set.
func (cfg *ControlFlowGraph) EntryBlock() (*Block, bool) {
	if cfg.entry == nil {
		return nil, false
	}
	block, err := cfg.Block(*cfg.entry)
	if err != nil {
		return nil, false
	}
	return block, true
}

// SSAForm reports whether SSA numbering has been applied to this graph.
func (cfg *ControlFlowGraph) SSAForm() bool { return cfg.ssaForm }

// SetSSAForm records whether SSA numbering has been applied to this graph.
func (cfg *ControlFlowGraph) SetSSAForm(ssaForm bool) { cfg.ssaForm = ssaForm }

// Temp generates a temporary scalar unique to this control flow graph.
func (cfg *ControlFlowGraph) Temp(bits int) Scalar {
	next := cfg.nextTempIndex.Add(1) - 1
	return NewScalar(fmt.Sprintf("temp_%d", next), bits)
}

// SetAddress sets the address of every instruction in this control flow
// graph. Useful for translators lifting a single native instruction.
func (cfg *ControlFlowGraph) SetAddress(address uint64) {
	for _, block := range cfg.Blocks() {
		for _, instruction := range block.Instructions() {
			instruction.SetAddress(address)
		}
	}
}

// NewBlock creates a new, empty basic block, adds it to the graph, and
// returns it.
func (cfg *ControlFlowGraph) NewBlock() (*Block, error) {
	index := cfg.nextIndex
	cfg.nextIndex++
	block := NewBlock(index)
	if err := cfg.graph.InsertVertex(block); err != nil {
		return nil, err
	}
	return block, nil
}

// UnconditionalEdge creates an unconditional edge from one block to another.
func (cfg *ControlFlowGraph) UnconditionalEdge(head, tail uint64) error {
	return cfg.graph.InsertEdge(newEdge(head, tail, nil))
}

// ConditionalEdge creates a conditional edge from one block to another,
// guarded by the given condition. The condition is not validated here; IL
// validation ensures it evaluates to a 1-bit value.
func (cfg *ControlFlowGraph) ConditionalEdge(head, tail uint64, condition Expression) error {
	return cfg.graph.InsertEdge(newEdge(head, tail, condition))
}

// Merge contracts straight-line block pairs.
//
// When a block has exactly one successor along an unconditional edge, and
// that successor has exactly one predecessor, the successor's instructions
// are concatenated onto the block, the successor's outgoing edges are rewired
// to originate at the block, and the successor is removed. This repeats until
// no such pair remains.
func (cfg *ControlFlowGraph) Merge() error {
	for {
		found := false
		var mergeIndex, successorIndex uint64
		for _, block := range cfg.Blocks() {
			successors, err := cfg.graph.EdgesOut(block.Index())
			if err != nil {
				return err
			}

			// A block with anything but a single unconditional successor is
			// left alone.
			if len(successors) != 1 {
				continue
			}
			if successors[0].Condition() != nil {
				continue
			}
			successor := successors[0].Tail()

			predecessors, err := cfg.graph.EdgesIn(successor)
			if err != nil {
				return err
			}
			if len(predecessors) != 1 {
				continue
			}

			mergeIndex = block.Index()
			successorIndex = successor
			found = true
			break
		}

		if !found {
			return nil
		}

		mergeBlock, err := cfg.Block(mergeIndex)
		if err != nil {
			return err
		}
		successorBlock, err := cfg.Block(successorIndex)
		if err != nil {
			return err
		}

		// Merge the blocks.
		mergeBlock.Append(successorBlock)

		// All of the successor's successors become the merged block's
		// successors.
		edgesOut, err := cfg.graph.EdgesOut(successorIndex)
		if err != nil {
			return err
		}
		newEdges := make([]*Edge, 0, len(edgesOut))
		for _, e := range edgesOut {
			newEdges = append(newEdges, e.clone(mergeIndex, e.Tail()))
		}
		for _, e := range newEdges {
			if err := cfg.graph.InsertEdge(e); err != nil {
				return err
			}
		}

		// Remove the block we just merged.
		if err := cfg.graph.RemoveVertex(successorIndex); err != nil {
			return err
		}
	}
}

// importBlocks clones every block and edge of another control flow graph into
// this one, assigning fresh block indices. Returns the mapping from the other
// graph's block indices to the fresh indices.
func (cfg *ControlFlowGraph) importBlocks(other *ControlFlowGraph) (map[uint64]uint64, error) {
	blockMap := make(map[uint64]uint64)
	for _, block := range other.graph.Vertices() {
		newBlock := block.CloneNewIndex(cfg.nextIndex)
		blockMap[block.Index()] = cfg.nextIndex
		cfg.nextIndex++
		if err := cfg.graph.InsertVertex(newBlock); err != nil {
			return nil, err
		}
	}
	for _, e := range other.graph.Edges() {
		imported := e.clone(blockMap[e.Head()], blockMap[e.Tail()])
		if err := cfg.graph.InsertEdge(imported); err != nil {
			return nil, err
		}
	}
	return blockMap, nil
}

// Append appends another control flow graph to this one.
//
// The other graph must have entry and exit set, and so must this graph unless
// it is empty. The other graph's blocks are imported under fresh indices, an
// unconditional edge is created from this graph's exit to the imported entry
// (unless this graph was empty), and this graph's exit becomes the imported
// exit.
func (cfg *ControlFlowGraph) Append(other *ControlFlowGraph) error {
	isEmpty := cfg.graph.NumVertices() == 0

	if !isEmpty && (cfg.entry == nil || cfg.exit == nil) {
		return errors.Wrap(ErrEntryExitNotSet, "append destination")
	}
	otherEntry, ok := other.Entry()
	if !ok {
		return errors.Wrap(ErrEntryExitNotSet, "append source")
	}
	otherExit, ok := other.Exit()
	if !ok {
		return errors.Wrap(ErrEntryExitNotSet, "append source")
	}

	blockMap, err := cfg.importBlocks(other)
	if err != nil {
		return err
	}

	if isEmpty {
		entry := blockMap[otherEntry]
		cfg.entry = &entry
	} else {
		// Chain the graphs through the current exit.
		if err := cfg.UnconditionalEdge(*cfg.exit, blockMap[otherEntry]); err != nil {
			return err
		}
	}

	exit := blockMap[otherExit]
	cfg.exit = &exit

	return nil
}

// Insert inserts another control flow graph into this one, and returns the
// fresh indices of the inserted graph's entry and exit blocks.
//
// No connecting edges are created; the graph becomes disconnected. This is
// useful for importing multiple graphs before wiring all edges in a
// subsequent pass. The entry and exit of this control flow graph are
// invalidated.
func (cfg *ControlFlowGraph) Insert(other *ControlFlowGraph) (uint64, uint64, error) {
	otherEntry, ok := other.Entry()
	if !ok {
		return 0, 0, errors.Wrap(ErrEntryExitNotSet, "insert source")
	}
	otherExit, ok := other.Exit()
	if !ok {
		return 0, 0, errors.Wrap(ErrEntryExitNotSet, "insert source")
	}

	// The entry and exit of this graph are no longer valid.
	cfg.entry = nil
	cfg.exit = nil

	blockMap, err := cfg.importBlocks(other)
	if err != nil {
		return 0, 0, err
	}

	return blockMap[otherEntry], blockMap[otherExit], nil
}

// Clone returns a deep copy of this control flow graph.
func (cfg *ControlFlowGraph) Clone() *ControlFlowGraph {
	c := NewControlFlowGraph()
	c.nextIndex = cfg.nextIndex
	c.nextTempIndex.Store(cfg.nextTempIndex.Load())
	c.ssaForm = cfg.ssaForm
	for _, block := range cfg.graph.Vertices() {
		if err := c.graph.InsertVertex(block.Clone()); err != nil {
			panic(fmt.Errorf("invalid clone; duplicate block 0x%X", block.Index()))
		}
	}
	for _, e := range cfg.graph.Edges() {
		if err := c.graph.InsertEdge(e.clone(e.Head(), e.Tail())); err != nil {
			panic(fmt.Errorf("invalid clone; duplicate edge %d -> %d", e.Head(), e.Tail()))
		}
	}
	if cfg.entry != nil {
		entry := *cfg.entry
		c.entry = &entry
	}
	if cfg.exit != nil {
		exit := *cfg.exit
		c.exit = &exit
	}
	return c
}

// DotGraph returns this control flow graph in the Graphviz DOT format.
func (cfg *ControlFlowGraph) DotGraph() string {
	return cfg.graph.DotGraph()
}

func (cfg *ControlFlowGraph) String() string {
	var buf strings.Builder
	for _, block := range cfg.Blocks() {
		fmt.Fprintf(&buf, "%s\n", block)
	}
	return buf.String()
}
