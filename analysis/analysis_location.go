// Package analysis implements dataflow analyses over IL control flow graphs:
// reaching definitions and def-use/use-def chains.
package analysis

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/chubbymaggie/falcon/il"
)

// ErrLocationNotFound indicates an AnalysisLocation no longer resolves
// against a control flow graph. This is a caller-caused inconsistency; the
// underlying IL was mutated after the location was taken.
var ErrLocationNotFound = errors.New("analysis: location not found")

// A LocationKind discriminates the shapes of an AnalysisLocation.
type LocationKind int

// Location kinds.
const (
	// KindEdge locates an edge between two blocks.
	KindEdge LocationKind = iota
	// KindInstruction locates an instruction within a block.
	KindInstruction
	// KindEmptyBlock locates a block holding no instructions.
	KindEmptyBlock
)

func (k LocationKind) String() string {
	switch k {
	case KindEdge:
		return "edge"
	case KindInstruction:
		return "instruction"
	case KindEmptyBlock:
		return "empty-block"
	}
	panic(fmt.Sprintf("invalid location kind %d", int(k)))
}

// An AnalysisLocation names a point of a ControlFlowGraph: an instruction
// within a block, an edge between two blocks, or an empty block.
//
// AnalysisLocation is a cheap comparable value; it is usable as a map key and
// totally ordered by Compare.
type AnalysisLocation struct {
	kind LocationKind
	// Edge endpoints, valid for KindEdge.
	head uint64
	tail uint64
	// Block index, valid for KindInstruction and KindEmptyBlock.
	block uint64
	// Instruction index within block, valid for KindInstruction.
	instruction uint64
}

// EdgeLocation returns the location of the edge between the given block
// indices.
func EdgeLocation(head, tail uint64) AnalysisLocation {
	return AnalysisLocation{kind: KindEdge, head: head, tail: tail}
}

// InstructionLocation returns the location of the instruction with the given
// index within the given block.
func InstructionLocation(block, instruction uint64) AnalysisLocation {
	return AnalysisLocation{kind: KindInstruction, block: block, instruction: instruction}
}

// EmptyBlockLocation returns the location of a block holding no instructions.
func EmptyBlockLocation(block uint64) AnalysisLocation {
	return AnalysisLocation{kind: KindEmptyBlock, block: block}
}

// Kind returns the shape of this location.
func (loc AnalysisLocation) Kind() LocationKind { return loc.kind }

// Head returns the head block index of an edge location.
func (loc AnalysisLocation) Head() uint64 { return loc.head }

// Tail returns the tail block index of an edge location.
func (loc AnalysisLocation) Tail() uint64 { return loc.tail }

// Block returns the block index of an instruction or empty-block location.
func (loc AnalysisLocation) Block() uint64 { return loc.block }

// Instruction returns the instruction index of an instruction location.
func (loc AnalysisLocation) Instruction() uint64 { return loc.instruction }

// FindEdge resolves an edge location against the given control flow graph.
func (loc AnalysisLocation) FindEdge(cfg *il.ControlFlowGraph) (*il.Edge, error) {
	if loc.kind != KindEdge {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s is not an edge location", loc)
	}
	e, err := cfg.Edge(loc.head, loc.tail)
	if err != nil {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s", loc)
	}
	return e, nil
}

// FindInstruction resolves an instruction location against the given control
// flow graph.
func (loc AnalysisLocation) FindInstruction(cfg *il.ControlFlowGraph) (*il.Instruction, error) {
	if loc.kind != KindInstruction {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s is not an instruction location", loc)
	}
	block, err := cfg.Block(loc.block)
	if err != nil {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s", loc)
	}
	instruction, err := block.Instruction(loc.instruction)
	if err != nil {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s", loc)
	}
	return instruction, nil
}

// FindBlock resolves an empty-block location against the given control flow
// graph.
func (loc AnalysisLocation) FindBlock(cfg *il.ControlFlowGraph) (*il.Block, error) {
	if loc.kind != KindEmptyBlock {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s is not an empty-block location", loc)
	}
	block, err := cfg.Block(loc.block)
	if err != nil {
		return nil, errors.Wrapf(ErrLocationNotFound, "%s", loc)
	}
	return block, nil
}

// Compare totally orders locations. It returns a negative value when loc
// orders before other, zero when equal, and a positive value otherwise.
func (loc AnalysisLocation) Compare(other AnalysisLocation) int {
	if loc.kind != other.kind {
		return int(loc.kind) - int(other.kind)
	}
	fields := [4]uint64{loc.head, loc.tail, loc.block, loc.instruction}
	otherFields := [4]uint64{other.head, other.tail, other.block, other.instruction}
	for i := range fields {
		if fields[i] != otherFields[i] {
			if fields[i] < otherFields[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (loc AnalysisLocation) String() string {
	switch loc.kind {
	case KindEdge:
		return fmt.Sprintf("edge(0x%X->0x%X)", loc.head, loc.tail)
	case KindInstruction:
		return fmt.Sprintf("0x%X.%02X", loc.block, loc.instruction)
	case KindEmptyBlock:
		return fmt.Sprintf("empty(0x%X)", loc.block)
	}
	panic(fmt.Sprintf("invalid location kind %d", int(loc.kind)))
}

// A LocationSet is a set of analysis locations.
type LocationSet map[AnalysisLocation]bool

// contains reports whether the set contains the given location.
func (s LocationSet) contains(loc AnalysisLocation) bool {
	return s[loc]
}

// clone returns a copy of the set.
func (s LocationSet) clone() LocationSet {
	c := make(LocationSet, len(s))
	for loc := range s {
		c[loc] = true
	}
	return c
}

// equal reports whether two sets hold the same locations.
func (s LocationSet) equal(other LocationSet) bool {
	if len(s) != len(other) {
		return false
	}
	for loc := range s {
		if !other[loc] {
			return false
		}
	}
	return true
}

// Sorted returns the members of the set in Compare order.
func (s LocationSet) Sorted() []AnalysisLocation {
	locations := make([]AnalysisLocation, 0, len(s))
	for loc := range s {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].Compare(locations[j]) < 0
	})
	return locations
}

// SortedKeys returns the keys of a location-keyed map in Compare order.
func SortedKeys[T any](m map[AnalysisLocation]T) []AnalysisLocation {
	return sortedLocations(m)
}

// sortedLocations returns the keys of a location-keyed map in Compare order.
func sortedLocations[T any](m map[AnalysisLocation]T) []AnalysisLocation {
	locations := make([]AnalysisLocation, 0, len(m))
	for loc := range m {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].Compare(locations[j]) < 0
	})
	return locations
}
