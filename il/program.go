package il

import (
	"fmt"
	"sort"
	"strings"
)

// A Program is an index of functions.
type Program struct {
	// Mapping of function indices (not addresses) to functions.
	functions map[uint64]*Function
	// The next index to assign to a function when added to the program.
	nextIndex uint64
}

// NewProgram returns a new, empty program.
func NewProgram() *Program {
	return &Program{functions: make(map[uint64]*Function)}
}

// FunctionByAddress searches for a function by the address it was discovered
// at.
func (p *Program) FunctionByAddress(address uint64) (*Function, bool) {
	for _, index := range p.functionIndices() {
		if p.functions[index].Address() == address {
			return p.functions[index], true
		}
	}
	return nil, false
}

// Functions returns every function of this program, ordered by index.
func (p *Program) Functions() []*Function {
	functions := make([]*Function, 0, len(p.functions))
	for _, index := range p.functionIndices() {
		functions = append(functions, p.functions[index])
	}
	return functions
}

// Function returns the function with the given index.
//
// A function index is assigned by the program and is not the address the
// function was discovered at.
func (p *Program) Function(index uint64) (*Function, bool) {
	f, ok := p.functions[index]
	return f, ok
}

// AddFunction adds a function to this program, assigning it an index.
func (p *Program) AddFunction(f *Function) {
	f.setIndex(p.nextIndex)
	p.functions[p.nextIndex] = f
	p.nextIndex++
}

// functionIndices returns every function index in ascending order.
func (p *Program) functionIndices() []uint64 {
	indices := make([]uint64, 0, len(p.functions))
	for index := range p.functions {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

func (p *Program) String() string {
	var buf strings.Builder
	for _, index := range p.functionIndices() {
		fmt.Fprintf(&buf, "%s@%08X\n", p.functions[index].Name(), index)
	}
	return buf.String()
}
