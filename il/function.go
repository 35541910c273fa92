package il

import "fmt"

// A Function is a named ControlFlowGraph discovered at a native address.
type Function struct {
	address uint64
	name    string
	// Index assigned by the containing Program, if any.
	index *uint64
	cfg   *ControlFlowGraph
}

// NewFunction returns a new function over the given control flow graph,
// discovered at the given address. The function receives a default name based
// on its address.
func NewFunction(address uint64, cfg *ControlFlowGraph) *Function {
	return &Function{
		address: address,
		name:    fmt.Sprintf("unknown@%08X", address),
		cfg:     cfg,
	}
}

// Address returns the address this function was discovered at.
func (f *Function) Address() uint64 { return f.address }

// Name returns the name of this function.
func (f *Function) Name() string { return f.name }

// SetName sets the name of this function.
func (f *Function) SetName(name string) { f.name = name }

// Index returns the index assigned to this function by its program, if any.
func (f *Function) Index() (uint64, bool) {
	if f.index == nil {
		return 0, false
	}
	return *f.index, true
}

// setIndex records the index assigned by the containing program.
func (f *Function) setIndex(index uint64) {
	f.index = &index
}

// ControlFlowGraph returns the control flow graph of this function.
func (f *Function) ControlFlowGraph() *ControlFlowGraph {
	return f.cfg
}

func (f *Function) String() string {
	return fmt.Sprintf("%s@%08X", f.name, f.address)
}
