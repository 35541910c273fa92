package il

import (
	"fmt"
	"strings"
)

// An Instruction is an Operation with an index unique within its Block, an
// optional comment, and an optional native address.
type Instruction struct {
	index     uint64
	operation Operation
	comment   string
	address   *uint64
}

// newInstruction returns a new instruction over the given operation.
func newInstruction(index uint64, operation Operation) *Instruction {
	return &Instruction{index: index, operation: operation}
}

// Index returns the index of this instruction within its block.
func (i *Instruction) Index() uint64 { return i.index }

// Operation returns the operation of this instruction.
func (i *Instruction) Operation() Operation { return i.operation }

// SetOperation replaces the operation of this instruction.
func (i *Instruction) SetOperation(operation Operation) {
	i.operation = operation
}

// Comment returns the comment attached to this instruction.
func (i *Instruction) Comment() string { return i.comment }

// SetComment attaches a comment to this instruction.
func (i *Instruction) SetComment(comment string) { i.comment = comment }

// Address returns the native address of this instruction, if set.
func (i *Instruction) Address() (uint64, bool) {
	if i.address == nil {
		return 0, false
	}
	return *i.address, true
}

// SetAddress sets the native address of this instruction.
func (i *Instruction) SetAddress(address uint64) {
	i.address = &address
}

// VariablesRead returns every variable read by this instruction.
func (i *Instruction) VariablesRead() []Variable {
	return i.operation.VariablesRead()
}

// VariableWritten returns the variable written by this instruction, if any.
func (i *Instruction) VariableWritten() (Variable, bool) {
	return i.operation.VariableWritten()
}

// clone returns a deep copy of this instruction with the given index.
func (i *Instruction) clone(index uint64) *Instruction {
	c := *i
	c.index = index
	return &c
}

func (i *Instruction) String() string {
	var buf strings.Builder
	if i.comment != "" {
		fmt.Fprintf(&buf, "// %s\n", i.comment)
	}
	if i.address != nil {
		fmt.Fprintf(&buf, "%02X %08X %s", i.index, *i.address, i.operation)
	} else {
		fmt.Fprintf(&buf, "%02X %s", i.index, i.operation)
	}
	return buf.String()
}
