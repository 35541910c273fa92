package il

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInstructionNotFound indicates a lookup of an instruction index not
// present in a block.
var ErrInstructionNotFound = errors.New("il: instruction not found")

// A Block is a straight-line sequence of instructions with an index unique
// within its ControlFlowGraph.
//
// Blocks are created by ControlFlowGraph.NewBlock, which assigns the index.
type Block struct {
	index                uint64
	instructions         []*Instruction
	nextInstructionIndex uint64
}

// NewBlock returns a new, empty block with the given index.
func NewBlock(index uint64) *Block {
	return &Block{index: index}
}

// Index returns the index of this block.
func (b *Block) Index() uint64 { return b.index }

// Instructions returns the instructions of this block in execution order.
func (b *Block) Instructions() []*Instruction {
	return b.instructions
}

// Instruction returns the instruction with the given index.
func (b *Block) Instruction(index uint64) (*Instruction, error) {
	for _, instruction := range b.instructions {
		if instruction.Index() == index {
			return instruction, nil
		}
	}
	return nil, errors.Wrapf(ErrInstructionNotFound, "instruction %d in block 0x%X", index, b.index)
}

// IsEmpty reports whether this block holds no instructions.
func (b *Block) IsEmpty() bool {
	return len(b.instructions) == 0
}

// newInstructionIndex reserves the next instruction index of this block.
func (b *Block) newInstructionIndex() uint64 {
	index := b.nextInstructionIndex
	b.nextInstructionIndex++
	return index
}

// push appends an operation to this block as a new instruction.
func (b *Block) push(operation Operation) *Instruction {
	instruction := newInstruction(b.newInstructionIndex(), operation)
	b.instructions = append(b.instructions, instruction)
	return instruction
}

// Assign appends an assignment of src to dst to this block.
func (b *Block) Assign(dst Scalar, src Expression) *Instruction {
	return b.push(Assign{dst: dst, src: src})
}

// Store appends a store of src at the given memory index to this block.
func (b *Block) Store(index, src Expression) *Instruction {
	return b.push(Store{index: index, src: src})
}

// Load appends a load from the given memory index into dst to this block.
func (b *Block) Load(dst Scalar, index Expression) *Instruction {
	return b.push(Load{dst: dst, index: index})
}

// Raise appends a raise of the given expression to this block.
func (b *Block) Raise(expr Expression) *Instruction {
	return b.push(Raise{expr: expr})
}

// RemoveInstruction removes the instruction with the given index from this
// block.
func (b *Block) RemoveInstruction(index uint64) error {
	for i, instruction := range b.instructions {
		if instruction.Index() == index {
			b.instructions = append(b.instructions[:i:i], b.instructions[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrInstructionNotFound, "instruction %d in block 0x%X", index, b.index)
}

// Append concatenates the instructions of another block onto the end of this
// block. Appended instructions receive fresh indices within this block.
func (b *Block) Append(other *Block) {
	for _, instruction := range other.instructions {
		c := instruction.clone(b.newInstructionIndex())
		b.instructions = append(b.instructions, c)
	}
}

// Clone returns a deep copy of this block, preserving its index and the
// indices of its instructions.
func (b *Block) Clone() *Block {
	return b.CloneNewIndex(b.index)
}

// CloneNewIndex returns a deep copy of this block with a new block index.
// Instruction indices are preserved.
func (b *Block) CloneNewIndex(index uint64) *Block {
	c := &Block{
		index:                index,
		nextInstructionIndex: b.nextInstructionIndex,
	}
	for _, instruction := range b.instructions {
		c.instructions = append(c.instructions, instruction.clone(instruction.Index()))
	}
	return c
}

// DotLabel returns the rendering of this block for dot graphviz output.
func (b *Block) DotLabel() string { return b.String() }

func (b *Block) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[ Block: 0x%X ]\n", b.index)
	for _, instruction := range b.instructions {
		fmt.Fprintf(&buf, "%s\n", instruction)
	}
	return buf.String()
}
