package llvmir

import (
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chubbymaggie/falcon/il"
)

const branchSource = `
define i32 @f(i32 %a) {
entry:
	%c = icmp eq i32 %a, 0
	br i1 %c, label %then, label %else
then:
	br label %end
else:
	br label %end
end:
	ret i32 %a
}
`

func TestTranslateFunctionBranch(t *testing.T) {
	module, err := asm.ParseString("branch.ll", branchSource)
	require.NoError(t, err)
	require.Len(t, module.Funcs, 1)

	function, err := TranslateFunction(module.Funcs[0], 0)
	require.NoError(t, err)
	assert.Equal(t, "f", function.Name())

	cfg := function.ControlFlowGraph()
	blocks := cfg.Blocks()
	require.Len(t, blocks, 4)

	// entry branches conditionally, both arms join unconditionally in end.
	edges := cfg.Edges()
	require.Len(t, edges, 4)
	conditional := 0
	for _, e := range edges {
		if e.Condition() != nil {
			conditional++
			assert.Equal(t, 1, e.Condition().Bits())
		}
	}
	assert.Equal(t, 2, conditional)

	// The entry block carries the lowered icmp.
	entryBlock, ok := cfg.EntryBlock()
	require.True(t, ok)
	require.Len(t, entryBlock.Instructions(), 1)
	written, ok := entryBlock.Instructions()[0].VariableWritten()
	require.True(t, ok)
	assert.Equal(t, "c", written.Name())

	// A single terminal block becomes the exit.
	exit, ok := cfg.Exit()
	require.True(t, ok)
	exitBlock, err := cfg.Block(exit)
	require.NoError(t, err)
	assert.True(t, exitBlock.IsEmpty())
}

const arithSource = `
define i32 @sum(i32 %a, i32 %b) {
entry:
	%t = add i32 %a, %b
	%u = mul i32 %t, 2
	ret i32 %u
}
`

func TestTranslateArithmetic(t *testing.T) {
	module, err := asm.ParseString("arith.ll", arithSource)
	require.NoError(t, err)

	program, err := TranslateModule(module)
	require.NoError(t, err)
	functions := program.Functions()
	require.Len(t, functions, 1)

	cfg := functions[0].ControlFlowGraph()
	blocks := cfg.Blocks()
	require.Len(t, blocks, 1)
	instructions := blocks[0].Instructions()
	require.Len(t, instructions, 2)

	// %t = add i32 %a, %b reads a and b, writes t.
	read := instructions[0].VariablesRead()
	require.Len(t, read, 2)
	assert.Equal(t, "a", read[0].Name())
	assert.Equal(t, "b", read[1].Name())
	written, ok := instructions[0].VariableWritten()
	require.True(t, ok)
	assert.Equal(t, il.NewScalar("t", 32).MultiVarClone(), written.MultiVarClone())

	// The single-block function is its own entry and exit.
	entry, ok := cfg.Entry()
	require.True(t, ok)
	exit, ok := cfg.Exit()
	require.True(t, ok)
	assert.Equal(t, entry, exit)
}

const declarationSource = `
declare i32 @external(i32)

define i32 @g() {
entry:
	ret i32 0
}
`

func TestTranslateModuleSkipsDeclarations(t *testing.T) {
	module, err := asm.ParseString("decl.ll", declarationSource)
	require.NoError(t, err)

	program, err := TranslateModule(module)
	require.NoError(t, err)
	functions := program.Functions()
	require.Len(t, functions, 1)
	assert.Equal(t, "g", functions[0].Name())
}
