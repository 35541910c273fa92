package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chubbymaggie/falcon/il"
)

func TestReachingDefinitionsStraightLine(t *testing.T) {
	cfg := il.NewControlFlowGraph()
	b, err := cfg.NewBlock()
	require.NoError(t, err)
	x := il.NewScalar("x", 32)
	y := il.NewScalar("y", 32)
	first := b.Assign(x, il.NewConstant(1, 32))
	second := b.Assign(x, il.NewConstant(2, 32))
	third := b.Assign(y, x)

	rd, err := ReachingDefinitions(cfg)
	require.NoError(t, err)

	firstLoc := InstructionLocation(b.Index(), first.Index())
	secondLoc := InstructionLocation(b.Index(), second.Index())
	thirdLoc := InstructionLocation(b.Index(), third.Index())

	// Every location of the graph is covered.
	require.Contains(t, rd, firstLoc)
	require.Contains(t, rd, secondLoc)
	require.Contains(t, rd, thirdLoc)

	// Nothing reaches the first definition.
	assert.Empty(t, rd[firstLoc].In())

	// The second write of x kills the first.
	assert.Equal(t, LocationSet{firstLoc: true}, rd[secondLoc].In())
	assert.Equal(t, LocationSet{secondLoc: true}, rd[thirdLoc].In())
	assert.Equal(t, LocationSet{secondLoc: true, thirdLoc: true}, rd[thirdLoc].Out())
}

func TestReachingDefinitionsJoin(t *testing.T) {
	// b0 defines x and branches to b1 (which redefines x) and b2 (empty);
	// both join in b3. Both definitions of x reach b3.
	cfg := il.NewControlFlowGraph()
	b0, err := cfg.NewBlock()
	require.NoError(t, err)
	b1, err := cfg.NewBlock()
	require.NoError(t, err)
	b2, err := cfg.NewBlock()
	require.NoError(t, err)
	b3, err := cfg.NewBlock()
	require.NoError(t, err)

	x := il.NewScalar("x", 32)
	def0 := b0.Assign(x, il.NewConstant(1, 32))
	def1 := b1.Assign(x, il.NewConstant(2, 32))
	use := b3.Assign(il.NewScalar("y", 32), x)

	cond, err := il.Cmpeq(x, il.NewConstant(0, 32))
	require.NoError(t, err)
	notCond, err := il.Cmpneq(x, il.NewConstant(0, 32))
	require.NoError(t, err)
	require.NoError(t, cfg.ConditionalEdge(b0.Index(), b1.Index(), cond))
	require.NoError(t, cfg.ConditionalEdge(b0.Index(), b2.Index(), notCond))
	require.NoError(t, cfg.UnconditionalEdge(b1.Index(), b3.Index()))
	require.NoError(t, cfg.UnconditionalEdge(b2.Index(), b3.Index()))

	rd, err := ReachingDefinitions(cfg)
	require.NoError(t, err)

	def0Loc := InstructionLocation(b0.Index(), def0.Index())
	def1Loc := InstructionLocation(b1.Index(), def1.Index())
	useLoc := InstructionLocation(b3.Index(), use.Index())
	emptyLoc := EmptyBlockLocation(b2.Index())

	// The empty block passes b0's definition through unmodified.
	assert.Equal(t, LocationSet{def0Loc: true}, rd[emptyLoc].In())
	assert.Equal(t, LocationSet{def0Loc: true}, rd[emptyLoc].Out())

	// Along the b1 arm the redefinition kills def0; the join sees both.
	assert.Equal(t, LocationSet{def1Loc: true}, rd[InstructionLocation(b1.Index(), def1.Index())].Out())
	assert.Equal(t, LocationSet{def0Loc: true, def1Loc: true}, rd[useLoc].In())

	// Edge locations are covered and pass definitions through.
	edgeLoc := EdgeLocation(b1.Index(), b3.Index())
	require.Contains(t, rd, edgeLoc)
	assert.Equal(t, LocationSet{def1Loc: true}, rd[edgeLoc].Out())
}
