package il

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryWidths(t *testing.T) {
	x := NewScalar("x", 32)
	y := NewScalar("y", 32)

	sum, err := Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, 32, sum.Bits())

	_, err = Add(x, NewScalar("z", 64))
	assert.ErrorIs(t, err, ErrSort)
}

func TestComparisonsAreOneBit(t *testing.T) {
	x := NewScalar("x", 32)
	c := NewConstant(0, 32)

	for _, build := range []func(Expression, Expression) (Expression, error){Cmpeq, Cmpneq, Cmplts, Cmpltu} {
		e, err := build(x, c)
		require.NoError(t, err)
		assert.Equal(t, 1, e.Bits())
	}
}

func TestCastWidths(t *testing.T) {
	x := NewScalar("x", 8)

	wide, err := Zext(32, x)
	require.NoError(t, err)
	assert.Equal(t, 32, wide.Bits())

	_, err = Zext(8, x)
	assert.ErrorIs(t, err, ErrSort)
	_, err = Trunc(8, x)
	assert.ErrorIs(t, err, ErrSort)

	narrow, err := Trunc(1, x)
	require.NoError(t, err)
	assert.Equal(t, 1, narrow.Bits())
}

func TestCollectScalars(t *testing.T) {
	x := NewScalar("x", 32)
	y := NewScalar("y", 32)

	sum, err := Add(x, y)
	require.NoError(t, err)
	product, err := Mul(sum, NewConstant(2, 32))
	require.NoError(t, err)

	// Left-to-right order of appearance.
	assert.Equal(t, []Scalar{x, y}, product.CollectScalars())
	assert.Empty(t, NewConstant(1, 8).CollectScalars())
}

func TestMultiVarAsMapKey(t *testing.T) {
	x := NewScalar("x", 32)
	a := NewArray("mem", 0x1000)

	seen := map[MultiVar]bool{
		x.MultiVarClone(): true,
		a.MultiVarClone(): true,
	}
	assert.True(t, seen[NewScalar("x", 32)])
	assert.False(t, seen[NewScalar("x", 64)])
	assert.True(t, seen[NewArray("mem", 0x1000)])
}
