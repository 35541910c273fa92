package il

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSort indicates an expression was built from operands of incompatible
// bit-widths.
var ErrSort = errors.New("il: mismatched expression sorts")

// An Expression is a tree of operations over constants and scalars which
// evaluates to a value of fixed bit-width.
type Expression interface {
	// Bits returns the width of the value this expression evaluates to.
	Bits() int
	// CollectScalars returns every scalar appearing in this expression, in
	// left-to-right order of appearance.
	CollectScalars() []Scalar

	fmt.Stringer
}

// Scalar terminals are expressions.
var _ Expression = Scalar{}

// CollectScalars returns the scalar itself.
func (s Scalar) CollectScalars() []Scalar { return []Scalar{s} }

// A Constant is an immediate value of fixed bit-width.
type Constant struct {
	value uint64
	bits  int
}

// NewConstant returns a new Constant with the given value and width in bits.
func NewConstant(value uint64, bits int) Constant {
	return Constant{value: value, bits: bits}
}

// Value returns the value of the constant.
func (c Constant) Value() uint64 { return c.value }

// Bits returns the width of the constant in bits.
func (c Constant) Bits() int { return c.bits }

// CollectScalars returns no scalars.
func (c Constant) CollectScalars() []Scalar { return nil }

func (c Constant) String() string {
	return fmt.Sprintf("0x%X:%d", c.value, c.bits)
}

// A BinaryOp identifies a binary operation over two expressions.
type BinaryOp int

// Binary operations.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDivu
	OpModu
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpCmpeq
	OpCmpneq
	OpCmplts
	OpCmpltu
)

// symbol returns the rendering of the operation in expression strings.
func (op BinaryOp) symbol() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDivu:
		return "/"
	case OpModu:
		return "%"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpCmpeq:
		return "=="
	case OpCmpneq:
		return "!="
	case OpCmplts:
		return "<s"
	case OpCmpltu:
		return "<u"
	}
	panic(fmt.Sprintf("invalid binary op %d", op))
}

// isComparison reports whether the operation yields a 1-bit result.
func (op BinaryOp) isComparison() bool {
	switch op {
	case OpCmpeq, OpCmpneq, OpCmplts, OpCmpltu:
		return true
	}
	return false
}

// A Binary is a binary operation over two sub-expressions of equal width.
type Binary struct {
	op  BinaryOp
	lhs Expression
	rhs Expression
}

// newBinary returns a new binary expression, validating operand widths.
func newBinary(op BinaryOp, lhs, rhs Expression) (Expression, error) {
	if lhs.Bits() != rhs.Bits() {
		return nil, errors.Wrapf(ErrSort, "%s over %d and %d bits", op.symbol(), lhs.Bits(), rhs.Bits())
	}
	return Binary{op: op, lhs: lhs, rhs: rhs}, nil
}

// Op returns the operation of this binary expression.
func (b Binary) Op() BinaryOp { return b.op }

// Lhs returns the left operand.
func (b Binary) Lhs() Expression { return b.lhs }

// Rhs returns the right operand.
func (b Binary) Rhs() Expression { return b.rhs }

// Bits returns the width of the result; comparisons yield 1 bit.
func (b Binary) Bits() int {
	if b.op.isComparison() {
		return 1
	}
	return b.lhs.Bits()
}

// CollectScalars returns the scalars of both operands.
func (b Binary) CollectScalars() []Scalar {
	return append(b.lhs.CollectScalars(), b.rhs.CollectScalars()...)
}

func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.lhs, b.op.symbol(), b.rhs)
}

// Add returns an addition expression over lhs and rhs.
func Add(lhs, rhs Expression) (Expression, error) { return newBinary(OpAdd, lhs, rhs) }

// Sub returns a subtraction expression over lhs and rhs.
func Sub(lhs, rhs Expression) (Expression, error) { return newBinary(OpSub, lhs, rhs) }

// Mul returns a multiplication expression over lhs and rhs.
func Mul(lhs, rhs Expression) (Expression, error) { return newBinary(OpMul, lhs, rhs) }

// Divu returns an unsigned division expression over lhs and rhs.
func Divu(lhs, rhs Expression) (Expression, error) { return newBinary(OpDivu, lhs, rhs) }

// Modu returns an unsigned modulus expression over lhs and rhs.
func Modu(lhs, rhs Expression) (Expression, error) { return newBinary(OpModu, lhs, rhs) }

// And returns a bitwise and expression over lhs and rhs.
func And(lhs, rhs Expression) (Expression, error) { return newBinary(OpAnd, lhs, rhs) }

// Or returns a bitwise or expression over lhs and rhs.
func Or(lhs, rhs Expression) (Expression, error) { return newBinary(OpOr, lhs, rhs) }

// Xor returns a bitwise xor expression over lhs and rhs.
func Xor(lhs, rhs Expression) (Expression, error) { return newBinary(OpXor, lhs, rhs) }

// Shl returns a shift-left expression over lhs and rhs.
func Shl(lhs, rhs Expression) (Expression, error) { return newBinary(OpShl, lhs, rhs) }

// Shr returns a logical shift-right expression over lhs and rhs.
func Shr(lhs, rhs Expression) (Expression, error) { return newBinary(OpShr, lhs, rhs) }

// Cmpeq returns a 1-bit equality comparison over lhs and rhs.
func Cmpeq(lhs, rhs Expression) (Expression, error) { return newBinary(OpCmpeq, lhs, rhs) }

// Cmpneq returns a 1-bit inequality comparison over lhs and rhs.
func Cmpneq(lhs, rhs Expression) (Expression, error) { return newBinary(OpCmpneq, lhs, rhs) }

// Cmplts returns a 1-bit signed less-than comparison over lhs and rhs.
func Cmplts(lhs, rhs Expression) (Expression, error) { return newBinary(OpCmplts, lhs, rhs) }

// Cmpltu returns a 1-bit unsigned less-than comparison over lhs and rhs.
func Cmpltu(lhs, rhs Expression) (Expression, error) { return newBinary(OpCmpltu, lhs, rhs) }

// A CastOp identifies a bit-width changing operation.
type CastOp int

// Cast operations.
const (
	CastZext CastOp = iota
	CastSext
	CastTrunc
)

func (op CastOp) String() string {
	switch op {
	case CastZext:
		return "zext"
	case CastSext:
		return "sext"
	case CastTrunc:
		return "trunc"
	}
	panic(fmt.Sprintf("invalid cast op %d", op))
}

// A Cast changes the bit-width of a sub-expression.
type Cast struct {
	op   CastOp
	bits int
	src  Expression
}

// Op returns the cast operation.
func (c Cast) Op() CastOp { return c.op }

// Src returns the expression being cast.
func (c Cast) Src() Expression { return c.src }

// Bits returns the width of the result.
func (c Cast) Bits() int { return c.bits }

// CollectScalars returns the scalars of the source expression.
func (c Cast) CollectScalars() []Scalar { return c.src.CollectScalars() }

func (c Cast) String() string {
	return fmt.Sprintf("%s.%d(%s)", c.op, c.bits, c.src)
}

// Zext returns a zero-extension of src to the given width. The width must be
// greater than the width of src.
func Zext(bits int, src Expression) (Expression, error) {
	if bits <= src.Bits() {
		return nil, errors.Wrapf(ErrSort, "zext from %d to %d bits", src.Bits(), bits)
	}
	return Cast{op: CastZext, bits: bits, src: src}, nil
}

// Sext returns a sign-extension of src to the given width. The width must be
// greater than the width of src.
func Sext(bits int, src Expression) (Expression, error) {
	if bits <= src.Bits() {
		return nil, errors.Wrapf(ErrSort, "sext from %d to %d bits", src.Bits(), bits)
	}
	return Cast{op: CastSext, bits: bits, src: src}, nil
}

// Trunc returns a truncation of src to the given width. The width must be
// less than the width of src.
func Trunc(bits int, src Expression) (Expression, error) {
	if bits >= src.Bits() {
		return nil, errors.Wrapf(ErrSort, "trunc from %d to %d bits", src.Bits(), bits)
	}
	return Cast{op: CastTrunc, bits: bits, src: src}, nil
}
