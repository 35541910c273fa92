// Package llvmir lifts LLVM IR modules into Falcon IL.
//
// One IL block is created per LLVM basic block. Integer arithmetic, bitwise,
// comparison, width-changing, load and store instructions lower to their IL
// counterparts; anything else lowers to a raise of a marker scalar so the
// surrounding control flow is preserved. br and condbr terminators become IL
// edges; ret and unreachable end a block without edges.
package llvmir

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/chubbymaggie/falcon/il"
)

// dbg logs debug messages to standard error, with the prefix "llvmir:".
var dbg = log.New(os.Stderr, term.RedBold("llvmir:")+" ", 0)

// ErrUnsupported indicates an LLVM construct the lifter cannot express in IL.
var ErrUnsupported = errors.New("llvmir: unsupported LLVM construct")

// TranslateModule lifts every defined function of an LLVM module into an IL
// program. Function declarations are skipped.
func TranslateModule(m *ir.Module) (*il.Program, error) {
	program := il.NewProgram()
	for i, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		function, err := TranslateFunction(f, uint64(i))
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", f.Name())
		}
		program.AddFunction(function)
	}
	return program, nil
}

// TranslateFunction lifts a defined LLVM function into an IL function with
// the given address.
func TranslateFunction(f *ir.Func, address uint64) (*il.Function, error) {
	if len(f.Blocks) == 0 {
		return nil, errors.Wrapf(ErrUnsupported, "declaration %q has no blocks", f.Name())
	}

	t := &translator{
		cfg:          il.NewControlFlowGraph(),
		blockIndices: make(map[*ir.Block]uint64),
	}

	// Reserve an IL block per LLVM block up front, so terminators may refer
	// to blocks in any order.
	blocks := make(map[*ir.Block]*il.Block)
	for _, b := range f.Blocks {
		block, err := t.cfg.NewBlock()
		if err != nil {
			return nil, err
		}
		t.blockIndices[b] = block.Index()
		blocks[b] = block
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if err := t.instruction(blocks[b], inst); err != nil {
				return nil, err
			}
		}
	}
	for _, b := range f.Blocks {
		if err := t.terminator(blocks[b], b); err != nil {
			return nil, err
		}
	}

	if err := t.cfg.SetEntry(t.blockIndices[f.Blocks[0]]); err != nil {
		return nil, err
	}

	// A unique terminal block becomes the exit; multiple returns leave the
	// exit unset for the caller to wire.
	var terminals []uint64
	for _, block := range t.cfg.Blocks() {
		edgesOut, err := t.cfg.Graph().EdgesOut(block.Index())
		if err != nil {
			return nil, err
		}
		if len(edgesOut) == 0 {
			terminals = append(terminals, block.Index())
		}
	}
	if len(terminals) == 1 {
		if err := t.cfg.SetExit(terminals[0]); err != nil {
			return nil, err
		}
	}

	function := il.NewFunction(address, t.cfg)
	function.SetName(f.Name())
	return function, nil
}

// translator lifts the body of a single LLVM function.
type translator struct {
	cfg          *il.ControlFlowGraph
	blockIndices map[*ir.Block]uint64
}

// localName strips the sigil from an LLVM identifier.
func localName(ident string) string {
	return strings.TrimLeft(ident, "%@")
}

// bitsOfType returns the IL width of an LLVM type. Non-integer types are
// modelled as 64-bit values.
func bitsOfType(t types.Type) int {
	if intType, ok := t.(*types.IntType); ok {
		return int(intType.BitSize)
	}
	return 64
}

// scalarOf returns the IL scalar backing an LLVM named value.
func scalarOf(v value.Named) il.Scalar {
	return il.NewScalar(localName(v.Ident()), bitsOfType(v.Type()))
}

// value lowers an LLVM value to an IL expression.
func (t *translator) value(v value.Value) (il.Expression, error) {
	switch v := v.(type) {
	case *constant.Int:
		return il.NewConstant(v.X.Uint64(), bitsOfType(v.Typ)), nil
	case value.Named:
		return scalarOf(v), nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "value %T", v)
}

// binary lowers a two-operand instruction through the given IL constructor.
func (t *translator) binary(b *il.Block, dst value.Named, x, y value.Value, build func(il.Expression, il.Expression) (il.Expression, error)) error {
	lhs, err := t.value(x)
	if err != nil {
		return err
	}
	rhs, err := t.value(y)
	if err != nil {
		return err
	}
	src, err := build(lhs, rhs)
	if err != nil {
		return err
	}
	b.Assign(scalarOf(dst), src)
	return nil
}

// cast lowers a width-changing instruction through the given IL constructor.
func (t *translator) cast(b *il.Block, dst value.Named, from value.Value, to types.Type, build func(int, il.Expression) (il.Expression, error)) error {
	src, err := t.value(from)
	if err != nil {
		return err
	}
	expr, err := build(bitsOfType(to), src)
	if err != nil {
		return err
	}
	b.Assign(scalarOf(dst), expr)
	return nil
}

// icmp lowers an integer comparison to an IL expression over lhs and rhs.
func icmp(pred enum.IPred, lhs, rhs il.Expression) (il.Expression, error) {
	switch pred {
	case enum.IPredEQ:
		return il.Cmpeq(lhs, rhs)
	case enum.IPredNE:
		return il.Cmpneq(lhs, rhs)
	case enum.IPredSLT:
		return il.Cmplts(lhs, rhs)
	case enum.IPredULT:
		return il.Cmpltu(lhs, rhs)
	case enum.IPredSGT:
		return il.Cmplts(rhs, lhs)
	case enum.IPredUGT:
		return il.Cmpltu(rhs, lhs)
	case enum.IPredSLE:
		return orEqual(lhs, rhs, il.Cmplts)
	case enum.IPredULE:
		return orEqual(lhs, rhs, il.Cmpltu)
	case enum.IPredSGE:
		return orEqual(rhs, lhs, il.Cmplts)
	case enum.IPredUGE:
		return orEqual(rhs, lhs, il.Cmpltu)
	}
	return nil, errors.Wrapf(ErrUnsupported, "icmp predicate %v", pred)
}

// orEqual builds less(lhs, rhs) | (lhs == rhs).
func orEqual(lhs, rhs il.Expression, less func(il.Expression, il.Expression) (il.Expression, error)) (il.Expression, error) {
	lt, err := less(lhs, rhs)
	if err != nil {
		return nil, err
	}
	eq, err := il.Cmpeq(lhs, rhs)
	if err != nil {
		return nil, err
	}
	return il.Or(lt, eq)
}

// instruction lowers a single LLVM instruction into the given IL block.
func (t *translator) instruction(b *il.Block, inst ir.Instruction) error {
	switch inst := inst.(type) {
	case *ir.InstAdd:
		return t.binary(b, inst, inst.X, inst.Y, il.Add)
	case *ir.InstSub:
		return t.binary(b, inst, inst.X, inst.Y, il.Sub)
	case *ir.InstMul:
		return t.binary(b, inst, inst.X, inst.Y, il.Mul)
	case *ir.InstUDiv:
		return t.binary(b, inst, inst.X, inst.Y, il.Divu)
	case *ir.InstURem:
		return t.binary(b, inst, inst.X, inst.Y, il.Modu)
	case *ir.InstAnd:
		return t.binary(b, inst, inst.X, inst.Y, il.And)
	case *ir.InstOr:
		return t.binary(b, inst, inst.X, inst.Y, il.Or)
	case *ir.InstXor:
		return t.binary(b, inst, inst.X, inst.Y, il.Xor)
	case *ir.InstShl:
		return t.binary(b, inst, inst.X, inst.Y, il.Shl)
	case *ir.InstLShr:
		return t.binary(b, inst, inst.X, inst.Y, il.Shr)
	case *ir.InstICmp:
		lhs, err := t.value(inst.X)
		if err != nil {
			return err
		}
		rhs, err := t.value(inst.Y)
		if err != nil {
			return err
		}
		src, err := icmp(inst.Pred, lhs, rhs)
		if err != nil {
			return err
		}
		b.Assign(scalarOf(inst), src)
		return nil
	case *ir.InstZExt:
		return t.cast(b, inst, inst.From, inst.To, il.Zext)
	case *ir.InstSExt:
		return t.cast(b, inst, inst.From, inst.To, il.Sext)
	case *ir.InstTrunc:
		return t.cast(b, inst, inst.From, inst.To, il.Trunc)
	case *ir.InstLoad:
		index, err := t.value(inst.Src)
		if err != nil {
			return err
		}
		b.Load(scalarOf(inst), index)
		return nil
	case *ir.InstStore:
		index, err := t.value(inst.Dst)
		if err != nil {
			return err
		}
		src, err := t.value(inst.Src)
		if err != nil {
			return err
		}
		b.Store(index, src)
		return nil
	default:
		// Preserve control flow through constructs the IL cannot express.
		dbg.Printf("unhandled instruction %T in block 0x%X", inst, b.Index())
		raise := b.Raise(il.NewScalar("unsupported", 1))
		raise.SetComment(fmt.Sprintf("%T", inst))
		return nil
	}
}

// terminator lowers the terminator of an LLVM block into IL edges.
func (t *translator) terminator(b *il.Block, src *ir.Block) error {
	head := b.Index()
	switch termInst := src.Term.(type) {
	case *ir.TermRet, *ir.TermUnreachable:
		return nil
	case *ir.TermBr:
		target, ok := termInst.Target.(*ir.Block)
		if !ok {
			return errors.Wrapf(ErrUnsupported, "br target %T", termInst.Target)
		}
		return t.cfg.UnconditionalEdge(head, t.blockIndices[target])
	case *ir.TermCondBr:
		cond, err := t.value(termInst.Cond)
		if err != nil {
			return err
		}
		trueTarget, ok := termInst.TargetTrue.(*ir.Block)
		if !ok {
			return errors.Wrapf(ErrUnsupported, "condbr target %T", termInst.TargetTrue)
		}
		falseTarget, ok := termInst.TargetFalse.(*ir.Block)
		if !ok {
			return errors.Wrapf(ErrUnsupported, "condbr target %T", termInst.TargetFalse)
		}
		if trueTarget == falseTarget {
			// Degenerate conditional branch; both arms reach the same block.
			return t.cfg.UnconditionalEdge(head, t.blockIndices[trueTarget])
		}
		if err := t.cfg.ConditionalEdge(head, t.blockIndices[trueTarget], cond); err != nil {
			return err
		}
		notCond, err := il.Cmpeq(cond, il.NewConstant(0, cond.Bits()))
		if err != nil {
			return err
		}
		return t.cfg.ConditionalEdge(head, t.blockIndices[falseTarget], notCond)
	default:
		return errors.Wrapf(ErrUnsupported, "terminator %T", termInst)
	}
}
