package vm

import (
	"github.com/holiman/uint256"

	"github.com/kindelia-network/gkind/core/types"
)

// evalOp applies a binary operator to two 120-bit words. Add, Sub, Mul and
// Shl wrap modulo 2^120 — a consensus-critical semantic, applied here and
// nowhere else. Div and Mod by zero yield zero so that every operator is
// total. Comparisons yield 1 or 0.
func evalOp(op types.Oper, a, b types.U120) types.U120 {
	var x, y, z uint256.Int
	a.ToUint256(&x)
	b.ToUint256(&y)
	switch op {
	case types.OpAdd:
		z.Add(&x, &y)
	case types.OpSub:
		// 2^120 divides 2^256, so the 256-bit wrap masks down to the
		// correct 120-bit wrap.
		z.Sub(&x, &y)
	case types.OpMul:
		z.Mul(&x, &y)
	case types.OpDiv:
		z.Div(&x, &y)
	case types.OpMod:
		z.Mod(&x, &y)
	case types.OpAnd:
		z.And(&x, &y)
	case types.OpOr:
		z.Or(&x, &y)
	case types.OpXor:
		z.Xor(&x, &y)
	case types.OpShl:
		if !y.LtUint64(types.U120Bits) {
			return types.U120{}
		}
		z.Lsh(&x, uint(y.Uint64()))
	case types.OpShr:
		if !y.LtUint64(types.U120Bits) {
			return types.U120{}
		}
		z.Rsh(&x, uint(y.Uint64()))
	case types.OpLtn:
		return boolWord(x.Lt(&y))
	case types.OpLte:
		return boolWord(!y.Lt(&x))
	case types.OpEql:
		return boolWord(x.Eq(&y))
	case types.OpGte:
		return boolWord(!x.Lt(&y))
	case types.OpGtn:
		return boolWord(y.Lt(&x))
	case types.OpNeq:
		return boolWord(!x.Eq(&y))
	default:
		return types.U120{}
	}
	return types.MaskU120(&z)
}

func boolWord(b bool) types.U120 {
	if b {
		return types.NewU120(1)
	}
	return types.U120{}
}
