package types

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/kindelia-network/gkind/common"
)

// U120Bits is the width of the machine word of the term language. Numbers,
// names and account addresses all live in this word.
const U120Bits = 120

var ErrU120Overflow = errors.New("value overflows 120 bits")

// U120 is an unsigned 120-bit integer. Hi carries bits 64..119 and must
// never exceed 56 bits; all constructors maintain that invariant.
type U120 struct {
	Hi uint64
	Lo uint64
}

const hiMask = (uint64(1) << (U120Bits - 64)) - 1

// NewU120 returns the U120 with the given low 64 bits.
func NewU120(lo uint64) U120 {
	return U120{Lo: lo}
}

// U120FromUint256 converts z, reporting whether it fits in 120 bits.
func U120FromUint256(z *uint256.Int) (U120, bool) {
	if z.BitLen() > U120Bits {
		return U120{}, false
	}
	return U120{Hi: z[1] & hiMask, Lo: z[0]}, true
}

// MaskU120 converts z truncated to its low 120 bits.
func MaskU120(z *uint256.Int) U120 {
	return U120{Hi: z[1] & hiMask, Lo: z[0]}
}

// ToUint256 writes x into z and returns z.
func (x U120) ToUint256(z *uint256.Int) *uint256.Int {
	z[0], z[1], z[2], z[3] = x.Lo, x.Hi, 0, 0
	return z
}

// Uint64 returns the low 64 bits of x.
func (x U120) Uint64() uint64 { return x.Lo }

// IsZero reports whether x == 0.
func (x U120) IsZero() bool { return x.Hi == 0 && x.Lo == 0 }

// Cmp returns -1, 0 or 1 depending on the ordering of x and y.
func (x U120) Cmp(y U120) int {
	switch {
	case x.Hi < y.Hi:
		return -1
	case x.Hi > y.Hi:
		return 1
	case x.Lo < y.Lo:
		return -1
	case x.Lo > y.Lo:
		return 1
	}
	return 0
}

// String renders x in decimal.
func (x U120) String() string {
	var z uint256.Int
	return x.ToUint256(&z).Dec()
}

// ParseU120 parses a decimal string into a U120.
func ParseU120(s string) (U120, error) {
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return U120{}, fmt.Errorf("invalid number %q: %v", s, err)
	}
	x, ok := U120FromUint256(z)
	if !ok {
		return U120{}, ErrU120Overflow
	}
	return x, nil
}

// U120FromAddress reinterprets a 120-bit account address as a word.
func U120FromAddress(a common.Address) U120 {
	var x U120
	for _, b := range a[:7] {
		x.Hi = x.Hi<<8 | uint64(b)
	}
	for _, b := range a[7:] {
		x.Lo = x.Lo<<8 | uint64(b)
	}
	return x
}

// Address reinterprets x as a 120-bit account address.
func (x U120) Address() common.Address {
	var a common.Address
	hi, lo := x.Hi, x.Lo
	for i := 6; i >= 0; i-- {
		a[i] = byte(hi)
		hi >>= 8
	}
	for i := 14; i >= 7; i-- {
		a[i] = byte(lo)
		lo >>= 8
	}
	return a
}
