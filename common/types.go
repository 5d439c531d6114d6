package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// Lengths of hashes and addresses in bytes.
const (
	// HashLength is the expected length of the hash.
	HashLength = 32
	// AddressLength is the expected length of an account address. Addresses
	// are 120-bit values so that they share the machine word of the term
	// language (names and numbers are 120-bit as well).
	AddressLength = 15
)

var errInvalidHexLength = errors.New("common: invalid hex string length")

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements the stringer interface.
func (h Hash) String() string { return h.Hex() }

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Address represents the 15 byte (120-bit) address of an account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(a), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// Uint64ToAddress returns the address whose numeric value is n.
func Uint64ToAddress(n uint64) Address {
	var a Address
	for i := 0; i < 8; i++ {
		a[AddressLength-1-i] = byte(n >> (8 * i))
	}
	return a
}

// HexToAddress returns Address with byte values of s.
// If s is larger than len(a), s will be cropped from the left.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// Big converts an address to a big integer.
func (a Address) Big() *big.Int { return new(big.Int).SetBytes(a[:]) }

// Hex returns a hex string representation of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer. Addresses render as their decimal numeric
// value, matching the way the term language prints 120-bit words.
func (a Address) String() string { return a.Big().String() }

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// ParseAddress parses either a decimal or 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	if has0xPrefix(s) {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return Address{}, err
		}
		if len(b) > AddressLength {
			return Address{}, errInvalidHexLength
		}
		return BytesToAddress(b), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 8*AddressLength {
		return Address{}, fmt.Errorf("common: invalid address %q", s)
	}
	return BytesToAddress(n.Bytes()), nil
}
