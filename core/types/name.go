package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kindelia-network/gkind/common"
)

// A Name is an identifier packed base-64 into a 120-bit word. Valid names
// have 1 to 20 characters drawn from the alphabet `.` `0`-`9` `A`-`Z`
// `a`-`z` `_`, where `.` separates namespace path segments. The packing is
// bijective over valid names: each name has exactly one numeric code and
// vice versa. A leading `.` is invalid because its digit value is zero and
// would vanish from the numeric form.
type Name U120

// MaxNameLength is the maximum character count of a name.
const MaxNameLength = 20

var (
	ErrNameTooLong      = errors.New("name is too long")
	ErrNameEmpty        = errors.New("name is empty")
	ErrNameBadChar      = errors.New("name contains an invalid character")
	ErrNameLeadingDot   = errors.New("name starts with a path separator")
	errNameNotCanonical = errors.New("name encoding is not canonical")
)

// charToDigit maps a name character to its 6-bit digit, or -1.
func charToDigit(c byte) int {
	switch {
	case c == '.':
		return 0
	case c >= '0' && c <= '9':
		return int(c-'0') + 1
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 11
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 37
	case c == '_':
		return 63
	}
	return -1
}

// digitToChar is the inverse of charToDigit.
func digitToChar(d byte) byte {
	switch {
	case d == 0:
		return '.'
	case d <= 10:
		return '0' + d - 1
	case d <= 36:
		return 'A' + d - 11
	case d <= 62:
		return 'a' + d - 37
	}
	return '_'
}

// ParseName parses and validates a textual name.
func ParseName(s string) (Name, error) {
	if len(s) == 0 {
		return Name{}, ErrNameEmpty
	}
	if len(s) > MaxNameLength {
		return Name{}, fmt.Errorf("%w: %q", ErrNameTooLong, s)
	}
	if s[0] == '.' {
		return Name{}, fmt.Errorf("%w: %q", ErrNameLeadingDot, s)
	}
	var n Name
	for i := 0; i < len(s); i++ {
		d := charToDigit(s[i])
		if d < 0 {
			return Name{}, fmt.Errorf("%w: %q", ErrNameBadChar, s)
		}
		n = n.pushDigit(byte(d))
	}
	return n, nil
}

// MustParseName parses a name known at compile time, panicking on error.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// pushDigit appends one base-64 digit: n*64 + d.
func (n Name) pushDigit(d byte) Name {
	hi := n.Hi<<6 | n.Lo>>58
	lo := n.Lo<<6 | uint64(d)
	return Name{Hi: hi & hiMask, Lo: lo}
}

// digits returns the base-64 digits of n, most significant first.
func (n Name) digits() []byte {
	if n.IsEmpty() {
		return nil
	}
	var buf [MaxNameLength]byte
	i := MaxNameLength
	x := U120(n)
	for !x.IsZero() {
		i--
		buf[i] = byte(x.Lo & 0x3f)
		x.Lo = x.Lo>>6 | x.Hi<<58
		x.Hi >>= 6
	}
	return buf[i:]
}

// IsEmpty reports whether n is the zero (absent) name.
func (n Name) IsEmpty() bool { return U120(n).IsZero() }

// String renders n back into its textual form.
func (n Name) String() string {
	ds := n.digits()
	out := make([]byte, len(ds))
	for i, d := range ds {
		out[i] = digitToChar(d)
	}
	return string(out)
}

// Parent returns the namespace one path segment up, and false when n is a
// top-level name.
func (n Name) Parent() (Name, bool) {
	s := n.String()
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return Name{}, false
	}
	p, err := ParseName(s[:i])
	if err != nil {
		return Name{}, false
	}
	return p, true
}

// Root returns the first path segment of n.
func (n Name) Root() Name {
	s := n.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		r, err := ParseName(s[:i])
		if err == nil {
			return r
		}
	}
	return n
}

// Address reinterprets the name's 120-bit code as an account address.
// Account addresses double as names so that per-account state can live in
// the function table.
func (n Name) Address() common.Address { return U120(n).Address() }

// NameFromAddress reinterprets a 120-bit account address as a name.
func NameFromAddress(a common.Address) Name { return Name(U120FromAddress(a)) }
