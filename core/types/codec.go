package types

import (
	"errors"
	"fmt"
)

// The canonical codec is bit-packed, not byte-aligned: tags, counts and
// name digits pack at bit granularity because encoded size is
// consensus-relevant (it drives space accounting and network cost). Bits
// fill each byte least-significant first. The format is versioned with a
// leading 4-bit version number; any change to tag assignment or field
// order is a hard compatibility break and requires a version bump.
//
// Layout:
//
//	statement = version:4 kind:2 body sig?         (sig: present:1 [520 bits])
//	block     = version:4 count:uvar statement-body*
//	term      = tag:3 fields
//	  Var  = name          Ctr = name count:4 term*
//	  App  = term term     Fun = name count:4 term*
//	  Num  = uvar          Op2 = oper:4 term term
//	name      = length:5 digit:6*
//	uvar      = (group:7 more:1)*                  (low group first, ≤18 groups)
//
// A statement's signing payload is its encoding with the signature
// presence bit forced to zero and no signature bits; unused trailing bits
// of the final byte must be zero.
const codecVersion = 1

// ErrMalformedEncoding is returned (wrapped) whenever canonical bytes
// cannot be decoded. It is always fatal to the single decode and never a
// signal to skip silently.
var ErrMalformedEncoding = errors.New("malformed encoding")

// MaxTermDepth bounds the nesting the decoder accepts. It is an anti-abuse
// bound: the decoder must not be driven into unbounded recursion by crafted
// input. Legitimate terms are far shallower because every reduced cell was
// paid for with mana.
const MaxTermDepth = 1 << 20

const maxUvarGroups = 18 // ceil(120/7)

// maxWireArity is the largest argument count a 4-bit field can carry.
// Encoding is infallible for decoder-produced values; a hand-built term or
// statement above the bound is a caller bug, not an input condition.
const maxWireArity = 15

func checkWireArity(n int) {
	if n > maxWireArity {
		panic(fmt.Sprintf("arity %d does not fit the wire format", n))
	}
}

type bitWriter struct {
	buf []byte
	n   uint // bits written
}

func (w *bitWriter) writeBits(v uint64, width uint) {
	for i := uint(0); i < width; i++ {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[w.n/8] |= 1 << (w.n % 8)
		}
		w.n++
	}
}

func (w *bitWriter) writeUvar(x U120) {
	for {
		group := x.Lo & 0x7f
		x.Lo = x.Lo>>7 | x.Hi<<57
		x.Hi >>= 7
		more := !x.IsZero()
		w.writeBits(group, 7)
		if more {
			w.writeBits(1, 1)
		} else {
			w.writeBits(0, 1)
			return
		}
	}
}

func (w *bitWriter) writeName(n Name) {
	ds := n.digits()
	w.writeBits(uint64(len(ds)), 5)
	for _, d := range ds {
		w.writeBits(uint64(d), 6)
	}
}

func (w *bitWriter) writeTerm(t *Term) {
	w.writeBits(uint64(t.Kind), 3)
	switch t.Kind {
	case TermVar:
		w.writeName(t.Name)
	case TermApp:
		w.writeTerm(t.Args[0])
		w.writeTerm(t.Args[1])
	case TermCtr, TermFun:
		checkWireArity(len(t.Args))
		w.writeName(t.Name)
		w.writeBits(uint64(len(t.Args)), 4)
		for _, a := range t.Args {
			w.writeTerm(a)
		}
	case TermNum:
		w.writeUvar(t.Num)
	case TermOp2:
		w.writeBits(uint64(t.Oper), 4)
		w.writeTerm(t.Args[0])
		w.writeTerm(t.Args[1])
	}
}

type bitReader struct {
	buf []byte
	pos uint
}

func (r *bitReader) readBits(width uint) (uint64, error) {
	if r.pos+width > uint(len(r.buf))*8 {
		return 0, fmt.Errorf("%w: truncated input", ErrMalformedEncoding)
	}
	var v uint64
	for i := uint(0); i < width; i++ {
		if r.buf[r.pos/8]>>(r.pos%8)&1 != 0 {
			v |= 1 << i
		}
		r.pos++
	}
	return v, nil
}

func (r *bitReader) readUvar() (U120, error) {
	var x U120
	for g := 0; ; g++ {
		if g == maxUvarGroups {
			return U120{}, fmt.Errorf("%w: oversized number", ErrMalformedEncoding)
		}
		group, err := r.readBits(7)
		if err != nil {
			return U120{}, err
		}
		shift := uint(g * 7)
		if shift < 64 {
			x.Lo |= group << shift
			if shift > 64-7 {
				x.Hi |= group >> (64 - shift)
			}
		} else {
			x.Hi |= group << (shift - 64)
		}
		more, err := r.readBits(1)
		if err != nil {
			return U120{}, err
		}
		if more == 0 {
			if group == 0 && g > 0 {
				return U120{}, fmt.Errorf("%w: non-canonical number", ErrMalformedEncoding)
			}
			break
		}
	}
	if x.Hi&^hiMask != 0 {
		return U120{}, fmt.Errorf("%w: number overflows 120 bits", ErrMalformedEncoding)
	}
	return x, nil
}

// readName decodes a name. Every context carrying a name requires a real
// identifier, so the zero-length name is rejected.
func (r *bitReader) readName() (Name, error) {
	length, err := r.readBits(5)
	if err != nil {
		return Name{}, err
	}
	if length > MaxNameLength {
		return Name{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, ErrNameTooLong)
	}
	if length == 0 {
		return Name{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, ErrNameEmpty)
	}
	var n Name
	for i := uint64(0); i < length; i++ {
		d, err := r.readBits(6)
		if err != nil {
			return Name{}, err
		}
		if i == 0 && d == 0 {
			// A leading '.' digit would not survive the numeric form.
			return Name{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, errNameNotCanonical)
		}
		n = n.pushDigit(byte(d))
	}
	return n, nil
}

func (r *bitReader) readTerm(depth int) (*Term, error) {
	if depth > MaxTermDepth {
		return nil, fmt.Errorf("%w: term too deep", ErrMalformedEncoding)
	}
	tag, err := r.readBits(3)
	if err != nil {
		return nil, err
	}
	switch TermKind(tag) {
	case TermVar:
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		return Var(name), nil
	case TermApp:
		fn, err := r.readTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		arg, err := r.readTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		return App(fn, arg), nil
	case TermCtr, TermFun:
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		count, err := r.readBits(4)
		if err != nil {
			return nil, err
		}
		args := make([]*Term, count)
		for i := range args {
			if args[i], err = r.readTerm(depth + 1); err != nil {
				return nil, err
			}
		}
		if TermKind(tag) == TermCtr {
			return Ctr(name, args...), nil
		}
		return Fun(name, args...), nil
	case TermNum:
		v, err := r.readUvar()
		if err != nil {
			return nil, err
		}
		return Num(v), nil
	case TermOp2:
		op, err := r.readBits(4)
		if err != nil {
			return nil, err
		}
		a, err := r.readTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		b, err := r.readTerm(depth + 1)
		if err != nil {
			return nil, err
		}
		return Op2(Oper(op), a, b), nil
	}
	return nil, fmt.Errorf("%w: unknown term tag %d", ErrMalformedEncoding, tag)
}

// finish pads the stream to a byte boundary and returns the bytes.
func (w *bitWriter) finish() []byte { return w.buf }

// checkTrailing rejects input with spurious bits or bytes after the
// decoded value, so that every value has exactly one encoding.
func (r *bitReader) checkTrailing() error {
	if (uint(len(r.buf))*8 - r.pos) >= 8 {
		return fmt.Errorf("%w: trailing bytes", ErrMalformedEncoding)
	}
	for p := r.pos; p < uint(len(r.buf))*8; p++ {
		if r.buf[p/8]>>(p%8)&1 != 0 {
			return fmt.Errorf("%w: nonzero padding", ErrMalformedEncoding)
		}
	}
	return nil
}

// EncodeTerm returns the canonical encoding of a bare term.
func EncodeTerm(t *Term) []byte {
	var w bitWriter
	w.writeTerm(t)
	return w.finish()
}

// DecodeTerm decodes a bare term from its canonical encoding.
func DecodeTerm(b []byte) (*Term, error) {
	r := bitReader{buf: b}
	t, err := r.readTerm(0)
	if err != nil {
		return nil, err
	}
	if err := r.checkTrailing(); err != nil {
		return nil, err
	}
	return t, nil
}

// TermSize returns the canonical encoded size of a term in bytes. This is
// the unit of space accounting for stored terms.
func TermSize(t *Term) uint64 {
	var w bitWriter
	w.writeTerm(t)
	return uint64((w.n + 7) / 8)
}

func (w *bitWriter) writeStatementBody(s *Statement) {
	w.writeBits(uint64(s.Kind), 2)
	switch s.Kind {
	case StmtFun:
		checkWireArity(len(s.Args))
		w.writeName(s.Name)
		w.writeBits(uint64(len(s.Args)), 4)
		for _, a := range s.Args {
			w.writeName(a)
		}
		w.writeUvar(NewU120(uint64(len(s.Rules))))
		for _, rule := range s.Rules {
			w.writeTerm(rule.LHS)
			w.writeTerm(rule.RHS)
		}
		w.writeTerm(s.Init)
	case StmtCtr:
		checkWireArity(len(s.Args))
		w.writeName(s.Name)
		w.writeBits(uint64(len(s.Args)), 4)
	case StmtRun:
		w.writeTerm(s.Expr)
	case StmtReg:
		w.writeName(s.Name)
		w.writeUvar(U120FromAddress(s.Owner))
	}
}

func (w *bitWriter) writeSignature(sig *Signature) {
	if sig == nil {
		w.writeBits(0, 1)
		return
	}
	w.writeBits(1, 1)
	for _, b := range sig {
		w.writeBits(uint64(b), 8)
	}
}

// EncodeStatement returns the canonical encoding of a statement, signature
// included when present.
func EncodeStatement(s *Statement) []byte {
	var w bitWriter
	w.writeBits(codecVersion, 4)
	w.writeStatementBody(s)
	w.writeSignature(s.Sig)
	return w.finish()
}

// SigningPayload returns the bytes a statement signature covers: the
// canonical encoding with the signature field excluded.
func SigningPayload(s *Statement) []byte {
	var w bitWriter
	w.writeBits(codecVersion, 4)
	w.writeStatementBody(s)
	w.writeBits(0, 1)
	return w.finish()
}

func (r *bitReader) readStatementBody() (*Statement, error) {
	kind, err := r.readBits(2)
	if err != nil {
		return nil, err
	}
	switch StatementKind(kind) {
	case StmtFun:
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		argc, err := r.readBits(4)
		if err != nil {
			return nil, err
		}
		args := make([]Name, argc)
		for i := range args {
			if args[i], err = r.readName(); err != nil {
				return nil, err
			}
		}
		rulec, err := r.readUvar()
		if err != nil {
			return nil, err
		}
		if rulec.Hi != 0 || rulec.Lo > maxRulesPerFunction {
			return nil, fmt.Errorf("%w: oversized rule list", ErrMalformedEncoding)
		}
		rules := make([]Rule, rulec.Lo)
		for i := range rules {
			if rules[i].LHS, err = r.readTerm(0); err != nil {
				return nil, err
			}
			if rules[i].RHS, err = r.readTerm(0); err != nil {
				return nil, err
			}
		}
		init, err := r.readTerm(0)
		if err != nil {
			return nil, err
		}
		return NewDefineFun(name, args, rules, init), nil
	case StmtCtr:
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		arity, err := r.readBits(4)
		if err != nil {
			return nil, err
		}
		return NewDefineCtr(name, int(arity)), nil
	case StmtRun:
		expr, err := r.readTerm(0)
		if err != nil {
			return nil, err
		}
		return NewRun(expr), nil
	case StmtReg:
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		owner, err := r.readUvar()
		if err != nil {
			return nil, err
		}
		return NewRegister(name, owner.Address()), nil
	}
	panic("unreachable statement kind")
}

// maxRulesPerFunction bounds the rule list length the decoder accepts.
const maxRulesPerFunction = 1 << 16

func (r *bitReader) readSignature() (*Signature, error) {
	present, err := r.readBits(1)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var sig Signature
	for i := range sig {
		b, err := r.readBits(8)
		if err != nil {
			return nil, err
		}
		sig[i] = byte(b)
	}
	return &sig, nil
}

func (r *bitReader) readVersion() error {
	version, err := r.readBits(4)
	if err != nil {
		return err
	}
	if version != codecVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrMalformedEncoding, version)
	}
	return nil
}

// DecodeStatement decodes a statement from its canonical encoding.
func DecodeStatement(b []byte) (*Statement, error) {
	r := bitReader{buf: b}
	if err := r.readVersion(); err != nil {
		return nil, err
	}
	s, err := r.readStatementBody()
	if err != nil {
		return nil, err
	}
	if s.Sig, err = r.readSignature(); err != nil {
		return nil, err
	}
	if err := r.checkTrailing(); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeBlock returns the canonical encoding of a block.
func EncodeBlock(blk *Block) []byte {
	var w bitWriter
	w.writeBits(codecVersion, 4)
	w.writeUvar(NewU120(uint64(len(blk.Statements))))
	for _, s := range blk.Statements {
		w.writeStatementBody(s)
		w.writeSignature(s.Sig)
	}
	return w.finish()
}

// DecodeBlock decodes a block from its canonical encoding.
func DecodeBlock(b []byte) (*Block, error) {
	r := bitReader{buf: b}
	if err := r.readVersion(); err != nil {
		return nil, err
	}
	count, err := r.readUvar()
	if err != nil {
		return nil, err
	}
	if count.Hi != 0 || count.Lo > maxStatementsPerBlock {
		return nil, fmt.Errorf("%w: oversized block", ErrMalformedEncoding)
	}
	blk := &Block{Statements: make([]*Statement, count.Lo)}
	for i := range blk.Statements {
		s, err := r.readStatementBody()
		if err != nil {
			return nil, err
		}
		if s.Sig, err = r.readSignature(); err != nil {
			return nil, err
		}
		blk.Statements[i] = s
	}
	if err := r.checkTrailing(); err != nil {
		return nil, err
	}
	return blk, nil
}

// maxStatementsPerBlock bounds the statement count the decoder accepts.
const maxStatementsPerBlock = 1 << 16
