package types

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kindelia-network/gkind/common"
)

func sampleTerms() []*Term {
	add := MustParseName("Add")
	pair := MustParseName("Pair")
	x := MustParseName("x")
	y := MustParseName("y")
	return []*Term{
		Var(x),
		NumU64(0),
		NumU64(42),
		NumU64(1 << 40),
		Num(U120{Hi: hiMask, Lo: ^uint64(0)}), // 2^120 - 1
		Ctr(pair, NumU64(1), NumU64(2)),
		Fun(add, Var(x), Var(y)),
		App(Fun(add, Var(x)), NumU64(7)),
		Op2(OpAdd, NumU64(1), Op2(OpMul, Var(x), NumU64(3))),
		Ctr(pair, Ctr(pair, Var(x), Var(y)), Fun(add, NumU64(5), NumU64(6))),
	}
}

func TestTermRoundTrip(t *testing.T) {
	for _, term := range sampleTerms() {
		enc := EncodeTerm(term)
		dec, err := DecodeTerm(enc)
		if err != nil {
			t.Fatalf("DecodeTerm(%s): %v", term, err)
		}
		if !dec.Equal(term) {
			t.Errorf("round trip changed %s into %s", term, dec)
		}
		if got := TermSize(term); got != uint64(len(enc)) {
			t.Errorf("TermSize(%s) = %d, encoded length %d", term, got, len(enc))
		}
	}
}

func sampleStatements() []*Statement {
	test := MustParseName("Test")
	a := MustParseName("a")
	b := MustParseName("b")
	rules := []Rule{
		{LHS: Fun(test, Var(a), NumU64(0)), RHS: NumU64(0)},
		{LHS: Fun(test, NumU64(0), Var(b)), RHS: NumU64(0)},
		{LHS: Fun(test, Var(a), Var(b)), RHS: NumU64(1)},
	}
	return []*Statement{
		NewDefineCtr(MustParseName("T3"), 3),
		NewDefineFun(test, []Name{a, b}, rules, NumU64(42)),
		NewRun(Fun(test, NumU64(2), NumU64(3))),
		NewRegister(MustParseName("Foo.Bar"), common.Uint64ToAddress(0xdeadbeef)),
	}
}

func TestStatementRoundTrip(t *testing.T) {
	for _, stmt := range sampleStatements() {
		enc := EncodeStatement(stmt)
		dec, err := DecodeStatement(enc)
		if err != nil {
			t.Fatalf("DecodeStatement(%s): %v", stmt, err)
		}
		if !bytes.Equal(EncodeStatement(dec), enc) {
			t.Errorf("re-encode of %s diverges", stmt)
		}
	}
}

func TestStatementRoundTripSigned(t *testing.T) {
	var sig Signature
	for i := range sig {
		sig[i] = byte(i * 7)
	}
	stmt := sampleStatements()[2].WithSignature(sig)
	enc := EncodeStatement(stmt)
	dec, err := DecodeStatement(enc)
	if err != nil {
		t.Fatalf("DecodeStatement: %v", err)
	}
	if dec.Sig == nil || *dec.Sig != sig {
		t.Fatal("signature lost in round trip")
	}
	if !bytes.Equal(EncodeStatement(dec), enc) {
		t.Fatal("re-encode diverges")
	}
}

func TestSigningPayloadExcludesSignature(t *testing.T) {
	var sig Signature
	sig[0] = 0xff
	stmt := sampleStatements()[1]
	if !bytes.Equal(SigningPayload(stmt), SigningPayload(stmt.WithSignature(sig))) {
		t.Fatal("signature leaked into the signing payload")
	}
}

func TestEncodeRejectsOversizedArity(t *testing.T) {
	// 16 arguments do not fit the 4-bit count field; encoding such a term
	// would silently truncate the count, so the writer must refuse.
	args := make([]*Term, maxWireArity+1)
	for i := range args {
		args[i] = NumU64(uint64(i))
	}
	defer func() {
		if recover() == nil {
			t.Fatal("oversized constructor arity encoded without panic")
		}
	}()
	EncodeTerm(Ctr(MustParseName("Wide"), args...))
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := EncodeStatement(sampleStatements()[0])
	if _, err := DecodeStatement(append(enc, 0)); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("trailing byte accepted: %v", err)
	}
}

func TestDecodeRejectsNonzeroPadding(t *testing.T) {
	enc := EncodeStatement(NewRun(NumU64(1)))
	// The final byte has unused high bits; set the top one.
	tampered := append([]byte(nil), enc...)
	tampered[len(tampered)-1] |= 0x80
	if _, err := DecodeStatement(tampered); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("nonzero padding accepted: %v", err)
	}
}

func TestDecodeRejectsNonCanonicalNumber(t *testing.T) {
	// #0 encoded with a redundant zero continuation group.
	var w bitWriter
	w.writeBits(uint64(TermNum), 3)
	w.writeBits(0, 7) // group 0
	w.writeBits(1, 1) // more
	w.writeBits(0, 7) // redundant zero group
	w.writeBits(0, 1)
	if _, err := DecodeTerm(w.finish()); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("non-canonical number accepted: %v", err)
	}
}

func TestDecodeRejectsLeadingDotName(t *testing.T) {
	// A variable whose first name digit is the '.' separator.
	var w bitWriter
	w.writeBits(uint64(TermVar), 3)
	w.writeBits(2, 5) // length 2
	w.writeBits(0, 6) // '.'
	w.writeBits(11, 6) // 'A'
	if _, err := DecodeTerm(w.finish()); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("leading-dot name accepted: %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	for _, stmt := range sampleStatements() {
		enc := EncodeStatement(stmt)
		for cut := 0; cut < len(enc); cut++ {
			if _, err := DecodeStatement(enc[:cut]); err == nil {
				t.Fatalf("truncation of %s to %d bytes accepted", stmt, cut)
			}
		}
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	enc := EncodeStatement(sampleStatements()[0])
	tampered := append([]byte(nil), enc...)
	tampered[0] = tampered[0]&^0x0f | 0x0e
	if _, err := DecodeStatement(tampered); !errors.Is(err, ErrMalformedEncoding) {
		t.Fatalf("bad version accepted: %v", err)
	}
}

func TestBlockRoundTrip(t *testing.T) {
	blk := &Block{Statements: sampleStatements()}
	enc := EncodeBlock(blk)
	dec, err := DecodeBlock(enc)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if !bytes.Equal(EncodeBlock(dec), enc) {
		t.Fatal("re-encode diverges")
	}
	if BlockHash(dec) != BlockHash(blk) {
		t.Fatal("block hash diverges after round trip")
	}
}

func FuzzDecodeStatement(f *testing.F) {
	for _, stmt := range sampleStatements() {
		f.Add(EncodeStatement(stmt))
	}
	var sig Signature
	f.Add(EncodeStatement(sampleStatements()[3].WithSignature(sig)))
	f.Fuzz(func(t *testing.T, data []byte) {
		stmt, err := DecodeStatement(data)
		if err != nil {
			return
		}
		// Canonicality: anything that decodes re-encodes to the same bytes.
		if !bytes.Equal(EncodeStatement(stmt), data) {
			t.Fatalf("decode/encode not canonical for %x", data)
		}
	})
}

func FuzzDecodeTerm(f *testing.F) {
	for _, term := range sampleTerms() {
		f.Add(EncodeTerm(term))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		term, err := DecodeTerm(data)
		if err != nil {
			return
		}
		if !bytes.Equal(EncodeTerm(term), data) {
			t.Fatalf("decode/encode not canonical for %x", data)
		}
	})
}
