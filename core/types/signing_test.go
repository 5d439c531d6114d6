package types

import (
	"bytes"
	"testing"

	"github.com/kindelia-network/gkind/crypto"
)

var (
	testKey, _  = crypto.HexToECDSA("289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032")
	testKey2, _ = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")
)

func TestSignStatementRecovers(t *testing.T) {
	stmt := NewRun(Fun(MustParseName("Hello"), NumU64(7)))
	signed, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatalf("SignStatement: %v", err)
	}
	addr, ok, err := signed.Authority()
	if err != nil || !ok {
		t.Fatalf("Authority: %v, %v", ok, err)
	}
	if want := crypto.PubkeyToAddress(testKey.PublicKey); addr != want {
		t.Fatalf("recovered %v, want %v", addr, want)
	}
}

func TestSignStatementDeterministic(t *testing.T) {
	stmt := NewRegister(MustParseName("Foo"), crypto.PubkeyToAddress(testKey.PublicKey))
	a, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if *a.Sig != *b.Sig {
		t.Fatal("signing the same statement twice produced different signatures")
	}
}

func TestUnsignedAuthority(t *testing.T) {
	stmt := NewRun(NumU64(1))
	addr, ok, err := stmt.Authority()
	if err != nil {
		t.Fatalf("unsigned statement must not error: %v", err)
	}
	if ok || !bytes.Equal(addr.Bytes(), make([]byte, len(addr))) {
		t.Fatal("unsigned statement reported an authority")
	}
}

func TestTwoSignersDistinct(t *testing.T) {
	stmt := NewRun(Fun(MustParseName("Same"), NumU64(1)))
	s1, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := SignStatement(stmt, testKey2)
	if err != nil {
		t.Fatal(err)
	}
	a1, _, err := s1.Authority()
	if err != nil {
		t.Fatal(err)
	}
	a2, _, err := s2.Authority()
	if err != nil {
		t.Fatal(err)
	}
	if a1 == a2 {
		t.Fatal("different keys recovered to the same address")
	}
	if a1 != crypto.PubkeyToAddress(testKey.PublicKey) || a2 != crypto.PubkeyToAddress(testKey2.PublicKey) {
		t.Fatal("recovered addresses do not match the signing keys")
	}
}

func TestTamperedSignature(t *testing.T) {
	stmt := NewRun(Fun(MustParseName("Tamper"), NumU64(1)))
	signed, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatal(err)
	}
	want := crypto.PubkeyToAddress(testKey.PublicKey)

	sig := *signed.Sig
	sig[10] ^= 0x01
	tampered := stmt.WithSignature(sig)
	addr, ok, err := tampered.Authority()
	if err == nil && ok && addr == want {
		t.Fatal("tampered signature still recovered the original signer")
	}
}

func TestSignedRoundTripKeepsAuthority(t *testing.T) {
	stmt := NewRun(Fun(MustParseName("Wire"), NumU64(9)))
	signed, err := SignStatement(stmt, testKey)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeStatement(EncodeStatement(signed))
	if err != nil {
		t.Fatalf("DecodeStatement: %v", err)
	}
	addr, ok, err := dec.Authority()
	if err != nil || !ok {
		t.Fatalf("Authority after round trip: %v, %v", ok, err)
	}
	if want := crypto.PubkeyToAddress(testKey.PublicKey); addr != want {
		t.Fatalf("recovered %v, want %v", addr, want)
	}
}
