package crypto

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/kindelia-network/gkind/common"
)

var testPrivHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"

func TestKeccak256(t *testing.T) {
	msg := []byte("abc")
	exp, _ := hex.DecodeString("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if got := Keccak256(msg); !bytes.Equal(got, exp) {
		t.Fatalf("Keccak256(%q) = %x, want %x", msg, got, exp)
	}
}

func TestPubkeyToAddress(t *testing.T) {
	key, err := HexToECDSA(testPrivHex)
	if err != nil {
		t.Fatal(err)
	}
	// The trailing 120 bits of the keccak hash of the public key.
	want := common.HexToAddress("834e8eac17ab8e3812f010678cf791")
	if got := PubkeyToAddress(key.PublicKey); got != want {
		t.Fatalf("address = %x, want %x", got, want)
	}
}

func TestSignRecover(t *testing.T) {
	key, err := HexToECDSA(testPrivHex)
	if err != nil {
		t.Fatal(err)
	}
	msg := Keccak256([]byte("foo"))
	sig, err := Sign(msg, key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d", len(sig))
	}
	recovered, err := Ecrecover(msg, sig)
	if err != nil {
		t.Fatalf("Ecrecover: %v", err)
	}
	if !bytes.Equal(recovered, FromECDSAPub(&key.PublicKey)) {
		t.Fatal("recovered pubkey does not match")
	}
	parsed, err := UnmarshalPubkey(recovered)
	if err != nil {
		t.Fatalf("UnmarshalPubkey: %v", err)
	}
	if PubkeyToAddress(*parsed) != PubkeyToAddress(key.PublicKey) {
		t.Fatal("parsed pubkey does not match")
	}
	if _, err := UnmarshalPubkey(recovered[:10]); err == nil {
		t.Fatal("truncated pubkey accepted")
	}
	pub, err := SigToPub(msg, sig)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	if PubkeyToAddress(*pub) != PubkeyToAddress(key.PublicKey) {
		t.Fatal("recovered address does not match")
	}
}

func TestSignDeterministic(t *testing.T) {
	key, err := HexToECDSA(testPrivHex)
	if err != nil {
		t.Fatal(err)
	}
	msg := Keccak256([]byte("determinism"))
	a, err := Sign(msg, key)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sign(msg, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("signing the same digest twice produced different signatures")
	}
}

func TestVerifySignature(t *testing.T) {
	key, err := HexToECDSA(testPrivHex)
	if err != nil {
		t.Fatal(err)
	}
	msg := Keccak256([]byte("verify"))
	sig, err := Sign(msg, key)
	if err != nil {
		t.Fatal(err)
	}
	pub := FromECDSAPub(&key.PublicKey)
	if !VerifySignature(pub, msg, sig[:64]) {
		t.Fatal("valid signature rejected")
	}
	bad := append([]byte(nil), sig[:64]...)
	bad[3] ^= 0xff
	if VerifySignature(pub, msg, bad) {
		t.Fatal("tampered signature accepted")
	}
}

func TestLoadSaveECDSA(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "keyfile.hex")
	if err := SaveECDSA(file, key); err != nil {
		t.Fatalf("SaveECDSA: %v", err)
	}
	loaded, err := LoadECDSA(file)
	if err != nil {
		t.Fatalf("LoadECDSA: %v", err)
	}
	if !bytes.Equal(FromECDSA(loaded), FromECDSA(key)) {
		t.Fatal("loaded key differs from saved key")
	}
	if info, err := os.Stat(file); err == nil && info.Mode().Perm()&0077 != 0 {
		t.Fatalf("keyfile is world readable: %v", info.Mode())
	}
}

func TestValidateSignatureValues(t *testing.T) {
	one := common.Big1
	zero := common.Big0
	if ValidateSignatureValues(0, zero, zero) {
		t.Fatal("accepted zero r/s")
	}
	if !ValidateSignatureValues(0, one, one) {
		t.Fatal("rejected minimal valid values")
	}
	if ValidateSignatureValues(2, one, one) {
		t.Fatal("accepted out-of-range recovery id")
	}
}
