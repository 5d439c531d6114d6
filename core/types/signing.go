package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kindelia-network/gkind/common"
	"github.com/kindelia-network/gkind/crypto"
)

// ErrInvalidSig is returned when a statement carries a signature that does
// not recover to any address.
var ErrInvalidSig = errors.New("invalid statement signature")

// authorityCache memoises recovered signer addresses across re-decoded
// copies of the same statement. Recovery is by far the most expensive part
// of statement validation.
var authorityCache, _ = lru.New(4096)

type authorityEntry struct {
	addr common.Address
}

// Hash returns the Keccak256 hash of the statement's signing payload (the
// canonical encoding with the signature excluded). This is the digest that
// is signed and the statement's identity for authority caching.
func (s *Statement) Hash() common.Hash {
	if h := s.hash.Load(); h != nil {
		return h.(common.Hash)
	}
	h := crypto.Keccak256Hash(SigningPayload(s))
	s.hash.Store(h)
	return h
}

// SignStatement signs a statement with the given private key and returns a
// copy carrying the signature. Signing is deterministic: the same statement
// and key always produce the same signature bytes.
func SignStatement(s *Statement, prv *ecdsa.PrivateKey) (*Statement, error) {
	h := s.Hash()
	sigBytes, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, err
	}
	var sig Signature
	copy(sig[:], sigBytes)
	return s.WithSignature(sig), nil
}

// Authority returns the address recovered from the statement's signature.
// Unsigned statements are valid: they report ok == false and no error.
// A malformed signature is a verification failure, not a decode error.
//
// The result is cached on the statement and in a process-wide LRU keyed by
// statement hash.
func (s *Statement) Authority() (common.Address, bool, error) {
	if s.Sig == nil {
		return common.Address{}, false, nil
	}
	if a := s.auth.Load(); a != nil {
		return a.(authorityEntry).addr, true, nil
	}
	h := s.Hash()
	// The cache key covers the signature too: the same payload signed by
	// two keys must not collide.
	key := crypto.Keccak256Hash(h[:], s.Sig[:])
	if cached, ok := authorityCache.Get(key); ok {
		entry := cached.(authorityEntry)
		s.auth.Store(entry)
		return entry.addr, true, nil
	}
	addr, err := recoverAuthority(h, s.Sig)
	if err != nil {
		return common.Address{}, false, err
	}
	entry := authorityEntry{addr: addr}
	s.auth.Store(entry)
	authorityCache.Add(key, entry)
	return addr, true, nil
}

func recoverAuthority(sighash common.Hash, sig *Signature) (common.Address, error) {
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s) {
		return common.Address{}, ErrInvalidSig
	}
	pub, err := crypto.Ecrecover(sighash[:], sig[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, ErrInvalidSig
	}
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[common.HashLength-common.AddressLength:]), nil
}

// BlockHash returns the Keccak256 hash of a block's canonical encoding.
// Block identity for mining, gossip and persistence is defined over these
// exact bytes; no alternate encoding may be substituted.
func BlockHash(blk *Block) common.Hash {
	return crypto.Keccak256Hash(EncodeBlock(blk))
}
