// Package authority is the off-ledger side of the authorization protocol:
// it holds participant keys and produces signatures the ledger verifies.
package authority

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
)

type Signer struct {
	key  *secp256k1.PrivateKey
	addr model.Address
}

func Generate() (*Signer, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newSigner(key), nil
}

// FromHex loads a 32-byte private key, with or without a 0x prefix.
func FromHex(s string) (*Signer, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("private key must be hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(raw); overflow || k.IsZero() {
		return nil, fmt.Errorf("private key out of range")
	}
	return newSigner(secp256k1.NewPrivateKey(&k)), nil
}

func newSigner(key *secp256k1.PrivateKey) *Signer {
	return &Signer{key: key, addr: auth.PubkeyToAddress(key.PubKey())}
}

func (s *Signer) Address() model.Address { return s.addr }

func (s *Signer) PrivateKeyHex() string { return hex.EncodeToString(s.key.Serialize()) }

// SignHash signs the raw 32-byte hash and returns r ‖ s ‖ v with v in {27, 28}.
func (s *Signer) SignHash(hash [32]byte) []byte {
	compact := ecdsa.SignCompact(s.key, hash[:], false)
	out := make([]byte, auth.SignatureLength)
	copy(out, compact[1:])
	out[64] = compact[0]
	return out
}

// Authorize signs the canonical message for (participant=self, target, nonce, kind)
// as the given verifier would reconstruct it.
func (s *Signer) Authorize(v auth.Verifier, target, nonce uint64, kind auth.ActionKind) auth.Authorization {
	m := v.Message(s.addr, target, nonce, kind)
	return auth.Authorization{Nonce: nonce, Kind: kind, Signature: s.SignHash(v.Digest(m))}
}

// ProveSession signs a session challenge issued by a server running verifier v.
func (s *Signer) ProveSession(v auth.Verifier, challenge [auth.ChallengeLength]byte) []byte {
	return s.SignHash(v.SessionDigest(s.addr, challenge))
}
