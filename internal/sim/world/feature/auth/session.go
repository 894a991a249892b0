package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	simenc "galax.network/internal/sim/encoding"
	"galax.network/internal/sim/world/kernel/fault"
	"galax.network/internal/sim/world/kernel/model"
)

// ChallengeLength is the size of a session challenge.
const ChallengeLength = 32

// sessionTag separates session proofs from action authorizations, which are
// signed over a different layout.
var sessionTag = []byte("galax.network/session")

// NewChallenge returns fresh random bytes for one session handshake.
func NewChallenge() ([ChallengeLength]byte, error) {
	var c [ChallengeLength]byte
	if _, err := rand.Read(c[:]); err != nil {
		return c, fmt.Errorf("read challenge: %w", err)
	}
	return c, nil
}

// SessionMessage packs tag ‖ domain(20) ‖ chainId(32) ‖ principal(20) ‖ challenge(32).
func SessionMessage(domain model.Address, chainID *big.Int, principal model.Address, challenge [ChallengeLength]byte) []byte {
	out := make([]byte, 0, len(sessionTag)+2*model.AddressLength+simenc.WordSize+ChallengeLength)
	out = append(out, sessionTag...)
	out = append(out, domain[:]...)
	chain := chainID
	if chain == nil {
		chain = new(big.Int)
	}
	word := make([]byte, simenc.WordSize)
	simenc.PutWord(word, chain)
	out = append(out, word...)
	out = append(out, principal[:]...)
	return append(out, challenge[:]...)
}

// SessionDigest is the 32-byte value a principal signs to open a session.
func (v Verifier) SessionDigest(principal model.Address, challenge [ChallengeLength]byte) [32]byte {
	h := Keccak256(SessionMessage(v.Domain, v.ChainID, principal, challenge))
	if v.PersonalSign {
		return PersonalHash(h)
	}
	return h
}

// VerifySession checks that sig over the challenge was produced by principal's key.
func (v Verifier) VerifySession(principal model.Address, challenge [ChallengeLength]byte, sig []byte) error {
	signer, err := RecoverSigner(v.SessionDigest(principal, challenge), sig)
	if err != nil {
		return fault.ErrBadSigner.With(err.Error(), "principal", principal.Hex())
	}
	if signer != principal {
		return fault.ErrBadSigner.With("recovered signer does not match principal",
			"principal", principal.Hex(), "signer", signer.Hex())
	}
	return nil
}
