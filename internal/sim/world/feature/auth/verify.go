package auth

import (
	"math/big"
	"strconv"

	"galax.network/internal/sim/world/kernel/fault"
	"galax.network/internal/sim/world/kernel/model"
)

// Authorization is what a caller presents alongside a privileged action.
// Kind is the action kind the signature declares.
type Authorization struct {
	Nonce     uint64
	Kind      ActionKind
	Signature []byte
}

// Verifier checks authorizations for one ledger instance. It never mutates
// state: consuming the nonce is left to the caller once the whole transition
// is known to succeed.
type Verifier struct {
	Domain       model.Address
	ChainID      *big.Int
	PersonalSign bool
}

func (v Verifier) Message(participant model.Address, target, nonce uint64, kind ActionKind) Message {
	return Message{
		Domain:      v.Domain,
		ChainID:     v.ChainID,
		Participant: participant,
		Target:      target,
		Nonce:       nonce,
		Kind:        kind,
	}
}

// Digest is the 32-byte value the participant's key signs.
func (v Verifier) Digest(m Message) [32]byte {
	h := m.Hash()
	if v.PersonalSign {
		return PersonalHash(h)
	}
	return h
}

// Verify checks, in order, the recovered signer, the nonce against the stored
// one (exact match), and the declared action kind against expected.
func (v Verifier) Verify(participant model.Address, target, storedNonce uint64, expected ActionKind, a Authorization) error {
	digest := v.Digest(v.Message(participant, target, a.Nonce, a.Kind))
	signer, err := RecoverSigner(digest, a.Signature)
	if err != nil {
		return fault.ErrBadSigner.With(err.Error(), "participant", participant.Hex())
	}
	if signer != participant {
		return fault.ErrBadSigner.With("recovered signer does not match participant",
			"participant", participant.Hex(), "signer", signer.Hex())
	}
	if a.Nonce != storedNonce {
		return fault.ErrBadNonce.With("nonce mismatch",
			"want", strconv.FormatUint(storedNonce, 10), "got", strconv.FormatUint(a.Nonce, 10))
	}
	if a.Kind != expected {
		return fault.ErrBadActionKind.With("action kind mismatch",
			"want", expected.String(), "got", a.Kind.String())
	}
	return nil
}
