package auth

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"galax.network/internal/sim/world/kernel/model"
)

// SignatureLength is r(32) ‖ s(32) ‖ v(1).
const SignatureLength = 65

var (
	errSigLength   = errors.New("signature must be 65 bytes")
	errSigRecovery = errors.New("invalid recovery id")
	errSigHighS    = errors.New("signature s value is not canonical")
)

// RecoverSigner returns the address whose key produced sig over hash.
// v may be 27/28 or 0/1; high-s signatures are rejected.
func RecoverSigner(hash [32]byte, sig []byte) (model.Address, error) {
	if len(sig) != SignatureLength {
		return model.Address{}, errSigLength
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return model.Address{}, errSigRecovery
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsOverHalfOrder() {
		return model.Address{}, errSigHighS
	}

	compact := make([]byte, SignatureLength)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return model.Address{}, fmt.Errorf("recover: %w", err)
	}
	return PubkeyToAddress(pub), nil
}

// PubkeyToAddress is the last 20 bytes of keccak256 over the uncompressed key without its prefix.
func PubkeyToAddress(pub *secp256k1.PublicKey) model.Address {
	raw := pub.SerializeUncompressed()
	h := Keccak256(raw[1:])
	return model.BytesToAddress(h[12:])
}
