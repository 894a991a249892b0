// Package auth verifies off-ledger authorizations: a participant signs a
// fixed-width message binding the ledger instance, chain, target entity,
// nonce and action kind, and the ledger recovers the signer from it.
package auth

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"

	simenc "galax.network/internal/sim/encoding"
	"galax.network/internal/sim/world/kernel/model"
)

type ActionKind uint8

const (
	ActionJoin    ActionKind = 1
	ActionProduce ActionKind = 2
	ActionConsume ActionKind = 3
)

func (k ActionKind) String() string {
	switch k {
	case ActionJoin:
		return "JOIN"
	case ActionProduce:
		return "PRODUCE"
	case ActionConsume:
		return "CONSUME"
	default:
		return fmt.Sprintf("ACTION(%d)", uint8(k))
	}
}

// MessageLength is the packed size of a Message: two addresses and four words.
const MessageLength = 2*model.AddressLength + 4*simenc.WordSize

// Message is the logical tuple a participant signs. It is rebuilt for every
// verification and never stored.
type Message struct {
	Domain      model.Address
	ChainID     *big.Int
	Participant model.Address
	Target      uint64
	Nonce       uint64
	Kind        ActionKind
}

// Encode packs the message big-endian in field order:
// domain(20) ‖ chainId(32) ‖ participant(20) ‖ target(32) ‖ nonce(32) ‖ kind(32).
func (m Message) Encode() []byte {
	out := make([]byte, MessageLength)
	off := copy(out, m.Domain[:])
	chain := m.ChainID
	if chain == nil {
		chain = new(big.Int)
	}
	simenc.PutWord(out[off:off+simenc.WordSize], chain)
	off += simenc.WordSize
	off += copy(out[off:], m.Participant[:])
	simenc.PutWordUint64(out[off:off+simenc.WordSize], m.Target)
	off += simenc.WordSize
	simenc.PutWordUint64(out[off:off+simenc.WordSize], m.Nonce)
	off += simenc.WordSize
	simenc.PutWordUint64(out[off:off+simenc.WordSize], uint64(m.Kind))
	return out
}

func (m Message) Hash() [32]byte { return Keccak256(m.Encode()) }

func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

const personalPrefix = "\x19Ethereum Signed Message:\n32"

// PersonalHash applies the wallet message prefix to a 32-byte hash.
func PersonalHash(h [32]byte) [32]byte {
	return Keccak256([]byte(personalPrefix), h[:])
}
