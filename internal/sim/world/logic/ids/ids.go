package ids

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"galax.network/internal/sim/world/kernel/model"
)

const derivePrefix = 0xff

// DeriveAddress returns the address of the seq-th entity created by creator
// inside world with the given salt:
//
//	keccak256(0xff ‖ world ‖ creator ‖ salt ‖ uint256(seq))[12:]
//
// It is pure, so callers can predict an address before submitting the
// creating transaction.
func DeriveAddress(world, creator model.Address, salt [32]byte, seq uint64) model.Address {
	var buf [1 + 2*model.AddressLength + 32 + 32]byte
	buf[0] = derivePrefix
	off := 1
	off += copy(buf[off:], world[:])
	off += copy(buf[off:], creator[:])
	off += copy(buf[off:], salt[:])
	binary.BigEndian.PutUint64(buf[len(buf)-8:], seq)

	h := sha3.NewLegacyKeccak256()
	h.Write(buf[:])
	return model.BytesToAddress(h.Sum(nil)[12:])
}

// BusinessAddress derives a business address from its territory and per-territory id.
func BusinessAddress(world, territory model.Address, territoryID, businessID uint64) model.Address {
	var salt [32]byte
	binary.BigEndian.PutUint64(salt[24:], territoryID)
	return DeriveAddress(world, territory, salt, businessID)
}

// Salt places b at the start of a 32-byte salt and zero-fills the rest, the
// way a short byte string converts to bytes32. Longer inputs keep their first
// 32 bytes.
func Salt(b []byte) [32]byte {
	var s [32]byte
	copy(s[:], b)
	return s
}
