package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"galax.network/internal/sim/world/kernel/model"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes the full ledger in a canonical order. Two worlds that
// applied the same blocks produce the same digest.
func (w *World) stateDigest() string {
	st := w.state
	h := sha256.New()
	var tmp [8]byte

	digestWriteString(h, &tmp, w.cfg.ID)
	h.Write(w.cfg.DomainAddress[:])
	digestWriteBig(h, &tmp, w.cfg.ChainID)
	digestWriteU64(h, &tmp, st.Height)

	digestWriteU64(h, &tmp, uint64(len(st.Territories)))
	for _, t := range st.Territories {
		digestWriteU64(h, &tmp, t.ID)
		h.Write(t.Address[:])
		h.Write(t.Owner[:])
		digestWriteString(h, &tmp, t.Name)
		digestWriteString(h, &tmp, t.MetadataURI)
		h.Write(t.Salt[:])
		digestWriteBig(h, &tmp, t.DeclaredValue)
		digestWriteU64(h, &tmp, t.CreatedBlock)
		members := t.SortedMembers()
		digestWriteU64(h, &tmp, uint64(len(members)))
		for _, m := range members {
			h.Write(m[:])
		}
		digestWriteU64(h, &tmp, uint64(len(t.Businesses)))
		for _, b := range t.Businesses {
			digestWriteU64(h, &tmp, b.ID)
			h.Write(b.Address[:])
			h.Write(b.Owner[:])
			digestWriteString(h, &tmp, b.Name)
			digestWriteU64(h, &tmp, uint64(b.Type))
			digestWriteU64(h, &tmp, b.CreatedBlock)
		}
	}

	ps := st.sortedParticipants()
	digestWriteU64(h, &tmp, uint64(len(ps)))
	for _, p := range ps {
		digestParticipant(h, &tmp, p)
	}

	entries := st.Balances.Entries()
	digestWriteU64(h, &tmp, uint64(len(entries)))
	for _, e := range entries {
		h.Write(e.Holder[:])
		digestWriteU64(h, &tmp, e.ID)
		digestWriteBig(h, &tmp, e.Amount)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestParticipant(h hashWriter, tmp *[8]byte, p *model.Participant) {
	h.Write(p.Address[:])
	for _, s := range p.Vitality.Stats() {
		digestWriteBig(h, tmp, s)
	}
	kinds := p.SortedSkillKinds()
	digestWriteU64(h, tmp, uint64(len(kinds)))
	for _, k := range kinds {
		s := p.Skills[k]
		digestWriteU64(h, tmp, uint64(k))
		digestWriteU64(h, tmp, uint64(s.Level))
		digestWriteBig(h, tmp, s.Experience())
	}
	digestWriteU64(h, tmp, p.Nonce)
	digestWriteU64(h, tmp, p.Territory)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteBig(h hashWriter, tmp *[8]byte, v *big.Int) {
	if v == nil {
		digestWriteU64(h, tmp, 0)
		return
	}
	b := v.Bytes()
	digestWriteU64(h, tmp, uint64(len(b)))
	h.Write(b)
}
