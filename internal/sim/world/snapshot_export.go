package world

import (
	"encoding/hex"

	"galax.network/internal/persistence/snapshot"
)

// ExportSnapshot captures the ledger at the current height.
// It must be called from the world loop goroutine (or by an exclusive owner).
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	st := w.state
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Height:  st.Height,
			Digest:  w.stateDigest(),
		},
		DomainAddress: w.cfg.DomainAddress.Hex(),
		ChainID:       w.cfg.ChainID.String(),
		WorldAddress:  w.cfg.DomainAddress.Hex(),
	}
	if w.catalogs != nil {
		snap.CatalogDigest = w.catalogs.Resources.Digest
	}

	for _, p := range st.sortedParticipants() {
		stats := p.Vitality.Stats()
		ps := snapshot.ParticipantV1{
			Address:   p.Address.Hex(),
			Hunger:    stats[0].String(),
			Thirst:    stats[1].String(),
			Energy:    stats[2].String(),
			Nonce:     p.Nonce,
			Territory: p.Territory,
		}
		for _, k := range p.SortedSkillKinds() {
			s := p.Skills[k]
			ps.Skills = append(ps.Skills, snapshot.SkillV1{Kind: uint32(k), Level: s.Level, Exp: s.Experience().String()})
		}
		snap.Participants = append(snap.Participants, ps)
	}

	for _, t := range st.Territories {
		ts := snapshot.TerritoryV1{
			ID:            t.ID,
			Address:       t.Address.Hex(),
			Owner:         t.Owner.Hex(),
			Name:          t.Name,
			MetadataURI:   t.MetadataURI,
			Salt:          hex.EncodeToString(t.Salt[:]),
			DeclaredValue: orZero(t.DeclaredValue).String(),
			CreatedBlock:  t.CreatedBlock,
		}
		for _, m := range t.SortedMembers() {
			ts.Members = append(ts.Members, m.Hex())
		}
		for _, b := range t.Businesses {
			ts.Businesses = append(ts.Businesses, snapshot.BusinessV1{
				ID:           b.ID,
				Address:      b.Address.Hex(),
				Name:         b.Name,
				Type:         b.Type,
				Owner:        b.Owner.Hex(),
				CreatedBlock: b.CreatedBlock,
			})
		}
		snap.Territories = append(snap.Territories, ts)
	}

	for _, e := range st.Balances.Entries() {
		snap.Balances = append(snap.Balances, snapshot.BalanceV1{Holder: e.Holder.Hex(), ID: e.ID, Amount: e.Amount.String()})
	}
	return snap
}
