package world

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
)

// ImportSnapshot replaces the ledger with snap. It must be called before Run.
// The rebuilt state must hash to the digest recorded in the snapshot header;
// only an empty height-0 snapshot may omit it.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.Header.Digest == "" && !isGenesis(snap) {
		return fmt.Errorf("snapshot at height %d has no digest", snap.Header.Height)
	}
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	if snap.Header.WorldID != w.cfg.ID {
		return fmt.Errorf("snapshot world id %q does not match %q", snap.Header.WorldID, w.cfg.ID)
	}
	if snap.DomainAddress != w.cfg.DomainAddress.Hex() || snap.ChainID != w.cfg.ChainID.String() {
		return fmt.Errorf("snapshot domain/chain (%s/%s) does not match world (%s/%s)",
			snap.DomainAddress, snap.ChainID, w.cfg.DomainAddress.Hex(), w.cfg.ChainID)
	}

	st := NewState()
	st.Height = snap.Header.Height

	for _, ps := range snap.Participants {
		p, err := participantFromSnapshot(ps)
		if err != nil {
			return err
		}
		if _, dup := st.Participants[p.Address]; dup {
			return fmt.Errorf("snapshot: duplicate participant %s", p.Address)
		}
		st.Participants[p.Address] = p
	}

	for i, ts := range snap.Territories {
		if ts.ID != uint64(i)+1 {
			return fmt.Errorf("snapshot: territory ids not sequential at %d", ts.ID)
		}
		t, err := territoryFromSnapshot(ts)
		if err != nil {
			return err
		}
		st.addTerritory(t)
	}
	for _, p := range st.Participants {
		if p.Territory == 0 {
			continue
		}
		if t := st.Territory(p.Territory); t == nil || !t.Members[p.Address] {
			return fmt.Errorf("snapshot: participant %s membership of %d not mirrored", p.Address, p.Territory)
		}
	}

	entries := make([]balances.Entry, 0, len(snap.Balances))
	for _, b := range snap.Balances {
		holder, err := model.ParseAddress(b.Holder)
		if err != nil {
			return fmt.Errorf("snapshot balance holder: %w", err)
		}
		amt, err := parseBig(b.Amount)
		if err != nil {
			return fmt.Errorf("snapshot balance %s/%d: %w", b.Holder, b.ID, err)
		}
		entries = append(entries, balances.Entry{Holder: holder, ID: b.ID, Amount: amt})
	}
	if err := st.Balances.Import(entries); err != nil {
		return fmt.Errorf("snapshot balances: %w", err)
	}
	w.engine.InitLedger(st)

	prev := w.state
	w.state = st
	digest := w.stateDigest()
	if snap.Header.Digest != "" && digest != snap.Header.Digest {
		w.state = prev
		return fmt.Errorf("snapshot digest mismatch: header=%s rebuilt=%s", snap.Header.Digest, digest)
	}
	w.publish(digest)
	return nil
}

func isGenesis(snap snapshot.SnapshotV1) bool {
	return snap.Header.Height == 0 && len(snap.Participants) == 0 &&
		len(snap.Territories) == 0 && len(snap.Balances) == 0
}

func participantFromSnapshot(ps snapshot.ParticipantV1) (*model.Participant, error) {
	addr, err := model.ParseAddress(ps.Address)
	if err != nil {
		return nil, fmt.Errorf("snapshot participant: %w", err)
	}
	var stats [3]*big.Int
	for i, s := range []string{ps.Hunger, ps.Thirst, ps.Energy} {
		if stats[i], err = parseBig(s); err != nil {
			return nil, fmt.Errorf("snapshot participant %s %s: %w", ps.Address, model.VitalityStatNames[i], err)
		}
	}
	p := &model.Participant{
		Address:   addr,
		Vitality:  model.Vitality{Hunger: stats[0], Thirst: stats[1], Energy: stats[2]},
		Skills:    make(map[model.SkillKind]model.Skill, len(ps.Skills)),
		Nonce:     ps.Nonce,
		Territory: ps.Territory,
	}
	for _, s := range ps.Skills {
		exp, err := parseBig(s.Exp)
		if err != nil {
			return nil, fmt.Errorf("snapshot participant %s skill %d: %w", ps.Address, s.Kind, err)
		}
		p.Skills[model.SkillKind(s.Kind)] = model.Skill{Level: s.Level, Exp: exp}
	}
	return p, nil
}

func territoryFromSnapshot(ts snapshot.TerritoryV1) (*model.Territory, error) {
	addr, err := model.ParseAddress(ts.Address)
	if err != nil {
		return nil, fmt.Errorf("snapshot territory %d address: %w", ts.ID, err)
	}
	owner, err := model.ParseAddress(ts.Owner)
	if err != nil {
		return nil, fmt.Errorf("snapshot territory %d owner: %w", ts.ID, err)
	}
	salt, err := hex.DecodeString(ts.Salt)
	if err != nil || len(salt) != 32 {
		return nil, fmt.Errorf("snapshot territory %d salt must be 32 hex bytes", ts.ID)
	}
	declared, err := parseBig(ts.DeclaredValue)
	if err != nil {
		return nil, fmt.Errorf("snapshot territory %d declared value: %w", ts.ID, err)
	}
	t := &model.Territory{
		ID:            ts.ID,
		Address:       addr,
		Owner:         owner,
		Name:          ts.Name,
		MetadataURI:   ts.MetadataURI,
		DeclaredValue: declared,
		CreatedBlock:  ts.CreatedBlock,
		Members:       make(map[model.Address]bool, len(ts.Members)),
	}
	copy(t.Salt[:], salt)
	for _, m := range ts.Members {
		a, err := model.ParseAddress(m)
		if err != nil {
			return nil, fmt.Errorf("snapshot territory %d member: %w", ts.ID, err)
		}
		t.Members[a] = true
	}
	for i, bs := range ts.Businesses {
		if bs.ID != uint64(i)+1 {
			return nil, fmt.Errorf("snapshot territory %d: business ids not sequential", ts.ID)
		}
		baddr, err := model.ParseAddress(bs.Address)
		if err != nil {
			return nil, fmt.Errorf("snapshot business %d/%d address: %w", ts.ID, bs.ID, err)
		}
		bowner, err := model.ParseAddress(bs.Owner)
		if err != nil {
			return nil, fmt.Errorf("snapshot business %d/%d owner: %w", ts.ID, bs.ID, err)
		}
		t.Businesses = append(t.Businesses, &model.Business{
			ID:           bs.ID,
			TerritoryID:  ts.ID,
			Address:      baddr,
			Name:         bs.Name,
			Type:         bs.Type,
			Owner:        bowner,
			CreatedBlock: bs.CreatedBlock,
		})
	}
	return t, nil
}

func parseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
