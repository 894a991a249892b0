package world

import (
	"math/big"

	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/membership"
	"galax.network/internal/sim/world/kernel/model"
)

// Join makes tx.Participant a member of tx.Territory. Only the territory owner
// may submit it; the participant's signature authorizes it. Re-joining the
// same territory changes nothing but still consumes the nonce.
func (e *Engine) Join(st *State, tx Tx, height uint64) (Result, []Event, error) {
	t := st.Territory(tx.Territory)
	if t == nil {
		return Result{}, nil, unknownTerritory(tx.Territory)
	}
	if tx.Sender != t.Owner {
		return Result{}, nil, ErrNotOwner.With("only the territory owner may add members", "sender", tx.Sender.Hex())
	}

	p := st.Participants[tx.Participant]
	var stored uint64
	if p != nil {
		stored = p.Nonce
	}
	if err := e.verifier.Verify(tx.Participant, t.ID, stored, auth.ActionJoin, tx.Auth); err != nil {
		return Result{}, nil, err
	}

	plan := membership.PlanJoin(p, t.ID)
	switch plan.Outcome {
	case membership.OutcomeNew:
		p = e.newParticipant(tx.Participant)
		st.Participants[p.Address] = p
	case membership.OutcomeTransfer:
		if prev := st.Territory(plan.From); prev != nil {
			delete(prev.Members, p.Address)
		}
	}
	if plan.Changes() {
		p.Territory = t.ID
		if t.Members == nil {
			t.Members = map[model.Address]bool{}
		}
		t.Members[p.Address] = true
	}
	p.Nonce++

	res := Result{TerritoryID: t.ID, Membership: plan.Outcome.String(), Nonce: p.Nonce}
	if !plan.Changes() {
		return res, nil, nil
	}
	ev := Event{
		Type:          EventParticipantJoined,
		Height:        height,
		TxID:          tx.ID,
		TerritoryID:   t.ID,
		Participant:   p.Address,
		FromTerritory: plan.From,
	}
	return res, []Event{ev}, nil
}

func (e *Engine) newParticipant(addr model.Address) *model.Participant {
	p := &model.Participant{
		Address:  addr,
		Vitality: model.UniformVitality(e.cfg.VitalityInitial),
		Skills:   make(map[model.SkillKind]model.Skill, len(e.cfg.StarterExp)),
	}
	for kind, exp := range e.cfg.StarterExp {
		if kind == model.SkillNone || exp == nil {
			continue
		}
		p.Skills[kind] = e.planner.Skills.Apply(model.Skill{Exp: new(big.Int)}, exp)
	}
	return p
}
