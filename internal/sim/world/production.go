package world

import (
	"errors"

	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/feature/production"
	"galax.network/internal/sim/world/kernel/model"
)

// Produce mints tx.Amount of tx.Resource into the territory on behalf of a
// member, paying tx.Reward from the treasury to the participant. Every
// precondition is checked before anything changes; the balance moves are
// staged and committed together with the participant update.
func (e *Engine) Produce(st *State, tx Tx, height uint64) (Result, []Event, error) {
	t := st.Territory(tx.Territory)
	if t == nil {
		return Result{}, nil, unknownTerritory(tx.Territory)
	}
	if tx.Sender != t.Owner {
		return Result{}, nil, ErrNotOwner.With("only the territory owner may produce", "sender", tx.Sender.Hex())
	}

	p := st.Participants[tx.Participant]
	req := production.Request{
		TerritoryID:      t.ID,
		TerritoryAddress: t.Address,
		Participant:      p,
		ResourceID:       tx.Resource,
		Amount:           tx.Amount,
		Reward:           tx.Reward,
	}
	verify := func() error {
		return e.verifier.Verify(p.Address, t.ID, p.Nonce, auth.ActionProduce, tx.Auth)
	}
	plan, err := e.planner.Check(req, e.recipes[tx.Resource], st.Balances, verify)
	if err != nil {
		return Result{}, nil, err
	}

	btx := st.Balances.Begin()
	if err := stageProduction(btx, t.Address, p.Address, plan); err != nil {
		btx.Discard()
		return Result{}, nil, err
	}
	btx.Commit()

	p.Vitality = plan.Vitality
	if plan.Skill.Exp != nil {
		if p.Skills == nil {
			p.Skills = map[model.SkillKind]model.Skill{}
		}
		p.Skills[e.recipes[tx.Resource].SkillKind] = plan.Skill
	}
	p.Nonce++

	vit := p.Vitality.Clone()
	res := Result{
		TerritoryID:     t.ID,
		ResourceBalance: st.Balances.BalanceOf(t.Address, plan.ResourceID),
		Vitality:        &vit,
		Nonce:           p.Nonce,
	}
	ev := Event{
		Type:        EventResourceProduced,
		Height:      height,
		TxID:        tx.ID,
		TerritoryID: t.ID,
		Participant: p.Address,
		ResourceID:  plan.ResourceID,
		Amount:      plan.Amount,
		Reward:      plan.Reward,
	}
	return res, []Event{ev}, nil
}

func stageProduction(btx *balances.Tx, territory, participant model.Address, plan production.Plan) error {
	if err := btx.Credit(territory, plan.ResourceID, plan.Amount); err != nil {
		if errors.Is(err, balances.ErrSupplyExceeded) {
			return ErrSupplyExceeded.With(err.Error())
		}
		return err
	}
	for _, in := range plan.Inputs {
		if err := btx.Debit(territory, in.ID, in.Amount); err != nil {
			return ErrInsufficientInput.With(err.Error())
		}
	}
	if err := btx.Transfer(territory, participant, balances.NativeID, plan.Reward); err != nil {
		return ErrInsufficientTreasury.With(err.Error())
	}
	return nil
}
