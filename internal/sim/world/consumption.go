package world

import (
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/consumption"
)

// Consume burns tx.Amount units of item tx.Resource from the territory and
// restores the participant's vitality by the item's per-unit values, each stat
// capped at the configured maximum. Like Produce it is sent by the territory
// owner and carries the participant's authorization.
func (e *Engine) Consume(st *State, tx Tx, height uint64) (Result, []Event, error) {
	t := st.Territory(tx.Territory)
	if t == nil {
		return Result{}, nil, unknownTerritory(tx.Territory)
	}
	if tx.Sender != t.Owner {
		return Result{}, nil, ErrNotOwner.With("only the territory owner may consume", "sender", tx.Sender.Hex())
	}

	p := st.Participants[tx.Participant]
	req := consumption.Request{
		TerritoryID:      t.ID,
		TerritoryAddress: t.Address,
		Participant:      p,
		ItemID:           tx.Resource,
		Amount:           tx.Amount,
	}
	verify := func() error {
		return e.verifier.Verify(p.Address, t.ID, p.Nonce, auth.ActionConsume, tx.Auth)
	}
	plan, err := consumption.Check(req, e.items[tx.Resource], e.cfg.VitalityMax, st.Balances, verify)
	if err != nil {
		return Result{}, nil, err
	}

	btx := st.Balances.Begin()
	if err := btx.Debit(t.Address, plan.ItemID, plan.Amount); err != nil {
		btx.Discard()
		return Result{}, nil, ErrInsufficientInput.With(err.Error())
	}
	btx.Commit()

	p.Vitality = plan.Vitality
	p.Nonce++

	vit := p.Vitality.Clone()
	res := Result{
		TerritoryID:     t.ID,
		ResourceBalance: st.Balances.BalanceOf(t.Address, plan.ItemID),
		Vitality:        &vit,
		Nonce:           p.Nonce,
	}
	ev := Event{
		Type:        EventItemConsumed,
		Height:      height,
		TxID:        tx.ID,
		TerritoryID: t.ID,
		Participant: p.Address,
		ResourceID:  plan.ItemID,
		Amount:      plan.Amount,
	}
	return res, []Event{ev}, nil
}
