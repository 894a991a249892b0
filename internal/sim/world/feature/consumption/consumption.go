// Package consumption evaluates eating an item held by a territory. Like
// production it only plans: the caller applies the Plan.
package consumption

import (
	"math/big"
	"strconv"

	"galax.network/internal/sim/world/kernel/fault"
	"galax.network/internal/sim/world/kernel/model"
)

// Item is a consumable catalog entry. Restores is per consumed unit.
type Item struct {
	ID       uint64
	Restores model.Vitality
}

type Balances interface {
	BalanceOf(holder model.Address, id uint64) *big.Int
}

type Request struct {
	TerritoryID      uint64
	TerritoryAddress model.Address
	Participant      *model.Participant
	ItemID           uint64
	Amount           *big.Int
}

type Plan struct {
	ItemID   uint64
	Amount   *big.Int
	Vitality model.Vitality
}

// Check runs the preconditions in order: membership, authorization, item,
// amount, territory stock. Each stat of the planned vitality is capped at max.
func Check(req Request, item *Item, max *big.Int, bal Balances, authorize func() error) (Plan, error) {
	p := req.Participant
	if p == nil || p.Territory == 0 || p.Territory != req.TerritoryID {
		return Plan{}, fault.ErrNotMember.With("participant is not a member of the territory",
			"territory", strconv.FormatUint(req.TerritoryID, 10))
	}
	if authorize != nil {
		if err := authorize(); err != nil {
			return Plan{}, err
		}
	}
	if item == nil {
		return Plan{}, fault.ErrUnknownResource.With("item is not consumable",
			"item", strconv.FormatUint(req.ItemID, 10))
	}
	amount := req.Amount
	if amount == nil || amount.Sign() <= 0 {
		return Plan{}, fault.ErrBadRequest.With("amount must be positive")
	}
	if have := bal.BalanceOf(req.TerritoryAddress, item.ID); have.Cmp(amount) < 0 {
		return Plan{}, fault.ErrInsufficientInput.With("territory holds too little of the item",
			"item", strconv.FormatUint(item.ID, 10), "have", have.String(), "need", amount.String())
	}

	cur := p.Vitality.Stats()
	per := item.Restores.Stats()
	var next [3]*big.Int
	for i := range cur {
		v := new(big.Int).Mul(per[i], amount)
		v.Add(v, cur[i])
		if max != nil && v.Cmp(max) > 0 {
			v.Set(max)
		}
		next[i] = v
	}
	return Plan{
		ItemID:   item.ID,
		Amount:   new(big.Int).Set(amount),
		Vitality: model.NewVitality(next[0], next[1], next[2]),
	}, nil
}
