// Package production evaluates a production request against its recipe and
// the current ledger without mutating anything. The caller applies the
// returned Plan only when every precondition passed.
package production

import (
	"math/big"
	"strconv"

	"galax.network/internal/sim/world/feature/skills"
	"galax.network/internal/sim/world/kernel/fault"
	"galax.network/internal/sim/world/kernel/model"
)

type Input struct {
	ID      uint64
	PerUnit *big.Int
}

type Recipe struct {
	ResourceID      uint64
	MaxPerCall      *big.Int
	VitalityCost    model.Vitality
	SkillKind       model.SkillKind
	SkillExpPerUnit *big.Int
	Inputs          []Input
}

// Balances is the read side of the balance ledger.
type Balances interface {
	BalanceOf(holder model.Address, id uint64) *big.Int
}

type Request struct {
	TerritoryID      uint64
	TerritoryAddress model.Address
	Participant      *model.Participant
	ResourceID       uint64
	Amount           *big.Int
	Reward           *big.Int
}

// Plan is the fully-checked outcome of a production request.
type Plan struct {
	ResourceID uint64
	Amount     *big.Int
	Reward     *big.Int

	Vitality model.Vitality
	Skill    model.Skill
	Gained   *big.Int

	Inputs []Debit
}

// Debit is the total amount of one input consumed by a plan.
type Debit struct {
	ID     uint64
	Amount *big.Int
}

type Planner struct {
	Skills skills.Table
}

// Check runs the production preconditions in their fixed order:
// membership, authorization, limit, treasury, vitality, skill experience, inputs.
// authorize is called only after membership is confirmed; recipe is nil for
// an unknown resource.
func (pl Planner) Check(req Request, recipe *Recipe, bal Balances, authorize func() error) (Plan, error) {
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

	if recipe == nil {
		return Plan{}, fault.ErrUnknownResource.With("no recipe for resource",
			"resource", strconv.FormatUint(req.ResourceID, 10))
	}
	amount := req.Amount
	if amount == nil || amount.Sign() <= 0 {
		return Plan{}, fault.ErrBadRequest.With("amount must be positive")
	}
	if recipe.MaxPerCall != nil && amount.Cmp(recipe.MaxPerCall) > 0 {
		return Plan{}, fault.ErrOverProductionLimit.With("amount exceeds max per call",
			"amount", amount.String(), "max", recipe.MaxPerCall.String())
	}

	reward := req.Reward
	if reward == nil {
		reward = new(big.Int)
	}
	if reward.Sign() < 0 {
		return Plan{}, fault.ErrBadRequest.With("reward must not be negative")
	}
	treasury := bal.BalanceOf(req.TerritoryAddress, 0)
	if treasury.Cmp(reward) < 0 {
		return Plan{}, fault.ErrInsufficientTreasury.With("treasury below reward",
			"treasury", treasury.String(), "reward", reward.String())
	}

	have := p.Vitality.Stats()
	cost := recipe.VitalityCost.Stats()
	var left [3]*big.Int
	for i := range have {
		if have[i].Cmp(cost[i]) < 0 {
			return Plan{}, fault.ErrInsufficientVitality.With("vitality below recipe cost",
				"stat", model.VitalityStatNames[i], "have", have[i].String(), "cost", cost[i].String())
		}
		left[i] = new(big.Int).Sub(have[i], cost[i])
	}

	gained := new(big.Int)
	if recipe.SkillExpPerUnit != nil {
		gained.Mul(recipe.SkillExpPerUnit, amount)
	}
	cur := p.Skill(recipe.SkillKind)
	if recipe.SkillKind != model.SkillNone && cur.Experience().Cmp(gained) < 0 {
		return Plan{}, fault.ErrInsufficientSkillExp.With("skill experience below requirement",
			"skill", strconv.FormatUint(uint64(recipe.SkillKind), 10),
			"have", cur.Experience().String(), "need", gained.String())
	}

	inputs := make([]Debit, 0, len(recipe.Inputs))
	for _, in := range recipe.Inputs {
		need := new(big.Int).Mul(in.PerUnit, amount)
		if got := bal.BalanceOf(req.TerritoryAddress, in.ID); got.Cmp(need) < 0 {
			return Plan{}, fault.ErrInsufficientInput.With("territory lacks recipe input",
				"input", strconv.FormatUint(in.ID, 10), "have", got.String(), "need", need.String())
		}
		inputs = append(inputs, Debit{ID: in.ID, Amount: need})
	}

	plan := Plan{
		ResourceID: recipe.ResourceID,
		Amount:     new(big.Int).Set(amount),
		Reward:     new(big.Int).Set(reward),
		Vitality:   model.NewVitality(left[0], left[1], left[2]),
		Gained:     gained,
		Inputs:     inputs,
	}
	if recipe.SkillKind != model.SkillNone {
		plan.Skill = pl.Skills.Apply(cur, gained)
	}
	return plan, nil
}
