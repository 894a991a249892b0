package worldtest

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"galax.network/internal/authority"
	"galax.network/internal/protocol"
	world "galax.network/internal/sim/world"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
)

const productionCatalog = `[
  {"id": 1, "name": "RAW", "kind": "RESOURCE",
   "recipe": {"max_per_call": "1e19", "vitality_cost": "10"}},
  {"id": 2, "name": "CRAFT", "kind": "RESOURCE",
   "recipe": {"max_per_call": "1e19", "vitality_cost": "10", "skill_kind": 1, "skill_exp_per_unit": "1"}},
  {"id": 3, "name": "GOODS", "kind": "RESOURCE",
   "recipe": {"max_per_call": "1e19", "vitality_cost": "1", "inputs": [{"id": 1, "per_unit": "2"}]}},
  {"id": 50, "name": "RELIC", "kind": "ITEM", "max_supply": "5",
   "recipe": {"max_per_call": "10", "vitality_cost": "1"}},
  {"id": 60, "name": "RATION", "kind": "ITEM",
   "restores": {"hunger": "30", "thirst": "20", "energy": "10"},
   "recipe": {"max_per_call": "10", "vitality_cost": "1"}}
]`

type prodFixture struct {
	*Harness
	owner     model.Address
	territory uint64
	addr      model.Address
	p         *authority.Signer
}

// newProduction sets up one territory with treasury 1000 and one member
// whose vitality is 100 on every stat.
func newProduction(t *testing.T, mutate func(*world.WorldConfig)) prodFixture {
	t.Helper()
	cfg := world.WorldConfig{ID: "test", VitalityMax: big.NewInt(100), VitalityInitial: big.NewInt(100)}
	if mutate != nil {
		mutate(&cfg)
	}
	h := NewHarness(t, cfg, ParseCatalogs(t, productionCatalog))
	owner := Addr(0xA1)
	id, addr := h.CreateTerritory(owner, 0, 101000, "a")
	p := Key(t, 1)
	if r := h.Join(owner, id, p); !r.OK() {
		t.Fatalf("join: %v", r.Err)
	}
	return prodFixture{Harness: h, owner: owner, territory: id, addr: addr, p: p}
}

func (f prodFixture) produce(resource uint64, amount, reward *big.Int) world.Receipt {
	f.T.Helper()
	return f.Produce(f.owner, f.territory, f.p, resource, amount, reward)
}

func TestProduce_HappyPath(t *testing.T) {
	f := newProduction(t, nil)

	res := f.Apply(f.ProduceTx(f.owner, f.territory, f.p, 1, big.NewInt(7), big.NewInt(300)))
	r := res.Receipts[0]
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "7", r.Result.ResourceBalance.String())
	require.Equal(t, uint64(2), r.Result.Nonce)
	require.True(t, r.Result.Vitality.Equal(model.UniformVitality(big.NewInt(90))))

	require.Equal(t, "7", f.Balance(f.addr, 1).String())
	require.Equal(t, "700", f.Treasury(f.territory).String())
	require.Equal(t, "300", f.Balance(f.p.Address(), balances.NativeID).String())
	require.Equal(t, uint64(2), f.Nonce(f.p.Address()))

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	require.Equal(t, world.EventResourceProduced, ev.Type)
	require.Equal(t, "7", ev.Amount.String())
	require.Equal(t, "300", ev.Reward.String())
}

func TestProduce_OverProductionLimit(t *testing.T) {
	f := newProduction(t, nil)
	before := f.Ledger()

	e19 := new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)
	e20 := new(big.Int).Mul(e19, big.NewInt(10))
	require.Equal(t, protocol.ErrOverProductionLimit, f.produce(1, e20, nil).Code())
	require.Equal(t, before, f.Ledger())

	r := f.produce(1, e19, nil)
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, e19.String(), f.Balance(f.addr, 1).String())
}

func TestProduce_CapabilityAndMembership(t *testing.T) {
	f := newProduction(t, nil)
	stranger := Key(t, 2)

	r := f.Produce(Addr(0xEE), f.territory, f.p, 1, big.NewInt(1), nil)
	require.Equal(t, protocol.ErrNotOwner, r.Code())

	r = f.Produce(f.owner, f.territory, stranger, 1, big.NewInt(1), nil)
	require.Equal(t, protocol.ErrNotMember, r.Code())

	other, _ := f.CreateTerritory(Addr(0xB2), 0, 100000, "b")
	r = f.Produce(Addr(0xB2), other, f.p, 1, big.NewInt(1), nil)
	require.Equal(t, protocol.ErrNotMember, r.Code())

	r = f.Produce(f.owner, 99, f.p, 1, big.NewInt(1), nil)
	require.Equal(t, protocol.ErrUnknownTerritory, r.Code())
	require.Equal(t, uint64(1), f.Nonce(f.p.Address()))
}

func TestProduce_AuthorizationChecks(t *testing.T) {
	f := newProduction(t, nil)

	tx := f.ProduceTx(f.owner, f.territory, f.p, 1, big.NewInt(1), nil)
	require.True(t, f.ApplyOne(tx).OK())
	tx.ID = ""
	require.Equal(t, protocol.ErrBadNonce, f.ApplyOne(tx).Code())

	// A join authorization for the current nonce cannot be used to produce.
	tx = f.ProduceTx(f.owner, f.territory, f.p, 1, big.NewInt(1), nil)
	tx.Auth = f.p.Authorize(f.Verifier(), f.territory, f.Nonce(f.p.Address()), auth.ActionJoin)
	require.Equal(t, protocol.ErrBadActionKind, f.ApplyOne(tx).Code())

	tx = f.ProduceTx(f.owner, f.territory, f.p, 1, big.NewInt(1), nil)
	tx.Auth = Key(t, 3).Authorize(f.Verifier(), f.territory, f.Nonce(f.p.Address()), auth.ActionProduce)
	require.Equal(t, protocol.ErrBadSigner, f.ApplyOne(tx).Code())

	require.Equal(t, uint64(2), f.Nonce(f.p.Address()))
	require.Equal(t, "1", f.Balance(f.addr, 1).String())
}

func TestProduce_RequestShape(t *testing.T) {
	f := newProduction(t, nil)
	before := f.Ledger()

	require.Equal(t, protocol.ErrUnknownResource, f.produce(77, big.NewInt(1), nil).Code())
	require.Equal(t, protocol.ErrBadRequest, f.produce(1, big.NewInt(0), nil).Code())
	require.Equal(t, protocol.ErrBadRequest, f.produce(1, nil, nil).Code())
	require.Equal(t, before, f.Ledger())
}

func TestProduce_InsufficientTreasuryIsAtomic(t *testing.T) {
	f := newProduction(t, nil)
	before := f.Ledger()

	r := f.produce(1, big.NewInt(1), big.NewInt(1001))
	require.Equal(t, protocol.ErrInsufficientTreasury, r.Code())
	require.Equal(t, before, f.Ledger())

	r = f.produce(1, big.NewInt(1), big.NewInt(1000))
	require.True(t, r.OK(), "%v", r.Err)
	require.Zero(t, f.Treasury(f.territory).Sign())
}

func TestProduce_SkillExperienceFailureIsAtomic(t *testing.T) {
	f := newProduction(t, nil)
	before := f.Ledger()

	r := f.produce(2, big.NewInt(1), big.NewInt(10))
	require.Equal(t, protocol.ErrInsufficientSkillExp, r.Code())
	require.Equal(t, before, f.Ledger(), "resource, treasury, vitality, skill and nonce must be untouched")
}

func TestProduce_VitalityExhaustion(t *testing.T) {
	f := newProduction(t, nil)

	for i := 0; i < 10; i++ {
		r := f.produce(1, big.NewInt(1), nil)
		require.True(t, r.OK(), "produce %d: %v", i, r.Err)
	}
	require.True(t, f.Participant(f.p.Address()).Vitality.Equal(model.UniformVitality(big.NewInt(0))))

	before := f.Ledger()
	require.Equal(t, protocol.ErrInsufficientVitality, f.produce(1, big.NewInt(1), nil).Code())
	// Vitality is checked before skill experience.
	require.Equal(t, protocol.ErrInsufficientVitality, f.produce(2, big.NewInt(1), nil).Code())
	require.Equal(t, before, f.Ledger())
}

func TestProduce_VitalityStaysInRange(t *testing.T) {
	f := newProduction(t, nil)
	limit := f.W.Config().VitalityMax

	amounts := []int64{1, 3, 1000, 2, 9, 1, 40, 5, 7, 6, 11, 1}
	for i, n := range amounts {
		r := f.produce(uint64(1+i%3), big.NewInt(n), big.NewInt(int64(i)))
		vit := f.Participant(f.p.Address()).Vitality
		require.True(t, vit.Within(limit), "step %d (%s): vitality out of range", i, r.Code())
	}
}

func TestProduce_SkillProgression(t *testing.T) {
	f := newProduction(t, func(cfg *world.WorldConfig) {
		cfg.SkillThresholds = []*big.Int{big.NewInt(3), big.NewInt(10)}
		cfg.StarterExp = map[model.SkillKind]*big.Int{1: big.NewInt(5)}
	})
	s := f.Participant(f.p.Address()).Skill(1)
	require.Equal(t, uint32(1), s.Level)
	require.Equal(t, "5", s.Experience().String())

	require.True(t, f.produce(2, big.NewInt(5), nil).OK())
	s = f.Participant(f.p.Address()).Skill(1)
	require.Equal(t, uint32(2), s.Level)
	require.Equal(t, "10", s.Experience().String())

	require.Equal(t, protocol.ErrInsufficientSkillExp, f.produce(2, big.NewInt(11), nil).Code())
	require.True(t, f.produce(2, big.NewInt(10), nil).OK())
	s = f.Participant(f.p.Address()).Skill(1)
	require.Equal(t, uint32(2), s.Level)
	require.Equal(t, "20", s.Experience().String())
}

func TestProduce_InputsConsumed(t *testing.T) {
	f := newProduction(t, nil)
	require.True(t, f.produce(1, big.NewInt(5), nil).OK())

	before := f.Ledger()
	require.Equal(t, protocol.ErrInsufficientInput, f.produce(3, big.NewInt(3), nil).Code())
	require.Equal(t, before, f.Ledger())

	r := f.produce(3, big.NewInt(2), nil)
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "1", f.Balance(f.addr, 1).String())
	require.Equal(t, "2", f.Balance(f.addr, 3).String())
}

func TestProduce_ItemSupplyCap(t *testing.T) {
	f := newProduction(t, nil)
	require.True(t, f.produce(50, big.NewInt(3), nil).OK())

	before := f.Ledger()
	require.Equal(t, protocol.ErrSupplyExceeded, f.produce(50, big.NewInt(3), big.NewInt(1)).Code())
	require.Equal(t, before, f.Ledger())

	require.True(t, f.produce(50, big.NewInt(2), nil).OK())
	require.Equal(t, "5", f.Balance(f.addr, 50).String())
}
