package world

import (
	"fmt"
	"math/big"

	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
)

type WorldConfig struct {
	ID string

	// DomainAddress identifies this ledger in signed messages and holds the
	// creation-fee pool.
	DomainAddress model.Address
	ChainID       *big.Int
	PersonalSign  bool

	BlockMs             int
	SnapshotEveryBlocks int

	TerritoryCreationCost *big.Int
	BusinessCreationCost  *big.Int
	BusinessTypes         []uint32

	VitalityMax     *big.Int
	VitalityInitial *big.Int

	SkillThresholds []*big.Int
	StarterExp      map[model.SkillKind]*big.Int
}

// DomainAddressFor derives the default domain address of a world id.
func DomainAddressFor(worldID string) model.Address {
	h := auth.Keccak256([]byte("galax.network/world/" + worldID))
	return model.BytesToAddress(h[12:])
}

func ConfigFromTuning(t tuning.Tuning) (WorldConfig, error) {
	cfg := WorldConfig{
		ID:                    t.WorldID,
		ChainID:               new(big.Int).SetUint64(t.ChainID),
		PersonalSign:          t.Auth.PersonalSign,
		BlockMs:               t.BlockMs,
		SnapshotEveryBlocks:   t.SnapshotEveryBlocks,
		TerritoryCreationCost: t.Costs.TerritoryCreation.Big(),
		BusinessCreationCost:  t.Costs.BusinessCreation.Big(),
		BusinessTypes:         append([]uint32(nil), t.BusinessTypes...),
		VitalityMax:           t.Vitality.Max.Big(),
		VitalityInitial:       t.Vitality.Initial.Big(),
		StarterExp:            map[model.SkillKind]*big.Int{},
	}
	if t.DomainAddress != "" {
		a, err := model.ParseAddress(t.DomainAddress)
		if err != nil {
			return cfg, fmt.Errorf("domain_address: %w", err)
		}
		cfg.DomainAddress = a
	}
	for _, th := range t.Skills.LevelThresholds {
		cfg.SkillThresholds = append(cfg.SkillThresholds, th.Big())
	}
	for _, k := range t.StarterSkillKinds() {
		cfg.StarterExp[model.SkillKind(k)] = t.Skills.StarterExp[k].Big()
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "GALAXY_1"
	}
	if c.DomainAddress.IsZero() {
		c.DomainAddress = DomainAddressFor(c.ID)
	}
	if c.ChainID == nil {
		c.ChainID = big.NewInt(31337)
	}
	if c.BlockMs <= 0 {
		c.BlockMs = 500
	}
	if c.SnapshotEveryBlocks < 0 {
		c.SnapshotEveryBlocks = 0
	}
	if c.TerritoryCreationCost == nil {
		c.TerritoryCreationCost = big.NewInt(100000)
	}
	if c.BusinessCreationCost == nil {
		c.BusinessCreationCost = big.NewInt(10000)
	}
	if len(c.BusinessTypes) == 0 {
		c.BusinessTypes = []uint32{1, 2, 3, 4, 5}
	}
	if c.VitalityMax == nil || c.VitalityMax.Sign() <= 0 {
		e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
		c.VitalityMax = e18.Mul(e18, big.NewInt(100))
	}
	if c.VitalityInitial == nil || c.VitalityInitial.Cmp(c.VitalityMax) > 0 {
		c.VitalityInitial = new(big.Int).Set(c.VitalityMax)
	}
	if c.StarterExp == nil {
		c.StarterExp = map[model.SkillKind]*big.Int{}
	}
}

func (c WorldConfig) isBusinessType(typ uint32) bool {
	for _, v := range c.BusinessTypes {
		if v == typ {
			return true
		}
	}
	return false
}
