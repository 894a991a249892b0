package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	simenc "galax.network/internal/sim/encoding"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	WorldID string `yaml:"world_id"`
	// DomainAddress identifies this ledger instance in signed messages.
	// Empty means derive it from WorldID.
	DomainAddress string `yaml:"domain_address"`
	ChainID       uint64 `yaml:"chain_id"`

	BlockMs             int `yaml:"block_ms"`
	SnapshotEveryBlocks int `yaml:"snapshot_every_blocks"`

	Auth          Auth       `yaml:"auth"`
	Costs         Costs      `yaml:"costs"`
	BusinessTypes []uint32   `yaml:"business_types"`
	Vitality      Vitality   `yaml:"vitality"`
	Skills        Skills     `yaml:"skills"`
	RateLimits    RateLimits `yaml:"rate_limits"`
}

type Auth struct {
	PersonalSign bool `yaml:"personal_sign"`
}

type Costs struct {
	TerritoryCreation simenc.Amount `yaml:"territory_creation"`
	BusinessCreation  simenc.Amount `yaml:"business_creation"`
}

type Vitality struct {
	Max     simenc.Amount `yaml:"max"`
	Initial simenc.Amount `yaml:"initial"`
}

type Skills struct {
	LevelThresholds []simenc.Amount          `yaml:"level_thresholds"`
	StarterExp      map[uint32]simenc.Amount `yaml:"starter_exp"`
}

type RateLimits struct {
	TxPerSecond float64 `yaml:"tx_per_second"`
	TxBurst     int     `yaml:"tx_burst"`
}

func Defaults() Tuning {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	full := new(big.Int).Mul(big.NewInt(100), e18)
	return Tuning{
		ProtocolVersion:     "1.0",
		WorldID:             "GALAXY_1",
		ChainID:             31337,
		BlockMs:             500,
		SnapshotEveryBlocks: 600,
		Costs: Costs{
			TerritoryCreation: simenc.AmountFromUint64(100000),
			BusinessCreation:  simenc.AmountFromUint64(10000),
		},
		BusinessTypes: []uint32{1, 2, 3, 4, 5},
		Vitality: Vitality{
			Max:     simenc.NewAmount(full),
			Initial: simenc.NewAmount(full),
		},
		Skills: Skills{
			LevelThresholds: []simenc.Amount{
				simenc.AmountFromUint64(100),
				simenc.AmountFromUint64(1000),
				simenc.AmountFromUint64(10000),
				simenc.AmountFromUint64(100000),
			},
			StarterExp: map[uint32]simenc.Amount{},
		},
		RateLimits: RateLimits{TxPerSecond: 20, TxBurst: 40},
	}
}

// Load reads a tuning file on top of Defaults and validates the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.WorldID == "" {
		errs = append(errs, errors.New("world_id is required"))
	}
	if t.BlockMs <= 0 {
		errs = append(errs, fmt.Errorf("block_ms must be > 0, got %d", t.BlockMs))
	}
	if t.SnapshotEveryBlocks < 0 {
		errs = append(errs, fmt.Errorf("snapshot_every_blocks must be >= 0, got %d", t.SnapshotEveryBlocks))
	}
	if len(t.BusinessTypes) == 0 {
		errs = append(errs, errors.New("business_types must not be empty"))
	}
	if t.Vitality.Max.IsZero() {
		errs = append(errs, errors.New("vitality.max must be > 0"))
	}
	if t.Vitality.Initial.Big().Cmp(t.Vitality.Max.Big()) > 0 {
		errs = append(errs, errors.New("vitality.initial exceeds vitality.max"))
	}
	for i := 1; i < len(t.Skills.LevelThresholds); i++ {
		if t.Skills.LevelThresholds[i].Big().Cmp(t.Skills.LevelThresholds[i-1].Big()) < 0 {
			errs = append(errs, fmt.Errorf("skills.level_thresholds[%d] decreases", i))
		}
	}
	if t.RateLimits.TxPerSecond < 0 || t.RateLimits.TxBurst < 0 {
		errs = append(errs, errors.New("rate_limits must be non-negative"))
	}
	return errors.Join(errs...)
}

// IsBusinessType reports whether typ is in the configured enumeration.
func (t Tuning) IsBusinessType(typ uint32) bool {
	for _, v := range t.BusinessTypes {
		if v == typ {
			return true
		}
	}
	return false
}

func (t Tuning) StarterSkillKinds() []uint32 {
	out := make([]uint32, 0, len(t.Skills.StarterExp))
	for k := range t.Skills.StarterExp {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Digest is a stable sha256 over the canonical YAML encoding.
func (t Tuning) Digest() string {
	b, err := yaml.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
