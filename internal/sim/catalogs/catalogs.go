package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	simenc "galax.network/internal/sim/encoding"
)

const (
	KindResource = "RESOURCE"
	KindItem     = "ITEM"
)

// Catalogs is the shared, read-only Resource/Item Catalog.
type Catalogs struct {
	Resources ResourceCatalog
}

type ResourceCatalog struct {
	Defs   []ResourceDef
	ByID   map[uint64]ResourceDef
	Digest string
}

type ResourceDef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	// MaxSupply caps the outstanding amount of an ITEM; zero means uncapped.
	MaxSupply simenc.Amount `json:"max_supply,omitempty"`
	Recipe    RecipeDef     `json:"recipe"`
	// Restores is the vitality one consumed unit of an ITEM gives back.
	Restores VitalityCost `json:"restores"`
}

// Consumable reports whether the def is an item that restores vitality.
func (d ResourceDef) Consumable() bool {
	return d.Kind == KindItem && !d.Restores.IsZero()
}

type RecipeDef struct {
	MaxPerCall      simenc.Amount `json:"max_per_call"`
	VitalityCost    VitalityCost  `json:"vitality_cost"`
	SkillKind       uint32        `json:"skill_kind,omitempty"`
	SkillExpPerUnit simenc.Amount `json:"skill_exp_per_unit,omitempty"`
	Inputs          []InputDef    `json:"inputs,omitempty"`
}

type InputDef struct {
	ID      uint64        `json:"id"`
	PerUnit simenc.Amount `json:"per_unit"`
}

// VitalityCost decodes from either one amount applied to every stat or an
// object with hunger/thirst/energy.
type VitalityCost struct {
	Hunger simenc.Amount `json:"hunger"`
	Thirst simenc.Amount `json:"thirst"`
	Energy simenc.Amount `json:"energy"`
}

func (v VitalityCost) IsZero() bool {
	return v.Hunger.IsZero() && v.Thirst.IsZero() && v.Energy.IsZero()
}

func (v *VitalityCost) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type plain VitalityCost
		var p plain
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		*v = VitalityCost(p)
		return nil
	}
	var a simenc.Amount
	if err := json.Unmarshal(b, &a); err != nil {
		return fmt.Errorf("vitality_cost: %w", err)
	}
	*v = VitalityCost{Hunger: a, Thirst: a, Energy: a}
	return nil
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogs) Resource(id uint64) (ResourceDef, bool) {
	if c == nil {
		return ResourceDef{}, false
	}
	d, ok := c.Resources.ByID[id]
	return d, ok
}

func loadResources(path string, out *ResourceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseResources(raw, out)
}

// Parse builds a catalog from resources.json bytes.
func Parse(raw []byte) (*Catalogs, error) {
	var c Catalogs
	if err := parseResources(raw, &c.Resources); err != nil {
		return nil, err
	}
	return &c, nil
}

func parseResources(raw []byte, out *ResourceCatalog) error {
	out.Digest = sha256Hex(raw)

	var defs []ResourceDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	out.ByID = make(map[uint64]ResourceDef, len(defs))
	for _, d := range defs {
		// Balance id 0 is the native value.
		if d.ID == 0 {
			return fmt.Errorf("resources.json: id 0 is reserved")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("resources.json: duplicate id %d", d.ID)
		}
		switch d.Kind {
		case KindResource:
			if !d.MaxSupply.IsZero() {
				return fmt.Errorf("resources.json: %d: max_supply is only valid for %s", d.ID, KindItem)
			}
			if !d.Restores.IsZero() {
				return fmt.Errorf("resources.json: %d: restores is only valid for %s", d.ID, KindItem)
			}
		case KindItem:
		default:
			return fmt.Errorf("resources.json: %d: unknown kind %q", d.ID, d.Kind)
		}
		if d.Recipe.MaxPerCall.IsZero() {
			return fmt.Errorf("resources.json: %d: recipe.max_per_call must be > 0", d.ID)
		}
		out.ByID[d.ID] = d
	}
	for _, d := range out.ByID {
		for _, in := range d.Recipe.Inputs {
			if in.ID == d.ID {
				return fmt.Errorf("resources.json: %d: recipe consumes itself", d.ID)
			}
			if _, ok := out.ByID[in.ID]; !ok {
				return fmt.Errorf("resources.json: %d: unknown input %d", d.ID, in.ID)
			}
		}
	}

	out.Defs = make([]ResourceDef, 0, len(out.ByID))
	for _, d := range out.ByID {
		out.Defs = append(out.Defs, d)
	}
	sort.Slice(out.Defs, func(i, j int) bool { return out.Defs[i].ID < out.Defs[j].ID })
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
