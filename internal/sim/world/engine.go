package world

import (
	"fmt"

	"galax.network/internal/sim/catalogs"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/consumption"
	"galax.network/internal/sim/world/feature/production"
	"galax.network/internal/sim/world/feature/skills"
	"galax.network/internal/sim/world/kernel/model"
)

// Engine holds the read-only rules of one world: configuration, recipes and
// the authorization verifier. Every transition takes the State explicitly.
type Engine struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	recipes  map[uint64]*production.Recipe
	items    map[uint64]*consumption.Item
	verifier auth.Verifier
	planner  production.Planner
}

func NewEngine(cfg WorldConfig, cats *catalogs.Catalogs) (*Engine, error) {
	cfg.applyDefaults()
	table, err := skills.NewTable(cfg.SkillThresholds)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		catalogs: cats,
		recipes:  map[uint64]*production.Recipe{},
		items:    map[uint64]*consumption.Item{},
		verifier: auth.Verifier{Domain: cfg.DomainAddress, ChainID: cfg.ChainID, PersonalSign: cfg.PersonalSign},
		planner:  production.Planner{Skills: table},
	}
	if cats != nil {
		for _, d := range cats.Resources.Defs {
			e.recipes[d.ID] = recipeFromDef(d)
			if d.Consumable() {
				e.items[d.ID] = &consumption.Item{ID: d.ID, Restores: model.NewVitality(
					d.Restores.Hunger.Big(), d.Restores.Thirst.Big(), d.Restores.Energy.Big())}
			}
		}
	}
	return e, nil
}

func recipeFromDef(d catalogs.ResourceDef) *production.Recipe {
	r := &production.Recipe{
		ResourceID: d.ID,
		MaxPerCall: d.Recipe.MaxPerCall.Big(),
		VitalityCost: model.NewVitality(
			d.Recipe.VitalityCost.Hunger.Big(),
			d.Recipe.VitalityCost.Thirst.Big(),
			d.Recipe.VitalityCost.Energy.Big(),
		),
		SkillKind:       model.SkillKind(d.Recipe.SkillKind),
		SkillExpPerUnit: d.Recipe.SkillExpPerUnit.Big(),
	}
	for _, in := range d.Recipe.Inputs {
		r.Inputs = append(r.Inputs, production.Input{ID: in.ID, PerUnit: in.PerUnit.Big()})
	}
	return r
}

func (e *Engine) Config() WorldConfig { return e.cfg }

func (e *Engine) Verifier() auth.Verifier { return e.verifier }

// InitLedger applies catalog supply caps to a fresh or imported state.
func (e *Engine) InitLedger(st *State) {
	if e.catalogs == nil {
		return
	}
	for _, d := range e.catalogs.Resources.Defs {
		if d.Kind == catalogs.KindItem && !d.MaxSupply.IsZero() {
			st.Balances.SetSupplyCap(d.ID, d.MaxSupply.Big())
		}
	}
}

// Apply runs one transaction against st at the given block height. On error
// st is unchanged.
func (e *Engine) Apply(st *State, tx Tx, height uint64) (Result, []Event, error) {
	switch tx.Kind {
	case TxCreateTerritory:
		return e.CreateTerritory(st, tx, height)
	case TxCreateBusiness:
		return e.CreateBusiness(st, tx.Sender, tx.Name, tx.BusinessType, tx.Owner, tx.Value, height, tx.ID)
	case TxTerritoryCreateBusiness:
		return e.TerritoryCreateBusiness(st, tx, height)
	case TxFund:
		return e.Fund(st, tx, height)
	case TxJoin:
		return e.Join(st, tx, height)
	case TxProduce:
		return e.Produce(st, tx, height)
	case TxConsume:
		return e.Consume(st, tx, height)
	default:
		return Result{}, nil, ErrBadRequest.With(fmt.Sprintf("unknown tx kind %q", tx.Kind))
	}
}
