package model

import (
	"math/big"
	"sort"
)

// Vitality holds the depletable participant stats in fixed-point base units.
type Vitality struct {
	Hunger *big.Int
	Thirst *big.Int
	Energy *big.Int
}

func NewVitality(hunger, thirst, energy *big.Int) Vitality {
	return Vitality{Hunger: cloneInt(hunger), Thirst: cloneInt(thirst), Energy: cloneInt(energy)}
}

func UniformVitality(v *big.Int) Vitality { return NewVitality(v, v, v) }

func (v Vitality) Clone() Vitality { return NewVitality(v.Hunger, v.Thirst, v.Energy) }

// Stats returns the stats in fixed check order: hunger, thirst, energy.
func (v Vitality) Stats() [3]*big.Int {
	return [3]*big.Int{orZero(v.Hunger), orZero(v.Thirst), orZero(v.Energy)}
}

var VitalityStatNames = [3]string{"hunger", "thirst", "energy"}

func (v Vitality) Equal(o Vitality) bool {
	a, b := v.Stats(), o.Stats()
	for i := range a {
		if a[i].Cmp(b[i]) != 0 {
			return false
		}
	}
	return true
}

// Within reports whether every stat lies in [0, max].
func (v Vitality) Within(max *big.Int) bool {
	for _, s := range v.Stats() {
		if s.Sign() < 0 || (max != nil && s.Cmp(max) > 0) {
			return false
		}
	}
	return true
}

type SkillKind uint32

// SkillNone marks recipes that neither require nor train a skill.
const SkillNone SkillKind = 0

type Skill struct {
	Level uint32
	Exp   *big.Int
}

func (s Skill) Clone() Skill { return Skill{Level: s.Level, Exp: cloneInt(s.Exp)} }

func (s Skill) Experience() *big.Int { return orZero(s.Exp) }

type Participant struct {
	Address  Address
	Vitality Vitality
	Skills   map[SkillKind]Skill

	// Nonce is the next authorization nonce this participant must sign.
	Nonce uint64

	// Territory is the id of the territory the participant belongs to (0 = none).
	Territory uint64
}

func (p *Participant) Skill(kind SkillKind) Skill {
	if p == nil || p.Skills == nil {
		return Skill{Exp: new(big.Int)}
	}
	s, ok := p.Skills[kind]
	if !ok {
		return Skill{Exp: new(big.Int)}
	}
	return s.Clone()
}

func (p *Participant) SortedSkillKinds() []SkillKind {
	out := make([]SkillKind, 0, len(p.Skills))
	for k := range p.Skills {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Vitality = p.Vitality.Clone()
	cp.Skills = make(map[SkillKind]Skill, len(p.Skills))
	for k, s := range p.Skills {
		cp.Skills[k] = s.Clone()
	}
	return &cp
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
