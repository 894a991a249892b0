package skills

import (
	"fmt"
	"math/big"

	"galax.network/internal/sim/world/kernel/model"
)

// Table maps accumulated experience to a level. Thresholds[i] is the
// experience needed to reach level i+1.
type Table struct {
	thresholds []*big.Int
}

func NewTable(thresholds []*big.Int) (Table, error) {
	out := make([]*big.Int, len(thresholds))
	for i, th := range thresholds {
		if th == nil || th.Sign() < 0 {
			return Table{}, fmt.Errorf("skill threshold %d must be non-negative", i)
		}
		if i > 0 && th.Cmp(out[i-1]) < 0 {
			return Table{}, fmt.Errorf("skill threshold %d decreases (%s < %s)", i, th, out[i-1])
		}
		out[i] = new(big.Int).Set(th)
	}
	return Table{thresholds: out}, nil
}

func (t Table) MaxLevel() uint32 { return uint32(len(t.thresholds)) }

func (t Table) LevelFor(exp *big.Int) uint32 {
	if exp == nil {
		return 0
	}
	var lvl uint32
	for _, th := range t.thresholds {
		if exp.Cmp(th) < 0 {
			break
		}
		lvl++
	}
	return lvl
}

// Apply adds gained experience and returns the updated skill. Levels never regress.
func (t Table) Apply(s model.Skill, gained *big.Int) model.Skill {
	exp := new(big.Int).Set(s.Experience())
	if gained != nil {
		exp.Add(exp, gained)
	}
	lvl := t.LevelFor(exp)
	if lvl < s.Level {
		lvl = s.Level
	}
	return model.Skill{Level: lvl, Exp: exp}
}
