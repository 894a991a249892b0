package worldtest

import (
	"testing"

	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world/kernel/model"
)

func loadTuning(t *testing.T) tuning.Tuning {
	t.Helper()
	tun, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	return tun
}

func modelSkill(k uint32) model.SkillKind { return model.SkillKind(k) }
