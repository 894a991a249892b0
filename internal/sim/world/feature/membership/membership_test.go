package membership

import (
	"testing"

	"galax.network/internal/sim/world/kernel/model"
)

func TestPlanJoin(t *testing.T) {
	cases := []struct {
		name string
		p    *model.Participant
		want Plan
	}{
		{"new", nil, Plan{Outcome: OutcomeNew, To: 3}},
		{"idle", &model.Participant{}, Plan{Outcome: OutcomeJoined, To: 3}},
		{"same", &model.Participant{Territory: 3}, Plan{Outcome: OutcomeNoop, From: 3, To: 3}},
		{"transfer", &model.Participant{Territory: 1}, Plan{Outcome: OutcomeTransfer, From: 1, To: 3}},
	}
	for _, tc := range cases {
		if got := PlanJoin(tc.p, 3); got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestPlanChanges(t *testing.T) {
	if (Plan{Outcome: OutcomeNoop}).Changes() {
		t.Fatalf("noop should not change membership")
	}
	if !(Plan{Outcome: OutcomeTransfer}).Changes() {
		t.Fatalf("transfer should change membership")
	}
}
