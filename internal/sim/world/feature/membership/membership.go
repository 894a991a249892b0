package membership

import "galax.network/internal/sim/world/kernel/model"

type Outcome uint8

const (
	// OutcomeNew creates the participant and makes it a member.
	OutcomeNew Outcome = iota + 1
	// OutcomeJoined adds an existing participant with no territory.
	OutcomeJoined
	// OutcomeNoop re-joins the territory the participant already belongs to.
	OutcomeNoop
	// OutcomeTransfer moves the participant from another territory.
	OutcomeTransfer
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "NEW"
	case OutcomeJoined:
		return "JOINED"
	case OutcomeNoop:
		return "NOOP"
	case OutcomeTransfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

type Plan struct {
	Outcome Outcome
	From    uint64
	To      uint64
}

// PlanJoin decides how a join of target applies to p (nil when unknown).
func PlanJoin(p *model.Participant, target uint64) Plan {
	switch {
	case p == nil:
		return Plan{Outcome: OutcomeNew, To: target}
	case p.Territory == target:
		return Plan{Outcome: OutcomeNoop, From: target, To: target}
	case p.Territory == 0:
		return Plan{Outcome: OutcomeJoined, To: target}
	default:
		return Plan{Outcome: OutcomeTransfer, From: p.Territory, To: target}
	}
}

// Changes reports whether applying the plan alters membership records.
func (p Plan) Changes() bool { return p.Outcome != OutcomeNoop }
