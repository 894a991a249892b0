package world

import (
	"bytes"
	"sort"

	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
)

// State is the whole ledger. Transitions receive it by exclusive reference;
// nothing else holds it while a transition runs.
type State struct {
	Height uint64

	Participants map[model.Address]*model.Participant

	// Territories is append-only; territory id N lives at index N-1.
	Territories []*model.Territory
	byAddress   map[model.Address]uint64

	Balances *balances.Ledger
}

func NewState() *State {
	return &State{
		Participants: map[model.Address]*model.Participant{},
		byAddress:    map[model.Address]uint64{},
		Balances:     balances.NewLedger(),
	}
}

func (s *State) Territory(id uint64) *model.Territory {
	if id == 0 || id > uint64(len(s.Territories)) {
		return nil
	}
	return s.Territories[id-1]
}

// TerritoryByAddress resolves a registered territory address to its id.
func (s *State) TerritoryByAddress(a model.Address) (uint64, bool) {
	id, ok := s.byAddress[a]
	return id, ok
}

func (s *State) NextTerritoryID() uint64 { return uint64(len(s.Territories)) + 1 }

func (s *State) addTerritory(t *model.Territory) {
	s.Territories = append(s.Territories, t)
	s.byAddress[t.Address] = t.ID
}

func (s *State) sortedParticipants() []*model.Participant {
	out := make([]*model.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0 })
	return out
}
