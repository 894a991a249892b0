package world

import (
	"math/big"

	"galax.network/internal/protocol"
	"galax.network/internal/sim/world/kernel/model"
)

const (
	EventTerritoryCreated  = "TERRITORY_CREATED"
	EventBusinessCreated   = "BUSINESS_CREATED"
	EventParticipantJoined = "PARTICIPANT_JOINED"
	EventResourceProduced  = "RESOURCE_PRODUCED"
	EventTreasuryFunded    = "TREASURY_FUNDED"
	EventItemConsumed      = "ITEM_CONSUMED"
)

// Event is an observable ledger event. Only the fields relevant to Type are set.
type Event struct {
	Type   string `json:"type"`
	Height uint64 `json:"height"`
	TxID   string `json:"tx_id,omitempty"`

	TerritoryID uint64        `json:"territory_id,omitempty"`
	Address     model.Address `json:"address,omitempty"`
	Owner       model.Address `json:"owner,omitempty"`
	Name        string        `json:"name,omitempty"`

	BusinessID   uint64 `json:"business_id,omitempty"`
	BusinessType uint32 `json:"business_type,omitempty"`

	Participant   model.Address `json:"participant,omitempty"`
	FromTerritory uint64        `json:"from_territory,omitempty"`

	ResourceID uint64   `json:"resource_id,omitempty"`
	Amount     *big.Int `json:"amount,omitempty"`
	Reward     *big.Int `json:"reward,omitempty"`
}

// Wire renders the event for subscribers: addresses as hex, amounts as decimal strings.
func (e Event) Wire() protocol.Event {
	out := protocol.Event{"type": e.Type, "height": e.Height}
	if e.TxID != "" {
		out["tx_id"] = e.TxID
	}
	if e.TerritoryID != 0 {
		out["territory_id"] = e.TerritoryID
	}
	addr := func(k string, a model.Address) {
		if !a.IsZero() {
			out[k] = a.Hex()
		}
	}
	addr("address", e.Address)
	addr("owner", e.Owner)
	addr("participant", e.Participant)
	if e.Name != "" {
		out["name"] = e.Name
	}
	if e.BusinessID != 0 {
		out["business_id"] = e.BusinessID
	}
	if e.BusinessType != 0 {
		out["business_type"] = e.BusinessType
	}
	if e.FromTerritory != 0 {
		out["from_territory"] = e.FromTerritory
	}
	if e.ResourceID != 0 || e.Type == EventResourceProduced {
		out["resource_id"] = e.ResourceID
	}
	if e.Amount != nil {
		out["amount"] = e.Amount.String()
	}
	if e.Reward != nil {
		out["reward"] = e.Reward.String()
	}
	return out
}
