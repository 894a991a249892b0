package world

import (
	"math/big"

	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
	"galax.network/internal/sim/world/logic/ids"
)

// View is an immutable copy of the ledger as of one block, safe to read from
// any goroutine. Accessors return copies.
type View struct {
	WorldID       string
	Height        uint64
	Digest        string
	DomainAddress model.Address
	ChainID       *big.Int

	participants map[model.Address]*model.Participant
	territories  []*model.Territory
	balances     map[balances.Key]*big.Int
}

// View returns the latest published view.
func (w *World) View() *View { return w.view.Load() }

func (w *World) publish(digest string) {
	st := w.state
	v := &View{
		WorldID:       w.cfg.ID,
		Height:        st.Height,
		Digest:        digest,
		DomainAddress: w.cfg.DomainAddress,
		ChainID:       new(big.Int).Set(w.cfg.ChainID),
		participants:  make(map[model.Address]*model.Participant, len(st.Participants)),
		territories:   make([]*model.Territory, len(st.Territories)),
		balances:      map[balances.Key]*big.Int{},
	}
	for a, p := range st.Participants {
		v.participants[a] = p.Clone()
	}
	for i, t := range st.Territories {
		v.territories[i] = t.Clone()
	}
	for _, e := range st.Balances.Entries() {
		v.balances[balances.Key{Holder: e.Holder, ID: e.ID}] = e.Amount
	}
	w.view.Store(v)
}

func (v *View) Participant(a model.Address) (*model.Participant, bool) {
	p, ok := v.participants[a]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (v *View) Territory(id uint64) (*model.Territory, bool) {
	if id == 0 || id > uint64(len(v.territories)) {
		return nil, false
	}
	return v.territories[id-1].Clone(), true
}

func (v *View) TerritoryCount() int { return len(v.territories) }

func (v *View) BalanceOf(holder model.Address, id uint64) *big.Int {
	if b, ok := v.balances[balances.Key{Holder: holder, ID: id}]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Treasury is the native balance held by territory id.
func (v *View) Treasury(id uint64) *big.Int {
	t, ok := v.Territory(id)
	if !ok {
		return new(big.Int)
	}
	return v.BalanceOf(t.Address, balances.NativeID)
}

// PredictTerritoryAddress returns the address the next territory created by
// creator with salt receives, assuming no other creation lands first.
func (v *View) PredictTerritoryAddress(creator model.Address, salt [32]byte) model.Address {
	return ids.DeriveAddress(v.DomainAddress, creator, salt, uint64(len(v.territories))+1)
}

// IsEntityAddress reports whether a is held by the ledger itself: the fee pool,
// a territory or one of its businesses. No key signs for these addresses.
func (v *View) IsEntityAddress(a model.Address) bool {
	if a == v.DomainAddress {
		return true
	}
	for _, t := range v.territories {
		if t.Address == a {
			return true
		}
		for _, b := range t.Businesses {
			if b.Address == a {
				return true
			}
		}
	}
	return false
}
