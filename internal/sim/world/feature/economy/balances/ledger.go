// Package balances is the fungible/item balance ledger the production engine
// and factories settle against. Mutations are staged on a Tx and only become
// visible on Commit, so a failed transition leaves no trace.
package balances

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"galax.network/internal/sim/world/kernel/model"
)

// NativeID is the balance id of the ledger's native value (treasuries, rewards, fees).
const NativeID uint64 = 0

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSupplyExceeded      = errors.New("supply cap exceeded")
	ErrNegativeAmount      = errors.New("negative amount")
	ErrTxClosed            = errors.New("balance tx already closed")
)

type Key struct {
	Holder model.Address
	ID     uint64
}

type Ledger struct {
	bal    map[Key]*big.Int
	supply map[uint64]*big.Int
	caps   map[uint64]*big.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		bal:    map[Key]*big.Int{},
		supply: map[uint64]*big.Int{},
		caps:   map[uint64]*big.Int{},
	}
}

// SetSupplyCap limits the total amount of id that may ever be outstanding.
// A nil cap removes the limit.
func (l *Ledger) SetSupplyCap(id uint64, max *big.Int) {
	if max == nil {
		delete(l.caps, id)
		return
	}
	l.caps[id] = new(big.Int).Set(max)
}

func (l *Ledger) SupplyCap(id uint64) (*big.Int, bool) {
	c, ok := l.caps[id]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(c), true
}

func (l *Ledger) BalanceOf(holder model.Address, id uint64) *big.Int {
	return copyOrZero(l.bal[Key{holder, id}])
}

func (l *Ledger) TotalSupply(id uint64) *big.Int {
	return copyOrZero(l.supply[id])
}

func (l *Ledger) Begin() *Tx {
	return &Tx{
		l:      l,
		bal:    map[Key]*big.Int{},
		supply: map[uint64]*big.Int{},
	}
}

// Entry is one non-zero balance, used by snapshots and digests.
type Entry struct {
	Holder model.Address `json:"holder"`
	ID     uint64        `json:"id"`
	Amount *big.Int      `json:"amount"`
}

// Entries returns every non-zero balance ordered by (holder, id).
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.bal))
	for k, v := range l.bal {
		if v.Sign() == 0 {
			continue
		}
		out = append(out, Entry{Holder: k.Holder, ID: k.ID, Amount: new(big.Int).Set(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Holder[:], out[j].Holder[:]); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Import replaces all balances and recomputes supplies. Caps are kept.
func (l *Ledger) Import(entries []Entry) error {
	bal := make(map[Key]*big.Int, len(entries))
	supply := map[uint64]*big.Int{}
	for _, e := range entries {
		if e.Amount == nil || e.Amount.Sign() < 0 {
			return fmt.Errorf("balance %s/%d: %w", e.Holder, e.ID, ErrNegativeAmount)
		}
		if e.Amount.Sign() == 0 {
			continue
		}
		k := Key{e.Holder, e.ID}
		if _, dup := bal[k]; dup {
			return fmt.Errorf("duplicate balance %s/%d", e.Holder, e.ID)
		}
		bal[k] = new(big.Int).Set(e.Amount)
		s := supply[e.ID]
		if s == nil {
			s = new(big.Int)
			supply[e.ID] = s
		}
		s.Add(s, e.Amount)
	}
	l.bal = bal
	l.supply = supply
	return nil
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
