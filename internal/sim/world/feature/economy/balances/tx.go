package balances

import (
	"fmt"
	"math/big"

	"galax.network/internal/sim/world/kernel/model"
)

// Tx stages balance changes over a Ledger. Reads see staged values.
type Tx struct {
	l      *Ledger
	bal    map[Key]*big.Int
	supply map[uint64]*big.Int
	closed bool
}

func (tx *Tx) BalanceOf(holder model.Address, id uint64) *big.Int {
	k := Key{holder, id}
	if v, ok := tx.bal[k]; ok {
		return new(big.Int).Set(v)
	}
	return tx.l.BalanceOf(holder, id)
}

func (tx *Tx) totalSupply(id uint64) *big.Int {
	if v, ok := tx.supply[id]; ok {
		return new(big.Int).Set(v)
	}
	return tx.l.TotalSupply(id)
}

// Credit mints amount of id to holder.
func (tx *Tx) Credit(holder model.Address, id uint64, amount *big.Int) error {
	if err := tx.check(amount); err != nil {
		return err
	}
	next := tx.totalSupply(id)
	next.Add(next, amount)
	if max, ok := tx.l.caps[id]; ok && next.Cmp(max) > 0 {
		return fmt.Errorf("credit %s of %d: %w (cap %s)", amount, id, ErrSupplyExceeded, max)
	}
	bal := tx.BalanceOf(holder, id)
	tx.bal[Key{holder, id}] = bal.Add(bal, amount)
	tx.supply[id] = next
	return nil
}

// Debit burns amount of id from holder.
func (tx *Tx) Debit(holder model.Address, id uint64, amount *big.Int) error {
	if err := tx.check(amount); err != nil {
		return err
	}
	bal := tx.BalanceOf(holder, id)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("debit %s of %d from %s (have %s): %w", amount, id, holder, bal, ErrInsufficientBalance)
	}
	tx.bal[Key{holder, id}] = bal.Sub(bal, amount)
	s := tx.totalSupply(id)
	tx.supply[id] = s.Sub(s, amount)
	return nil
}

// Transfer moves amount without changing supply.
func (tx *Tx) Transfer(from, to model.Address, id uint64, amount *big.Int) error {
	if err := tx.check(amount); err != nil {
		return err
	}
	src := tx.BalanceOf(from, id)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("transfer %s of %d from %s (have %s): %w", amount, id, from, src, ErrInsufficientBalance)
	}
	tx.bal[Key{from, id}] = src.Sub(src, amount)
	dst := tx.BalanceOf(to, id)
	tx.bal[Key{to, id}] = dst.Add(dst, amount)
	return nil
}

func (tx *Tx) check(amount *big.Int) error {
	if tx.closed {
		return ErrTxClosed
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (tx *Tx) Commit() {
	if tx.closed {
		return
	}
	tx.closed = true
	for k, v := range tx.bal {
		if v.Sign() == 0 {
			delete(tx.l.bal, k)
			continue
		}
		tx.l.bal[k] = v
	}
	for id, v := range tx.supply {
		if v.Sign() == 0 {
			delete(tx.l.supply, id)
			continue
		}
		tx.l.supply[id] = v
	}
}

func (tx *Tx) Discard() {
	tx.closed = true
	tx.bal = nil
	tx.supply = nil
}
