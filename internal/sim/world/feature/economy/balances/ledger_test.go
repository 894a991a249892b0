package balances

import (
	"errors"
	"math/big"
	"testing"

	"galax.network/internal/sim/world/kernel/model"
)

var (
	alice = model.MustAddress("0x00000000000000000000000000000000000000a1")
	bob   = model.MustAddress("0x00000000000000000000000000000000000000b0")
)

func TestTxStagesUntilCommit(t *testing.T) {
	l := NewLedger()
	tx := l.Begin()
	if err := tx.Credit(alice, 1, big.NewInt(50)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := tx.BalanceOf(alice, 1); got.Int64() != 50 {
		t.Fatalf("staged balance=%s", got)
	}
	if got := l.BalanceOf(alice, 1); got.Sign() != 0 {
		t.Fatalf("ledger saw staged balance %s", got)
	}
	tx.Commit()
	if got := l.BalanceOf(alice, 1); got.Int64() != 50 {
		t.Fatalf("committed balance=%s", got)
	}
	if got := l.TotalSupply(1); got.Int64() != 50 {
		t.Fatalf("supply=%s", got)
	}
}

func TestTxDiscardLeavesLedger(t *testing.T) {
	l := NewLedger()
	seed := l.Begin()
	_ = seed.Credit(alice, NativeID, big.NewInt(10))
	seed.Commit()

	tx := l.Begin()
	if err := tx.Transfer(alice, bob, NativeID, big.NewInt(4)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	tx.Discard()
	if l.BalanceOf(alice, NativeID).Int64() != 10 || l.BalanceOf(bob, NativeID).Sign() != 0 {
		t.Fatalf("discard leaked changes")
	}
	if err := tx.Credit(alice, 1, big.NewInt(1)); !errors.Is(err, ErrTxClosed) {
		t.Fatalf("expected closed tx error, got %v", err)
	}
}

func TestDebitInsufficient(t *testing.T) {
	l := NewLedger()
	tx := l.Begin()
	_ = tx.Credit(alice, 2, big.NewInt(3))
	if err := tx.Debit(alice, 2, big.NewInt(4)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := tx.Transfer(bob, alice, 2, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance on transfer, got %v", err)
	}
	if err := tx.Debit(alice, 2, big.NewInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
}

func TestSupplyCap(t *testing.T) {
	l := NewLedger()
	l.SetSupplyCap(101, big.NewInt(5))
	tx := l.Begin()
	if err := tx.Credit(alice, 101, big.NewInt(3)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := tx.Credit(bob, 101, big.NewInt(3)); !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("expected supply exceeded, got %v", err)
	}
	if err := tx.Debit(alice, 101, big.NewInt(1)); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := tx.Credit(bob, 101, big.NewInt(3)); err != nil {
		t.Fatalf("credit after burn: %v", err)
	}
	tx.Commit()
	if l.TotalSupply(101).Int64() != 5 {
		t.Fatalf("supply=%s", l.TotalSupply(101))
	}
}

func TestEntriesImportRoundTrip(t *testing.T) {
	l := NewLedger()
	tx := l.Begin()
	_ = tx.Credit(bob, 3, big.NewInt(7))
	_ = tx.Credit(alice, 0, big.NewInt(9))
	_ = tx.Credit(alice, 3, big.NewInt(1))
	tx.Commit()

	entries := l.Entries()
	if len(entries) != 3 || entries[0].Holder != alice || entries[0].ID != 0 || entries[2].Holder != bob {
		t.Fatalf("unexpected ordering: %+v", entries)
	}

	l2 := NewLedger()
	if err := l2.Import(entries); err != nil {
		t.Fatalf("import: %v", err)
	}
	if l2.BalanceOf(bob, 3).Int64() != 7 || l2.TotalSupply(3).Int64() != 8 {
		t.Fatalf("import mismatch")
	}
	if err := l2.Import([]Entry{{Holder: alice, ID: 1, Amount: big.NewInt(-1)}}); err == nil {
		t.Fatalf("expected negative import rejected")
	}
}
