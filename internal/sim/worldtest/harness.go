package worldtest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"galax.network/internal/authority"
	"galax.network/internal/persistence/snapshot"
	"galax.network/internal/sim/catalogs"
	world "galax.network/internal/sim/world"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/feature/economy/balances"
	"galax.network/internal/sim/world/kernel/model"
	"galax.network/internal/sim/world/logic/ids"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - every helper call is applied as its own block through ApplyBlock
// - participants sign with deterministic keys so two harnesses agree
// - Ledger() captures the comparable part of a snapshot
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World

	txSeq int
}

func NewHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs) *Harness {
	t.Helper()
	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, Cats: cats, W: w}
}

// LoadCatalogs loads the repository's shipped catalogs.
func LoadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// ParseCatalogs builds catalogs from an inline resources.json document.
func ParseCatalogs(t *testing.T, raw string) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse catalogs: %v", err)
	}
	return cats
}

// Key returns a deterministic signer; distinct seeds give distinct keys.
func Key(t *testing.T, seed byte) *authority.Signer {
	t.Helper()
	s, err := authority.FromHex(hex.EncodeToString(bytes.Repeat([]byte{seed}, 32)))
	if err != nil {
		t.Fatalf("signer %d: %v", seed, err)
	}
	return s
}

// Addr is a plain account address for callers that never sign.
func Addr(seed byte) model.Address {
	var a model.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func (h *Harness) nextID() string {
	h.txSeq++
	return fmt.Sprintf("tx-%d", h.txSeq)
}

// Apply runs txs as one block. Missing tx ids are filled in.
func (h *Harness) Apply(txs ...world.Tx) world.BlockResult {
	h.T.Helper()
	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = h.nextID()
		}
	}
	res := h.W.ApplyBlock(txs)
	if len(res.Receipts) != len(txs) {
		h.T.Fatalf("receipts: got %d want %d", len(res.Receipts), len(txs))
	}
	return res
}

func (h *Harness) ApplyOne(tx world.Tx) world.Receipt {
	h.T.Helper()
	return h.Apply(tx).Receipts[0]
}

func (h *Harness) Verifier() auth.Verifier { return h.W.Engine().Verifier() }

// CreateTerritory creates a territory and fails the test if it is rejected.
func (h *Harness) CreateTerritory(owner model.Address, declared, paid int64, salt string) (uint64, model.Address) {
	h.T.Helper()
	r := h.ApplyOne(world.Tx{
		Kind:          world.TxCreateTerritory,
		Sender:        owner,
		Value:         big.NewInt(paid),
		Name:          "territory " + salt,
		DeclaredValue: big.NewInt(declared),
		Salt:          saltOf(salt),
	})
	if !r.OK() {
		h.T.Fatalf("create territory: %v", r.Err)
	}
	return r.Result.TerritoryID, r.Result.TerritoryAddress
}

func (h *Harness) Fund(territory uint64, from model.Address, value *big.Int) world.Receipt {
	h.T.Helper()
	return h.ApplyOne(world.Tx{Kind: world.TxFund, Sender: from, Territory: territory, Value: value})
}

// JoinTx builds a join of territory by p, signed over p's current nonce.
func (h *Harness) JoinTx(owner model.Address, territory uint64, p *authority.Signer) world.Tx {
	return world.Tx{
		Kind:        world.TxJoin,
		Sender:      owner,
		Territory:   territory,
		Participant: p.Address(),
		Auth:        p.Authorize(h.Verifier(), territory, h.Nonce(p.Address()), auth.ActionJoin),
	}
}

func (h *Harness) Join(owner model.Address, territory uint64, p *authority.Signer) world.Receipt {
	h.T.Helper()
	return h.ApplyOne(h.JoinTx(owner, territory, p))
}

// ProduceTx builds a production call for p, signed over p's current nonce.
func (h *Harness) ProduceTx(owner model.Address, territory uint64, p *authority.Signer, resource uint64, amount, reward *big.Int) world.Tx {
	return world.Tx{
		Kind:        world.TxProduce,
		Sender:      owner,
		Territory:   territory,
		Participant: p.Address(),
		Resource:    resource,
		Amount:      amount,
		Reward:      reward,
		Auth:        p.Authorize(h.Verifier(), territory, h.Nonce(p.Address()), auth.ActionProduce),
	}
}

func (h *Harness) Produce(owner model.Address, territory uint64, p *authority.Signer, resource uint64, amount, reward *big.Int) world.Receipt {
	h.T.Helper()
	return h.ApplyOne(h.ProduceTx(owner, territory, p, resource, amount, reward))
}

// ConsumeTx builds a consumption of item by p, signed over p's current nonce.
func (h *Harness) ConsumeTx(owner model.Address, territory uint64, p *authority.Signer, item uint64, amount *big.Int) world.Tx {
	return world.Tx{
		Kind:        world.TxConsume,
		Sender:      owner,
		Territory:   territory,
		Participant: p.Address(),
		Resource:    item,
		Amount:      amount,
		Auth:        p.Authorize(h.Verifier(), territory, h.Nonce(p.Address()), auth.ActionConsume),
	}
}

func (h *Harness) Consume(owner model.Address, territory uint64, p *authority.Signer, item uint64, amount *big.Int) world.Receipt {
	h.T.Helper()
	return h.ApplyOne(h.ConsumeTx(owner, territory, p, item, amount))
}

func (h *Harness) Nonce(a model.Address) uint64 {
	if p, ok := h.W.View().Participant(a); ok {
		return p.Nonce
	}
	return 0
}

func (h *Harness) Participant(a model.Address) *model.Participant {
	h.T.Helper()
	p, ok := h.W.View().Participant(a)
	if !ok {
		h.T.Fatalf("participant %s not found", a)
	}
	return p
}

func (h *Harness) Territory(id uint64) *model.Territory {
	h.T.Helper()
	t, ok := h.W.View().Territory(id)
	if !ok {
		h.T.Fatalf("territory %d not found", id)
	}
	return t
}

func (h *Harness) Treasury(id uint64) *big.Int { return h.W.View().Treasury(id) }

func (h *Harness) Balance(holder model.Address, id uint64) *big.Int {
	return h.W.View().BalanceOf(holder, id)
}

func (h *Harness) FeePool() *big.Int {
	return h.Balance(h.W.Config().DomainAddress, balances.NativeID)
}

// Ledger is the height-independent content of a snapshot.
type Ledger struct {
	Participants []snapshot.ParticipantV1
	Territories  []snapshot.TerritoryV1
	Balances     []snapshot.BalanceV1
}

func (h *Harness) Ledger() Ledger {
	s := h.W.ExportSnapshot()
	return Ledger{Participants: s.Participants, Territories: s.Territories, Balances: s.Balances}
}

// E18 returns n * 10^18.
func E18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func saltOf(s string) [32]byte { return ids.Salt([]byte(s)) }
