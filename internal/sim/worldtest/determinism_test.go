package worldtest

import (
	"math/big"
	"testing"

	world "galax.network/internal/sim/world"
)

// script drives a fixed mixed workload, including rejected calls.
func script(h *Harness) []world.BlockResult {
	owner := Addr(0xA1)
	p1, p2 := Key(h.T, 1), Key(h.T, 2)
	var out []world.BlockResult

	out = append(out, h.Apply(world.Tx{Kind: world.TxCreateTerritory, Sender: owner, Value: big.NewInt(150000), Salt: saltOf("x")}))
	id := out[0].Receipts[0].Result.TerritoryID
	addr := out[0].Receipts[0].Result.TerritoryAddress

	out = append(out, h.Apply(h.JoinTx(owner, id, p1), world.Tx{Kind: world.TxFund, Sender: owner, Territory: id, Value: big.NewInt(5)}))
	out = append(out, h.Apply(h.JoinTx(owner, id, p2)))
	for i := 0; i < 5; i++ {
		out = append(out, h.Apply(
			h.ProduceTx(owner, id, p1, 1, big.NewInt(int64(i+1)), big.NewInt(10)),
			world.Tx{Kind: world.TxCreateBusiness, Sender: addr, Value: big.NewInt(10000), BusinessType: uint32(i + 2)},
		))
	}
	out = append(out, h.Apply(h.ProduceTx(owner, id, p2, 2, big.NewInt(1), nil)))
	return out
}

func TestDeterminism_SameTxsSameDigest(t *testing.T) {
	cats := LoadCatalogs(t)
	cfg := world.WorldConfig{ID: "test"}

	h1 := NewHarness(t, cfg, cats)
	h2 := NewHarness(t, cfg, cats)
	r1 := script(h1)
	r2 := script(h2)

	if len(r1) != len(r2) {
		t.Fatalf("block count mismatch: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i].Height != r2[i].Height {
			t.Fatalf("height mismatch at block %d: %d vs %d", i, r1[i].Height, r2[i].Height)
		}
		if r1[i].Digest != r2[i].Digest {
			t.Fatalf("digest mismatch at height %d: %s vs %s", r1[i].Height, r1[i].Digest, r2[i].Digest)
		}
		for j := range r1[i].Receipts {
			if c1, c2 := r1[i].Receipts[j].Code(), r2[i].Receipts[j].Code(); c1 != c2 {
				t.Fatalf("receipt %d/%d code mismatch: %q vs %q", i, j, c1, c2)
			}
		}
	}
}

func TestDeterminism_DigestTracksState(t *testing.T) {
	cats := LoadCatalogs(t)
	h1 := NewHarness(t, world.WorldConfig{ID: "test"}, cats)
	h2 := NewHarness(t, world.WorldConfig{ID: "test"}, cats)

	if h1.W.View().Digest != h2.W.View().Digest {
		t.Fatalf("genesis digests differ")
	}
	h1.CreateTerritory(Addr(0xA1), 0, 100000, "a")
	h2.CreateTerritory(Addr(0xA1), 0, 100001, "a")
	if h1.W.View().Digest == h2.W.View().Digest {
		t.Fatalf("different treasuries produced the same digest")
	}

	h3 := NewHarness(t, world.WorldConfig{ID: "other"}, cats)
	if h3.W.View().Digest == NewHarness(t, world.WorldConfig{ID: "test"}, cats).W.View().Digest {
		t.Fatalf("world id not bound into the digest")
	}
}
