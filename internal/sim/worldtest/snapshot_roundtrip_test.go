package worldtest

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"galax.network/internal/persistence/snapshot"
	world "galax.network/internal/sim/world"
)

func TestSnapshotExportImport_RoundTripDigest(t *testing.T) {
	cats := LoadCatalogs(t)
	cfg := world.WorldConfig{ID: "test"}

	h := NewHarness(t, cfg, cats)
	script(h)

	v := h.W.View()
	snap := h.W.ExportSnapshot()
	require.Equal(t, v.Height, snap.Header.Height)
	require.Equal(t, v.Digest, snap.Header.Digest)

	path := snapshot.PathFor(t.TempDir(), snap.Header.Height)
	require.NoError(t, snapshot.WriteSnapshot(path, snap))
	loaded, err := snapshot.ReadSnapshot(path)
	require.NoError(t, err)

	w2, err := world.New(cfg, cats)
	require.NoError(t, err)
	require.NoError(t, w2.ImportSnapshot(loaded))
	require.Equal(t, v.Height, w2.Height())
	require.Equal(t, v.Digest, w2.View().Digest)

	// Both worlds continue identically.
	h2 := &Harness{T: t, Cats: cats, W: w2, txSeq: h.txSeq}
	p := Key(t, 1)
	a := h.Produce(Addr(0xA1), 1, p, 1, big.NewInt(3), big.NewInt(1))
	b := h2.Produce(Addr(0xA1), 1, p, 1, big.NewInt(3), big.NewInt(1))
	require.True(t, a.OK(), "%v", a.Err)
	require.Equal(t, a.Code(), b.Code())
	require.Equal(t, h.W.View().Digest, h2.W.View().Digest)
}

func TestSnapshotImport_RejectsMismatch(t *testing.T) {
	cats := LoadCatalogs(t)
	h := NewHarness(t, world.WorldConfig{ID: "test"}, cats)
	h.CreateTerritory(Addr(0xA1), 0, 120000, "a")
	snap := h.W.ExportSnapshot()

	other, err := world.New(world.WorldConfig{ID: "other"}, cats)
	require.NoError(t, err)
	require.Error(t, other.ImportSnapshot(snap))

	tampered := h.W.ExportSnapshot()
	tampered.Balances[0].Amount = "1"
	w2, err := world.New(world.WorldConfig{ID: "test"}, cats)
	require.NoError(t, err)
	before := w2.View().Digest
	require.ErrorContains(t, w2.ImportSnapshot(tampered), "digest mismatch")
	require.Equal(t, before, w2.View().Digest)
	require.Equal(t, uint64(0), w2.Height())
}

func TestSnapshotImport_RequiresDigest(t *testing.T) {
	cats := LoadCatalogs(t)
	h := NewHarness(t, world.WorldConfig{ID: "test"}, cats)
	h.CreateTerritory(Addr(0xA1), 0, 120000, "a")

	unsigned := h.W.ExportSnapshot()
	unsigned.Header.Digest = ""
	unsigned.Balances[0].Amount = "1"
	w2, err := world.New(world.WorldConfig{ID: "test"}, cats)
	require.NoError(t, err)
	before := w2.View().Digest
	require.ErrorContains(t, w2.ImportSnapshot(unsigned), "no digest")
	require.Equal(t, before, w2.View().Digest)

	genesis, err := world.New(world.WorldConfig{ID: "test"}, cats)
	require.NoError(t, err)
	empty := genesis.ExportSnapshot()
	empty.Header.Digest = ""
	require.NoError(t, w2.ImportSnapshot(empty))
	require.Equal(t, before, w2.View().Digest)
}
