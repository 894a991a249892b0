package worldtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"galax.network/internal/protocol"
	world "galax.network/internal/sim/world"
	"galax.network/internal/sim/world/feature/auth"
)

func TestJoin_NewThenIdempotent(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)
	id, _ := h.CreateTerritory(owner, 0, 100000, "a")
	p := Key(t, 1)

	res := h.Apply(h.JoinTx(owner, id, p))
	r := res.Receipts[0]
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "NEW", r.Result.Membership)
	require.Equal(t, uint64(1), r.Result.Nonce)
	require.Len(t, res.Events, 1)
	require.Equal(t, world.EventParticipantJoined, res.Events[0].Type)

	got := h.Participant(p.Address())
	require.Equal(t, id, got.Territory)
	require.Equal(t, h.W.Config().VitalityInitial.String(), got.Vitality.Hunger.String())
	require.True(t, h.Territory(id).IsMember(p.Address()))

	res = h.Apply(h.JoinTx(owner, id, p))
	r = res.Receipts[0]
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "NOOP", r.Result.Membership)
	require.Empty(t, res.Events)
	require.Equal(t, uint64(2), h.Nonce(p.Address()))
	require.Equal(t, 1, h.Territory(id).MemberCount())
}

func TestJoin_TransferMovesMembership(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	ownerA, ownerB := Addr(0xA1), Addr(0xB2)
	a, _ := h.CreateTerritory(ownerA, 0, 100000, "a")
	b, _ := h.CreateTerritory(ownerB, 0, 100000, "b")
	p := Key(t, 1)

	require.True(t, h.Join(ownerA, a, p).OK())
	res := h.Apply(h.JoinTx(ownerB, b, p))
	r := res.Receipts[0]
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "TRANSFER", r.Result.Membership)
	require.Equal(t, a, res.Events[0].FromTerritory)

	require.False(t, h.Territory(a).IsMember(p.Address()))
	require.True(t, h.Territory(b).IsMember(p.Address()))
	require.Equal(t, b, h.Participant(p.Address()).Territory)
}

func TestJoin_AuthorizationFailures(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)
	id, _ := h.CreateTerritory(owner, 0, 100000, "a")
	p, other := Key(t, 1), Key(t, 2)

	// Only the territory owner may submit joins.
	require.Equal(t, protocol.ErrNotOwner, h.Join(Addr(0xEE), id, p).Code())
	require.Equal(t, protocol.ErrUnknownTerritory, h.Join(owner, id+1, p).Code())

	// Signed by a different key.
	tx := h.JoinTx(owner, id, p)
	tx.Auth = other.Authorize(h.Verifier(), id, 0, auth.ActionJoin)
	require.Equal(t, protocol.ErrBadSigner, h.ApplyOne(tx).Code())

	// Produce authorization presented for a join.
	tx = h.JoinTx(owner, id, p)
	tx.Auth = p.Authorize(h.Verifier(), id, 0, auth.ActionProduce)
	require.Equal(t, protocol.ErrBadActionKind, h.ApplyOne(tx).Code())

	// Bound to another territory.
	tx = h.JoinTx(owner, id, p)
	tx.Auth = p.Authorize(h.Verifier(), id+1, 0, auth.ActionJoin)
	require.Equal(t, protocol.ErrBadSigner, h.ApplyOne(tx).Code())

	_, known := h.W.View().Participant(p.Address())
	require.False(t, known, "failed joins must not create the participant")

	// Replay of a consumed authorization.
	tx = h.JoinTx(owner, id, p)
	require.True(t, h.ApplyOne(tx).OK())
	tx.ID = ""
	require.Equal(t, protocol.ErrBadNonce, h.ApplyOne(tx).Code())
	require.Equal(t, uint64(1), h.Nonce(p.Address()))

	// Future nonce.
	tx = h.JoinTx(owner, id, p)
	tx.Auth = p.Authorize(h.Verifier(), id, 5, auth.ActionJoin)
	require.Equal(t, protocol.ErrBadNonce, h.ApplyOne(tx).Code())
}

func TestJoin_StarterSkillsApplied(t *testing.T) {
	cfg, err := world.ConfigFromTuning(loadTuning(t))
	require.NoError(t, err)
	h := NewHarness(t, cfg, LoadCatalogs(t))
	owner := Addr(0xA1)
	id, _ := h.CreateTerritory(owner, 0, 100000, "a")
	p := Key(t, 1)
	require.True(t, h.Join(owner, id, p).OK())

	got := h.Participant(p.Address())
	for _, k := range []uint32{1, 2, 3} {
		s := got.Skills[modelSkill(k)]
		require.Equal(t, E18(1000).String(), s.Experience().String())
		require.Equal(t, uint32(4), s.Level)
	}
}
