package worldtest

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"galax.network/internal/protocol"
	world "galax.network/internal/sim/world"
	"galax.network/internal/sim/world/logic/ids"
)

func TestCreateTerritory_FeeAndTreasury(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)

	r := h.ApplyOne(world.Tx{
		Kind:          world.TxCreateTerritory,
		Sender:        owner,
		Value:         big.NewInt(1000),
		DeclaredValue: big.NewInt(100),
	})
	require.Equal(t, protocol.ErrInsufficientValue, r.Code())
	require.Equal(t, 0, h.W.View().TerritoryCount())
	require.Zero(t, h.FeePool().Sign())

	predicted := h.W.View().PredictTerritoryAddress(owner, saltOf("a"))
	id, addr := h.CreateTerritory(owner, 100, 100200, "a")
	require.Equal(t, uint64(1), id)
	require.Equal(t, predicted, addr)
	require.Equal(t, ids.DeriveAddress(h.W.Config().DomainAddress, owner, saltOf("a"), 1), addr)

	require.Equal(t, "200", h.Treasury(id).String())
	require.Equal(t, "100000", h.FeePool().String())

	terr := h.Territory(id)
	require.Equal(t, owner, terr.Owner)
	require.Equal(t, "100", terr.DeclaredValue.String())
	require.Equal(t, 0, terr.MemberCount())

	id2, addr2 := h.CreateTerritory(owner, 0, 100000, "a")
	require.Equal(t, uint64(2), id2)
	require.NotEqual(t, addr, addr2, "same salt must still yield a fresh address")
	require.Zero(t, h.Treasury(id2).Sign())
}

func TestCreateTerritory_ExactPaymentBoundary(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)

	r := h.ApplyOne(world.Tx{Kind: world.TxCreateTerritory, Sender: owner, Value: big.NewInt(100099), DeclaredValue: big.NewInt(100)})
	require.Equal(t, protocol.ErrInsufficientValue, r.Code())

	r = h.ApplyOne(world.Tx{Kind: world.TxCreateTerritory, Sender: owner, Value: big.NewInt(100100), DeclaredValue: big.NewInt(100)})
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "100", h.Treasury(r.Result.TerritoryID).String())
}

func TestCreateBusiness_WorldFactoryChecks(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)
	id, addr := h.CreateTerritory(owner, 0, 100000, "a")

	cases := []struct {
		name string
		tx   world.Tx
		code string
	}{
		{"not a territory", world.Tx{Sender: owner, Value: big.NewInt(10000), BusinessType: 1}, protocol.ErrNotATerritory},
		{"payment short", world.Tx{Sender: addr, Value: big.NewInt(9999), BusinessType: 1}, protocol.ErrInsufficientPayment},
		{"unknown type", world.Tx{Sender: addr, Value: big.NewInt(10000), BusinessType: 99}, protocol.ErrInvalidBusinessType},
		{"not a territory wins over payment", world.Tx{Sender: owner, Value: big.NewInt(0), BusinessType: 99}, protocol.ErrNotATerritory},
	}
	for _, tc := range cases {
		tc.tx.Kind = world.TxCreateBusiness
		r := h.ApplyOne(tc.tx)
		require.Equal(t, tc.code, r.Code(), tc.name)
	}
	require.Empty(t, h.Territory(id).Businesses)
	require.Equal(t, "100000", h.FeePool().String())

	r := h.ApplyOne(world.Tx{Kind: world.TxCreateBusiness, Sender: addr, Value: big.NewInt(12000), Name: "mill", BusinessType: 2})
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, uint64(1), r.Result.BusinessID)
	require.Equal(t, ids.BusinessAddress(h.W.Config().DomainAddress, addr, id, 1), r.Result.BusinessAddress)
	require.Equal(t, "112000", h.FeePool().String())

	b := h.Territory(id).Business(1)
	require.NotNil(t, b)
	require.Equal(t, owner, b.Owner, "zero owner defaults to the territory owner")
	require.Equal(t, uint32(2), b.Type)
}

func TestTerritoryCreateBusiness_OwnerAndTreasury(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	owner := Addr(0xA1)
	id, _ := h.CreateTerritory(owner, 0, 105000, "a")
	require.Equal(t, "5000", h.Treasury(id).String())

	r := h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: Addr(0xB2), Territory: id, Value: big.NewInt(10000), BusinessType: 1})
	require.Equal(t, protocol.ErrNotOwner, r.Code())

	r = h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: owner, Territory: 9, BusinessType: 1})
	require.Equal(t, protocol.ErrUnknownTerritory, r.Code())

	r = h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: owner, Territory: id, FromTreasury: true, BusinessType: 1})
	require.Equal(t, protocol.ErrInsufficientTreasury, r.Code())

	r = h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: owner, Territory: id, FromTreasury: true, Value: big.NewInt(1), BusinessType: 1})
	require.Equal(t, protocol.ErrBadRequest, r.Code())

	require.True(t, h.Fund(id, Addr(0xC3), big.NewInt(7000)).OK())
	require.Equal(t, "12000", h.Treasury(id).String())

	r = h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: owner, Territory: id, FromTreasury: true, BusinessType: 3, Owner: Addr(0xD4)})
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, "2000", h.Treasury(id).String())
	require.Equal(t, "110000", h.FeePool().String())

	r = h.ApplyOne(world.Tx{Kind: world.TxTerritoryCreateBusiness, Sender: owner, Territory: id, Value: big.NewInt(10000), BusinessType: 3})
	require.True(t, r.OK(), "%v", r.Err)
	require.Equal(t, uint64(2), r.Result.BusinessID)
	require.Equal(t, "2000", h.Treasury(id).String())

	bs := h.Territory(id).Businesses
	require.Len(t, bs, 2)
	require.Equal(t, Addr(0xD4), bs[0].Owner)
	require.Equal(t, owner, bs[1].Owner)
}

func TestFund_RequiresPositiveValue(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	id, _ := h.CreateTerritory(Addr(0xA1), 0, 100000, "a")

	require.Equal(t, protocol.ErrBadRequest, h.Fund(id, Addr(0xC3), nil).Code())
	require.Equal(t, protocol.ErrUnknownTerritory, h.Fund(id+1, Addr(0xC3), big.NewInt(1)).Code())

	res := h.Apply(world.Tx{Kind: world.TxFund, Sender: Addr(0xC3), Territory: id, Value: big.NewInt(42)})
	require.True(t, res.Receipts[0].OK())
	require.Len(t, res.Events, 1)
	require.Equal(t, world.EventTreasuryFunded, res.Events[0].Type)
	require.Equal(t, "42", h.Treasury(id).String())
}
