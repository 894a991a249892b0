package worldtest

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"galax.network/internal/protocol"
	world "galax.network/internal/sim/world"
)

func TestTxCodec_RoundTrip(t *testing.T) {
	h := NewHarness(t, world.WorldConfig{ID: "test"}, LoadCatalogs(t))
	p := Key(t, 1)

	txs := []world.Tx{
		{ID: "a", Kind: world.TxCreateTerritory, Sender: Addr(1), Value: big.NewInt(100200), Name: "Terra", MetadataURI: "ipfs://x", DeclaredValue: big.NewInt(100), Salt: saltOf("s")},
		{ID: "b", Kind: world.TxTerritoryCreateBusiness, Sender: Addr(1), Territory: 1, BusinessType: 2, Owner: Addr(2), FromTreasury: true},
		h.ProduceTx(Addr(1), 1, p, 4, new(big.Int).Lsh(big.NewInt(1), 200), big.NewInt(9)),
		h.ConsumeTx(Addr(1), 1, p, 101, big.NewInt(3)),
	}
	txs[2].ID = "c"
	txs[3].ID = "d"

	for _, tx := range txs {
		msg := tx.Msg()
		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		require.NoError(t, protocol.ValidateTx(raw), string(raw))

		var decoded protocol.TxMsg
		require.NoError(t, json.Unmarshal(raw, &decoded))
		back, err := world.TxFromMsg(decoded)
		require.NoError(t, err)
		require.Equal(t, msg, back.Msg())
	}
}

func TestTxCodec_ShortSaltIsRightPadded(t *testing.T) {
	tx, err := world.TxFromMsg(protocol.TxMsg{Kind: protocol.TxCreateTerritory, Salt: "0x35"})
	require.NoError(t, err)
	require.Equal(t, saltOf("5"), tx.Salt)
	require.Equal(t, byte(0x35), tx.Salt[0])
	require.Zero(t, tx.Salt[31])
}

func TestTxCodec_BadShapes(t *testing.T) {
	cases := []protocol.TxMsg{
		{Kind: protocol.TxFund, Sender: "0x1234"},
		{Kind: protocol.TxFund, Value: "-5"},
		{Kind: protocol.TxProduce, Amount: "lots"},
		{Kind: protocol.TxConsume, Amount: "1_000"},
		{Kind: protocol.TxFund, Value: "0b101"},
		{Kind: protocol.TxCreateTerritory, Salt: "0xzz"},
		{Kind: protocol.TxJoin, Auth: &protocol.AuthMsg{Signature: "nothex"}},
	}
	for i, m := range cases {
		_, err := world.TxFromMsg(m)
		require.Error(t, err, "case %d", i)
		require.Equal(t, protocol.ErrBadRequest, world.CodeOf(err), "case %d", i)
	}
}
