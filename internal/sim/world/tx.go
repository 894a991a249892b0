package world

import (
	"math/big"

	"galax.network/internal/protocol"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
)

type TxKind string

const (
	TxCreateTerritory         TxKind = protocol.TxCreateTerritory
	TxCreateBusiness          TxKind = protocol.TxCreateBusiness
	TxTerritoryCreateBusiness TxKind = protocol.TxTerritoryCreateBusiness
	TxFund                    TxKind = protocol.TxFund
	TxJoin                    TxKind = protocol.TxJoin
	TxProduce                 TxKind = protocol.TxProduce
	TxConsume                 TxKind = protocol.TxConsume
)

// Tx is one ledger call. Which fields apply depends on Kind. Value is native
// value attached by the sender.
type Tx struct {
	ID     string
	Kind   TxKind
	Sender model.Address
	Value  *big.Int

	Territory uint64

	Name          string
	MetadataURI   string
	DeclaredValue *big.Int
	Salt          [32]byte

	BusinessType uint32
	Owner        model.Address
	FromTreasury bool

	Participant model.Address
	Resource    uint64
	Amount      *big.Int
	Reward      *big.Int
	Auth        auth.Authorization
}

// Result carries the per-kind outputs of a successful transaction.
type Result struct {
	TerritoryID      uint64
	TerritoryAddress model.Address
	BusinessID       uint64
	BusinessAddress  model.Address
	Membership       string
	ResourceBalance  *big.Int
	Vitality         *model.Vitality
	Nonce            uint64
}

type Receipt struct {
	TxID   string
	Height uint64
	Index  int
	Err    error
	Result Result
}

func (r Receipt) OK() bool { return r.Err == nil }

func (r Receipt) Code() string { return CodeOf(r.Err) }

func (r Receipt) Msg() protocol.ReceiptMsg {
	m := protocol.ReceiptMsg{
		Type:            protocol.TypeReceipt,
		ProtocolVersion: protocol.Version,
		TxID:            r.TxID,
		Height:          r.Height,
		Index:           r.Index,
		OK:              r.Err == nil,
	}
	if r.Err != nil {
		m.Code = CodeOf(r.Err)
		m.Message = r.Err.Error()
		return m
	}
	res := &protocol.TxResult{
		TerritoryID: r.Result.TerritoryID,
		BusinessID:  r.Result.BusinessID,
		Membership:  r.Result.Membership,
		Nonce:       r.Result.Nonce,
	}
	if !r.Result.TerritoryAddress.IsZero() {
		res.TerritoryAddress = r.Result.TerritoryAddress.Hex()
	}
	if !r.Result.BusinessAddress.IsZero() {
		res.BusinessAddress = r.Result.BusinessAddress.Hex()
	}
	if r.Result.ResourceBalance != nil {
		res.ResourceBalance = r.Result.ResourceBalance.String()
	}
	if v := r.Result.Vitality; v != nil {
		st := v.Stats()
		res.Vitality = &protocol.VitalityMsg{Hunger: st[0].String(), Thirst: st[1].String(), Energy: st[2].String()}
	}
	m.Result = res
	return m
}
