package world

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"galax.network/internal/protocol"
	simenc "galax.network/internal/sim/encoding"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
	"galax.network/internal/sim/world/logic/ids"
)

// TxFromMsg converts a wire TX into a ledger Tx. Shape errors map to E_BAD_REQUEST.
func TxFromMsg(m protocol.TxMsg) (Tx, error) {
	tx := Tx{
		ID:           m.TxID,
		Kind:         TxKind(m.Kind),
		Territory:    m.Territory,
		Name:         m.Name,
		MetadataURI:  m.MetadataURI,
		BusinessType: m.BusinessType,
		FromTreasury: m.FromTreasury,
		Resource:     m.Resource,
	}
	var err error
	addr := func(field, s string) model.Address {
		if err != nil || s == "" {
			return model.Address{}
		}
		a, e := model.ParseAddress(s)
		if e != nil {
			err = ErrBadRequest.With(fmt.Sprintf("%s: %v", field, e))
		}
		return a
	}
	amount := func(field, s string) *big.Int {
		if err != nil || s == "" {
			return nil
		}
		a, e := simenc.ParseAmount(s)
		if e != nil {
			err = ErrBadRequest.With(fmt.Sprintf("%s: %v", field, e))
			return nil
		}
		return a.Big()
	}

	tx.Sender = addr("sender", m.Sender)
	tx.Owner = addr("owner", m.Owner)
	tx.Participant = addr("participant", m.Participant)
	tx.Value = amount("value", m.Value)
	tx.DeclaredValue = amount("declared_value", m.DeclaredValue)
	tx.Amount = amount("amount", m.Amount)
	tx.Reward = amount("reward", m.Reward)
	if err != nil {
		return Tx{}, err
	}

	if m.Salt != "" {
		raw, e := decodeHex(m.Salt)
		if e != nil || len(raw) > 32 {
			return Tx{}, ErrBadRequest.With("salt must be at most 32 hex bytes")
		}
		tx.Salt = ids.Salt(raw)
	}
	if m.Auth != nil {
		sig, e := decodeHex(m.Auth.Signature)
		if e != nil {
			return Tx{}, ErrBadRequest.With("auth.signature must be hex")
		}
		tx.Auth = auth.Authorization{Nonce: m.Auth.Nonce, Kind: auth.ActionKind(m.Auth.Kind), Signature: sig}
	}
	return tx, nil
}

// Msg renders tx in its wire form; TxFromMsg(tx.Msg()) reproduces tx.
func (tx Tx) Msg() protocol.TxMsg {
	m := protocol.TxMsg{
		Type:            protocol.TypeTx,
		ProtocolVersion: protocol.Version,
		TxID:            tx.ID,
		Kind:            string(tx.Kind),
		Territory:       tx.Territory,
		Name:            tx.Name,
		MetadataURI:     tx.MetadataURI,
		BusinessType:    tx.BusinessType,
		FromTreasury:    tx.FromTreasury,
		Resource:        tx.Resource,
		Sender:          hexAddr(tx.Sender),
		Owner:           hexAddr(tx.Owner),
		Participant:     hexAddr(tx.Participant),
		Value:           decAmount(tx.Value),
		DeclaredValue:   decAmount(tx.DeclaredValue),
		Amount:          decAmount(tx.Amount),
		Reward:          decAmount(tx.Reward),
	}
	if tx.Salt != ([32]byte{}) {
		m.Salt = "0x" + hex.EncodeToString(tx.Salt[:])
	}
	if tx.Auth.Signature != nil || tx.Auth.Kind != 0 || tx.Auth.Nonce != 0 {
		m.Auth = &protocol.AuthMsg{
			Nonce:     tx.Auth.Nonce,
			Kind:      uint8(tx.Auth.Kind),
			Signature: "0x" + hex.EncodeToString(tx.Auth.Signature),
		}
	}
	return m
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func hexAddr(a model.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.Hex()
}

func decAmount(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
