package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeChallenge = "CHALLENGE"
	TypeProve     = "PROVE"
	TypeWelcome   = "WELCOME"
	TypeTx        = "TX"
	TypeReceipt   = "RECEIPT"
	TypeBlock     = "BLOCK"
	TypeError     = "ERROR"
)

// Transaction kinds carried in TX.kind.
const (
	TxCreateTerritory         = "CREATE_TERRITORY"
	TxCreateBusiness          = "CREATE_BUSINESS"
	TxTerritoryCreateBusiness = "TERRITORY_CREATE_BUSINESS"
	TxFund                    = "FUND"
	TxJoin                    = "JOIN"
	TxProduce                 = "PRODUCE"
	TxConsume                 = "CONSUME"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
