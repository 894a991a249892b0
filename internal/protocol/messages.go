package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	// Principal is the address the session acts as (the transaction sender).
	Principal string `json:"principal"`
	Subscribe bool   `json:"subscribe,omitempty"`
}

// CHALLENGE (server -> client). The client proves control of its principal by
// signing the session message built from these fields.
type ChallengeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Challenge       string `json:"challenge"`
	WorldID         string `json:"world_id"`
	DomainAddress   string `json:"domain_address"`
	ChainID         string `json:"chain_id"`
	PersonalSign    bool   `json:"personal_sign,omitempty"`
}

// PROVE (client -> server)
type ProveMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Signature       string `json:"signature"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	Height          uint64         `json:"height"`
	DomainAddress   string         `json:"domain_address"`
	ChainID         string         `json:"chain_id"`
	PersonalSign    bool           `json:"personal_sign,omitempty"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ResourcesDigest string `json:"resources_digest"`
	TuningDigest    string `json:"tuning_digest,omitempty"`
}

// TX (client -> server). Fields are flat; which ones apply depends on Kind.
// Amounts are decimal or 0x-hex strings.
type TxMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	TxID            string `json:"tx_id,omitempty"`
	Kind            string `json:"kind"`

	// Sender is overwritten with the session principal by the server.
	Sender    string `json:"sender,omitempty"`
	Value     string `json:"value,omitempty"`
	Territory uint64 `json:"territory,omitempty"`

	Name          string `json:"name,omitempty"`
	MetadataURI   string `json:"metadata_uri,omitempty"`
	DeclaredValue string `json:"declared_value,omitempty"`
	Salt          string `json:"salt,omitempty"`

	BusinessType uint32 `json:"business_type,omitempty"`
	Owner        string `json:"owner,omitempty"`
	FromTreasury bool   `json:"from_treasury,omitempty"`

	Participant string   `json:"participant,omitempty"`
	Resource    uint64   `json:"resource,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	Reward      string   `json:"reward,omitempty"`
	Auth        *AuthMsg `json:"auth,omitempty"`
}

type AuthMsg struct {
	Nonce     uint64 `json:"nonce"`
	Kind      uint8  `json:"kind"`
	Signature string `json:"signature"`
}

// RECEIPT (server -> client): the outcome of one TX once its block is applied.
type ReceiptMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	TxID            string    `json:"tx_id,omitempty"`
	Height          uint64    `json:"height"`
	Index           int       `json:"index"`
	OK              bool      `json:"ok"`
	Code            string    `json:"code,omitempty"`
	Message         string    `json:"message,omitempty"`
	Result          *TxResult `json:"result,omitempty"`
}

type TxResult struct {
	TerritoryID      uint64       `json:"territory_id,omitempty"`
	TerritoryAddress string       `json:"territory_address,omitempty"`
	BusinessID       uint64       `json:"business_id,omitempty"`
	BusinessAddress  string       `json:"business_address,omitempty"`
	Membership       string       `json:"membership,omitempty"`
	ResourceBalance  string       `json:"resource_balance,omitempty"`
	Vitality         *VitalityMsg `json:"vitality,omitempty"`
	Nonce            uint64       `json:"nonce,omitempty"`
}

type VitalityMsg struct {
	Hunger string `json:"hunger"`
	Thirst string `json:"thirst"`
	Energy string `json:"energy"`
}

// Event is one observable ledger event for indexers and subscribers.
type Event map[string]any

// BLOCK (server -> subscribers)
type BlockMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	WorldID         string  `json:"world_id"`
	Height          uint64  `json:"height"`
	Digest          string  `json:"digest"`
	TxCount         int     `json:"tx_count"`
	Events          []Event `json:"events"`
}

// ERROR (server -> client) for messages rejected before reaching the ledger.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	TxID            string `json:"tx_id,omitempty"`
}
