package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"
	ErrWorldBusy       = "E_WORLD_BUSY"
	ErrInternal        = "E_INTERNAL"

	// Authorization.
	ErrBadSigner     = "E_BAD_SIGNER"
	ErrBadNonce      = "E_BAD_NONCE"
	ErrBadActionKind = "E_BAD_ACTION_KIND"

	// Domain preconditions.
	ErrNotMember            = "E_NOT_MEMBER"
	ErrOverProductionLimit  = "E_OVER_PRODUCTION_LIMIT"
	ErrInsufficientTreasury = "E_INSUFFICIENT_TREASURY"
	ErrInsufficientVitality = "E_INSUFFICIENT_VITALITY"
	ErrInsufficientSkillExp = "E_INSUFFICIENT_SKILL_EXP"
	ErrInsufficientInput    = "E_INSUFFICIENT_INPUT"
	ErrSupplyExceeded       = "E_SUPPLY_EXCEEDED"

	// Capability.
	ErrNotOwner      = "E_NOT_OWNER"
	ErrNotATerritory = "E_NOT_A_TERRITORY"

	// Factory.
	ErrInsufficientValue   = "E_INSUFFICIENT_VALUE"
	ErrInsufficientPayment = "E_INSUFFICIENT_PAYMENT"
	ErrInvalidBusinessType = "E_INVALID_BUSINESS_TYPE"

	// Request shape / lookup.
	ErrBadRequest       = "E_BAD_REQUEST"
	ErrUnknownTerritory = "E_UNKNOWN_TERRITORY"
	ErrUnknownResource  = "E_UNKNOWN_RESOURCE"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:      {},
	ErrRateLimit:            {},
	ErrWorldBusy:            {},
	ErrInternal:             {},
	ErrBadSigner:            {},
	ErrBadNonce:             {},
	ErrBadActionKind:        {},
	ErrNotMember:            {},
	ErrOverProductionLimit:  {},
	ErrInsufficientTreasury: {},
	ErrInsufficientVitality: {},
	ErrInsufficientSkillExp: {},
	ErrInsufficientInput:    {},
	ErrSupplyExceeded:       {},
	ErrNotOwner:             {},
	ErrNotATerritory:        {},
	ErrInsufficientValue:    {},
	ErrInsufficientPayment:  {},
	ErrInvalidBusinessType:  {},
	ErrBadRequest:           {},
	ErrUnknownTerritory:     {},
	ErrUnknownResource:      {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// KnownCodes returns every reason code in a stable order.
func KnownCodes() []string {
	return []string{
		ErrProtoBadRequest, ErrRateLimit, ErrWorldBusy, ErrInternal,
		ErrBadSigner, ErrBadNonce, ErrBadActionKind,
		ErrNotMember, ErrOverProductionLimit, ErrInsufficientTreasury,
		ErrInsufficientVitality, ErrInsufficientSkillExp, ErrInsufficientInput, ErrSupplyExceeded,
		ErrNotOwner, ErrNotATerritory,
		ErrInsufficientValue, ErrInsufficientPayment, ErrInvalidBusinessType,
		ErrBadRequest, ErrUnknownTerritory, ErrUnknownResource,
	}
}
