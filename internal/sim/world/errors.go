package world

import "galax.network/internal/sim/world/kernel/fault"

// Error is the coded failure returned by every rejected transaction.
type Error = fault.Error

var (
	ErrBadSigner     = fault.ErrBadSigner
	ErrBadNonce      = fault.ErrBadNonce
	ErrBadActionKind = fault.ErrBadActionKind

	ErrNotMember            = fault.ErrNotMember
	ErrOverProductionLimit  = fault.ErrOverProductionLimit
	ErrInsufficientTreasury = fault.ErrInsufficientTreasury
	ErrInsufficientVitality = fault.ErrInsufficientVitality
	ErrInsufficientSkillExp = fault.ErrInsufficientSkillExp
	ErrInsufficientInput    = fault.ErrInsufficientInput
	ErrSupplyExceeded       = fault.ErrSupplyExceeded

	ErrNotOwner      = fault.ErrNotOwner
	ErrNotATerritory = fault.ErrNotATerritory

	ErrInsufficientValue   = fault.ErrInsufficientValue
	ErrInsufficientPayment = fault.ErrInsufficientPayment
	ErrInvalidBusinessType = fault.ErrInvalidBusinessType

	ErrBadRequest       = fault.ErrBadRequest
	ErrUnknownTerritory = fault.ErrUnknownTerritory
	ErrUnknownResource  = fault.ErrUnknownResource
)

// CodeOf returns the stable reason code for err ("" for nil).
func CodeOf(err error) string { return fault.CodeOf(err) }
