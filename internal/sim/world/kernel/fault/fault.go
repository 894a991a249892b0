// Package fault defines the coded error values returned by ledger transitions.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"galax.network/internal/protocol"
)

type Class string

const (
	ClassAuth         Class = "AUTH"
	ClassPrecondition Class = "PRECONDITION"
	ClassCapability   Class = "CAPABILITY"
	ClassFactory      Class = "FACTORY"
	ClassRequest      Class = "REQUEST"
)

// Error is a terminal, machine-checkable transition failure.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Code     string
	Class    Class
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Metadata[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// With returns a copy carrying a message and key/value metadata pairs.
func (e *Error) With(msg string, kv ...string) *Error {
	cp := &Error{Code: e.Code, Class: e.Class, Message: msg}
	if len(kv) > 0 {
		cp.Metadata = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			cp.Metadata[kv[i]] = kv[i+1]
		}
	}
	return cp
}

func newErr(code string, class Class) *Error { return &Error{Code: code, Class: class} }

var (
	ErrBadSigner     = newErr(protocol.ErrBadSigner, ClassAuth)
	ErrBadNonce      = newErr(protocol.ErrBadNonce, ClassAuth)
	ErrBadActionKind = newErr(protocol.ErrBadActionKind, ClassAuth)

	ErrNotMember            = newErr(protocol.ErrNotMember, ClassPrecondition)
	ErrOverProductionLimit  = newErr(protocol.ErrOverProductionLimit, ClassPrecondition)
	ErrInsufficientTreasury = newErr(protocol.ErrInsufficientTreasury, ClassPrecondition)
	ErrInsufficientVitality = newErr(protocol.ErrInsufficientVitality, ClassPrecondition)
	ErrInsufficientSkillExp = newErr(protocol.ErrInsufficientSkillExp, ClassPrecondition)
	ErrInsufficientInput    = newErr(protocol.ErrInsufficientInput, ClassPrecondition)
	ErrSupplyExceeded       = newErr(protocol.ErrSupplyExceeded, ClassPrecondition)

	ErrNotOwner      = newErr(protocol.ErrNotOwner, ClassCapability)
	ErrNotATerritory = newErr(protocol.ErrNotATerritory, ClassCapability)

	ErrInsufficientValue   = newErr(protocol.ErrInsufficientValue, ClassFactory)
	ErrInsufficientPayment = newErr(protocol.ErrInsufficientPayment, ClassFactory)
	ErrInvalidBusinessType = newErr(protocol.ErrInvalidBusinessType, ClassFactory)

	ErrBadRequest       = newErr(protocol.ErrBadRequest, ClassRequest)
	ErrUnknownTerritory = newErr(protocol.ErrUnknownTerritory, ClassRequest)
	ErrUnknownResource  = newErr(protocol.ErrUnknownResource, ClassRequest)
)

// CodeOf returns the reason code carried by err, or E_INTERNAL for uncoded errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return protocol.ErrInternal
}

func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}
