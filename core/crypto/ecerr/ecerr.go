// Package ecerr enumerates the failure kinds of the curve and ECIES packages.
//
// Every error produced by field, curve and ecies is an *errors.Error whose
// Reason is one of the Kind strings below, so callers can branch on the kind
// with errors.Is against the exported sentinels or with KindOf:
//
//	if errors.Is(err, ecerr.ErrAuthenticationFailed) { ... }
//
//	switch ecerr.KindOf(err) {
//	case ecerr.FieldTooLarge:
//	}
package ecerr

import (
	"github.com/kochabx/curvebox/errors"
)

// Kind is a closed set of engine failure kinds.
type Kind int

const (
	// Unknown is returned by KindOf for errors that did not come from the engine.
	Unknown Kind = iota
	// InvalidGenerator: the generator does not satisfy the curve equation.
	InvalidGenerator
	// NotInvertible: a field element has no inverse modulo p.
	NotInvertible
	// OutOfRange: a scalar is outside [1, n-1].
	OutOfRange
	// FieldTooLarge: point enumeration requested for p above the cap.
	FieldTooLarge
	// NoSuitableCurveFound: random curve search exhausted its attempts.
	NoSuitableCurveFound
	// MalformedEnvelope: compact or file envelope cannot be parsed.
	MalformedEnvelope
	// AuthenticationFailed: the AEAD tag did not verify.
	AuthenticationFailed
	// MalformedParams: curve parameters are missing or not decimal integers.
	MalformedParams
	// InvalidPoint: a supplied public point is infinity or not on the curve.
	InvalidPoint
)

var kindInfo = [...]struct {
	reason  string
	code    int
	message string
}{
	Unknown:              {"", errors.UnknownCode, "unknown error"},
	InvalidGenerator:     {"INVALID_GENERATOR", 422, "generator point is not on the curve"},
	NotInvertible:        {"NOT_INVERTIBLE", 422, "element is not invertible"},
	OutOfRange:           {"OUT_OF_RANGE", 422, "scalar out of range"},
	FieldTooLarge:        {"FIELD_TOO_LARGE", 422, "field too large for point enumeration"},
	NoSuitableCurveFound: {"NO_SUITABLE_CURVE_FOUND", 422, "no suitable curve found"},
	MalformedEnvelope:    {"MALFORMED_ENVELOPE", 400, "malformed envelope"},
	AuthenticationFailed: {"AUTHENTICATION_FAILED", 401, "authentication failed"},
	MalformedParams:      {"MALFORMED_PARAMS", 400, "malformed curve parameters"},
	InvalidPoint:         {"INVALID_POINT", 422, "invalid public point"},
}

// String returns the stable reason string of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindInfo) {
		return ""
	}
	return kindInfo[k].reason
}

// Code returns the status code errors of this kind carry.
func (k Kind) Code() int {
	if k < 0 || int(k) >= len(kindInfo) {
		return errors.UnknownCode
	}
	return kindInfo[k].code
}

// Sentinels for errors.Is. Matching is on code and reason, so errors built by
// New with a specific message still match.
var (
	ErrInvalidGenerator     = sentinel(InvalidGenerator)
	ErrNotInvertible        = sentinel(NotInvertible)
	ErrOutOfRange           = sentinel(OutOfRange)
	ErrFieldTooLarge        = sentinel(FieldTooLarge)
	ErrNoSuitableCurveFound = sentinel(NoSuitableCurveFound)
	ErrMalformedEnvelope    = sentinel(MalformedEnvelope)
	ErrAuthenticationFailed = sentinel(AuthenticationFailed)
	ErrMalformedParams      = sentinel(MalformedParams)
	ErrInvalidPoint         = sentinel(InvalidPoint)
)

func sentinel(k Kind) *errors.Error {
	info := kindInfo[k]
	return errors.NewWithReason(info.code, info.reason, "%s", info.message)
}

// New builds an error of the given kind. An empty format keeps the default
// message of the kind.
func New(k Kind, format string, args ...any) *errors.Error {
	info := kindInfo[Unknown]
	if k > Unknown && int(k) < len(kindInfo) {
		info = kindInfo[k]
	}
	if format == "" {
		return errors.NewWithReason(info.code, info.reason, "%s", info.message)
	}
	return errors.NewWithReason(info.code, info.reason, format, args...)
}

// KindOf returns the kind of the first engine error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *errors.Error
	if !errors.As(err, &e) {
		return Unknown
	}
	for k := InvalidGenerator; int(k) < len(kindInfo); k++ {
		if kindInfo[k].reason == e.Reason {
			return k
		}
	}
	return Unknown
}
