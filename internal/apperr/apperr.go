// Package apperr holds the error kinds shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindSubscriptionRequired
	KindPaymentVerificationFailed
	KindGatewayUnavailable
	KindConfig
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindSubscriptionRequired:
		return "subscription_required"
	case KindPaymentVerificationFailed:
		return "payment_verification_failed"
	case KindGatewayUnavailable:
		return "gateway_unavailable"
	case KindConfig:
		return "config"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind and a message safe to show to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// Sentinels for errors.Is checks. They match by kind only.
var (
	ErrValidation                = &Error{Kind: KindValidation}
	ErrNotFound                  = &Error{Kind: KindNotFound}
	ErrUnauthorized              = &Error{Kind: KindUnauthorized}
	ErrSubscriptionRequired      = &Error{Kind: KindSubscriptionRequired}
	ErrPaymentVerificationFailed = &Error{Kind: KindPaymentVerificationFailed}
	ErrGatewayUnavailable        = &Error{Kind: KindGatewayUnavailable}
	ErrConfig                    = &Error{Kind: KindConfig}
	ErrConflict                  = &Error{Kind: KindConflict}
)

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

func SubscriptionRequired(msg string) error {
	return &Error{Kind: KindSubscriptionRequired, Msg: msg}
}

func PaymentVerificationFailed(msg string) error {
	return &Error{Kind: KindPaymentVerificationFailed, Msg: msg}
}

func GatewayUnavailable(msg string, err error) error {
	return &Error{Kind: KindGatewayUnavailable, Msg: msg, Err: err}
}

func Config(msg string) error { return &Error{Kind: KindConfig, Msg: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
