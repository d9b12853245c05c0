package auth

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable class of an auth error.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindDuplicateAccount     Kind = "duplicate_account"
	KindAccountNotFound      Kind = "account_not_found"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindPublisherNotApproved Kind = "publisher_not_approved"
	KindOTPNotFound          Kind = "otp_not_found"
	KindOTPExpired           Kind = "otp_expired"
	KindOTPMismatch          Kind = "otp_mismatch"
	KindOTPNotVerified       Kind = "otp_not_verified"
	KindWeakPassword         Kind = "weak_password"
	KindUnauthenticated      Kind = "unauthenticated"
	KindForbidden            Kind = "forbidden"
	KindNotification         Kind = "notification"
	KindStoreUnavailable     Kind = "store_unavailable"
)

// Error carries a Kind, a message safe to show to the caller, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrOTPExpired) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrDuplicateAccount     = &Error{Kind: KindDuplicateAccount}
	ErrAccountNotFound      = &Error{Kind: KindAccountNotFound}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials}
	ErrPublisherNotApproved = &Error{Kind: KindPublisherNotApproved}
	ErrOTPNotFound          = &Error{Kind: KindOTPNotFound}
	ErrOTPExpired           = &Error{Kind: KindOTPExpired}
	ErrOTPMismatch          = &Error{Kind: KindOTPMismatch}
	ErrOTPNotVerified       = &Error{Kind: KindOTPNotVerified}
	ErrWeakPassword         = &Error{Kind: KindWeakPassword}
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrNotification         = &Error{Kind: KindNotification}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable}
)

func fail(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// storeErr wraps a persistence failure so callers fail closed.
func storeErr(op string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "service temporarily unavailable", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
