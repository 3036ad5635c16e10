package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can pick a policy (skip, retry, abort)
// without matching on error strings.
type Kind int

const (
	// KindTransient is the default for untyped errors: retry on the next run.
	KindTransient Kind = iota
	// KindNotFound is an expected absence (user, vehicle, profile document).
	KindNotFound
	// KindConfiguration means a required key or secret is missing.
	KindConfiguration
	// KindMalformed means a stored record or input could not be parsed.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	case KindMalformed:
		return "malformed"
	default:
		return "transient"
	}
}

// Error is a typed error carrying its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrMalformed     = &Error{Kind: KindMalformed}
)

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op string, format string, args ...any) *Error {
	return New(KindNotFound, op, fmt.Errorf(format, args...))
}

func Configuration(op string, format string, args ...any) *Error {
	return New(KindConfiguration, op, fmt.Errorf(format, args...))
}

func Malformed(op string, format string, args ...any) *Error {
	return New(KindMalformed, op, fmt.Errorf(format, args...))
}

func Transient(op string, err error) *Error {
	return New(KindTransient, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain.
// Errors without a Kind are treated as transient.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

func IsNotFound(err error) bool      { return err != nil && KindOf(err) == KindNotFound }
func IsConfiguration(err error) bool { return err != nil && KindOf(err) == KindConfiguration }
func IsMalformed(err error) bool     { return err != nil && KindOf(err) == KindMalformed }
