package code

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies execution failures.
type Kind int

const (
	KindUnknown Kind = iota
	UnsupportedLanguage
	CodeTooLarge
	MissingCredentials
	TransportFailure
	MalformedResponse
	ExecutionTimeout
)

func (k Kind) String() string {
	switch k {
	case UnsupportedLanguage:
		return "unsupported language"
	case CodeTooLarge:
		return "code too large"
	case MissingCredentials:
		return "missing credentials"
	case TransportFailure:
		return "transport failure"
	case MalformedResponse:
		return "malformed response"
	case ExecutionTimeout:
		return "execution timeout"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrUnsupportedLanguage = &Error{Kind: UnsupportedLanguage}
	ErrCodeTooLarge        = &Error{Kind: CodeTooLarge}
	ErrMissingCredentials  = &Error{Kind: MissingCredentials}
	ErrTransportFailure    = &Error{Kind: TransportFailure}
	ErrMalformedResponse   = &Error{Kind: MalformedResponse}
	ErrExecutionTimeout    = &Error{Kind: ExecutionTimeout}
)

// Error is a classified failure raised by a backend or the engine.
type Error struct {
	Kind    Kind
	Backend string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Backend != "" {
		msg = e.Backend + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Backend == "" && t.Kind == e.Kind
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, backend string, format string, args ...any) *Error {
	return &Error{Kind: kind, Backend: backend, Err: fmt.Errorf(format, args...)}
}

// requestError classifies a failed provider round trip. A caller deadline
// reached mid-request is an ExecutionTimeout, the same as one reached while
// waiting between polls; anything else is a TransportFailure.
func requestError(ctx context.Context, backend string, format string, args ...any) *Error {
	kind := TransportFailure
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = ExecutionTimeout
	}
	return newError(kind, backend, format, args...)
}
