package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors raised by the transport layer and translated by Classify.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMailboxNotFound      = errors.New("mailbox not found")
	ErrMessageNotFound      = errors.New("message not found")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInvalidToken
	KindTokenExpired
	KindNetwork
	KindAuthentication
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindInvalidToken:
		return "InvalidTokenError"
	case KindTokenExpired:
		return "TokenExpiredError"
	case KindNetwork:
		return "NetworkError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAPI:
		return "ApiError"
	default:
		return "UnknownError"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a classified failure. Message is always a fixed human-readable
// cause: raw server error text stays in the wrapped cause and is never
// surfaced to the caller.
type Error struct {
	Kind      Kind   `json:"kind"`
	Op        string `json:"operation"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified error. Only network failures are retryable.
func NewError(kind Kind, op, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Op:        op,
		Message:   message,
		Retryable: kind == KindNetwork,
		cause:     cause,
	}
}
