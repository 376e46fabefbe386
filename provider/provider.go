package provider

import (
	"context"
	"time"

	"github.com/lantianz/lantz-tmail/mailbox"
)

// Capability tags what a provider implementation can do. Stateless HTTP
// wrappers typically stop at content retrieval; the IMAP provider carries the
// full set.
type Capability uint32

const (
	CapCreate Capability = 1 << iota
	CapList
	CapContent
	CapDelete
	CapWait
)

func (c Capability) Has(capability Capability) bool {
	return c&capability != 0
}

// Provider is the contract the rest of the system consumes. Every method
// returns the uniform response envelope; errors never escape unclassified.
type Provider interface {
	Name() string
	Capabilities() Capability
	// CreateEmail provisions a new temporary address and returns the opaque
	// access token for it.
	CreateEmail(ctx context.Context, req CreateRequest) Response[CreatedEmail]
	// ListEmails returns the recent messages addressed exactly to the
	// temporary address, newest first.
	ListEmails(ctx context.Context, req ListRequest) Response[[]mailbox.Summary]
	// GetEmailContent returns one message with bodies and attachment
	// metadata.
	GetEmailContent(ctx context.Context, req ContentRequest) Response[mailbox.Content]
	// DeleteEmail removes one message from the backing mailbox.
	DeleteEmail(ctx context.Context, req DeleteRequest) Response[struct{}]
	// Health probes connectivity to the backing service.
	Health(ctx context.Context) Response[HealthReport]
}

type CreateRequest struct {
	// LocalPart to use for the address; a random one is generated when empty.
	LocalPart string
}

type CreatedEmail struct {
	Address     string `json:"address"`
	Domain      string `json:"domain"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

type ListRequest struct {
	Address     string
	AccessToken string
}

type ContentRequest struct {
	Address     string
	AccessToken string
	// ID as returned in a Summary, parsed as an IMAP UID.
	ID string
}

type DeleteRequest struct {
	Address     string
	AccessToken string
	ID          string
}

type HealthReport struct {
	Healthy bool          `json:"healthy"`
	Elapsed time.Duration `json:"elapsed"`
}

// Status is the part of the envelope shared by all responses.
type Status struct {
	Success   bool          `json:"success"`
	Provider  string        `json:"provider"`
	Timestamp time.Time     `json:"timestamp"`
	Elapsed   time.Duration `json:"elapsed"`
	Error     *Error        `json:"error,omitempty"`
}

// Response is the uniform success/error envelope.
type Response[T any] struct {
	Status
	Data T `json:"data,omitempty"`
}

func Succeed[T any](name string, started time.Time, data T) Response[T] {
	return Response[T]{
		Status: Status{
			Success:   true,
			Provider:  name,
			Timestamp: time.Now().UTC(),
			Elapsed:   time.Since(started),
		},
		Data: data,
	}
}

func Fail[T any](name string, started time.Time, err *Error) Response[T] {
	return Response[T]{
		Status: Status{
			Provider:  name,
			Timestamp: time.Now().UTC(),
			Elapsed:   time.Since(started),
			Error:     err,
		},
	}
}
