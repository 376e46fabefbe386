package provider

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/lantianz/lantz-tmail/session"
)

// Classify maps a low-level failure into the error taxonomy. The operation
// name is carried along for diagnostics; the original error stays wrapped.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	// already classified further down the stack
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, session.ErrMissingSecret):
		return NewError(KindConfiguration, op, "token encryption is enabled but no secret is configured", err)
	case errors.Is(err, session.ErrInvalidToken):
		return NewError(KindInvalidToken, op, "the access token is malformed or has been tampered with", err)
	case errors.Is(err, session.ErrTokenExpired):
		return NewError(KindTokenExpired, op, "the access token has expired", err)
	case errors.Is(err, ErrAuthenticationFailed):
		return NewError(KindAuthentication, op, "the mailbox rejected the credentials", err)
	case errors.Is(err, ErrMailboxNotFound):
		return NewError(KindAPI, op, "the mailbox folder was not found", err)
	case errors.Is(err, ErrMessageNotFound):
		return NewError(KindAPI, op, "the message was not found", err)
	case isNetworkError(err):
		return NewError(KindNetwork, op, "the mail server could not be reached", err)
	case isAuthenticationText(err):
		return NewError(KindAuthentication, op, "the mailbox rejected the credentials", err)
	}
	return NewError(KindUnknown, op, "the mail server returned an unexpected error", err)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		syscall.ETIMEDOUT,
		syscall.EHOSTUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var dnsError *net.DNSError
	if errors.As(err, &dnsError) {
		return true
	}
	var netError net.Error
	if errors.As(err, &netError) {
		return netError.Timeout()
	}
	return false
}

// isAuthenticationText catches login rejections that only exist as server
// response text, e.g. "NO [AUTHENTICATIONFAILED] invalid credentials".
func isAuthenticationText(err error) bool {
	text := strings.ToLower(err.Error())
	for _, marker := range []string{
		"authenticationfailed",
		"authentication failed",
		"invalid credentials",
		"bad username or password",
		"login failed",
	} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
