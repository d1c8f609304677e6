package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds, as reported by Kind and recorded in request history.
const (
	KindAuth      = "auth"
	KindQuota     = "quota"
	KindTransport = "transport"
	KindProtocol  = "protocol"
	KindUnknown   = "unknown_api"
)

// maxBodyInError bounds how much of a raw body is repeated in Error strings.
const maxBodyInError = 512

// AuthError reports a missing, invalid or unauthorized API key. The raw
// response body is deliberately not part of the message.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return "invalid or missing API key"
	}
	return fmt.Sprintf("invalid or missing API key (HTTP %d)", e.Status)
}

// QuotaError reports exhausted credits (402) or rate limiting (429).
type QuotaError struct {
	Status int
	Detail string
}

func (e *QuotaError) Error() string {
	msg := "rate limit exceeded; wait before retrying"
	if e.Status == http.StatusPaymentRequired {
		msg = "insufficient credits for this request"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("quota error (HTTP %d): %s", e.Status, msg)
}

// TransportError reports a network failure: dial, timeout or a broken read.
// It is the only kind worth a user-initiated retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("request timed out during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline rather than a refusal.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// ProtocolError reports a 2xx response whose body is not a usable completion.
type ProtocolError struct {
	Reason string
	Body   string
}

func (e *ProtocolError) Error() string {
	return "unexpected response from API: " + e.Reason
}

// UnknownAPIError is any other non-2xx status. It keeps the raw status and
// body for diagnostics.
type UnknownAPIError struct {
	Status int
	Body   string
}

func (e *UnknownAPIError) Error() string {
	body := e.Body
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError] + "..."
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, body)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsQuotaError checks if an error is a quota or rate-limit error.
func IsQuotaError(err error) bool {
	var e *QuotaError
	return errors.As(err, &e)
}

// Retryable reports whether a manual retry may succeed. Only transport
// failures qualify; nothing is retried automatically.
func Retryable(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// Kind classifies err into one of the Kind constants, or "" for errors that
// did not come from the client.
func Kind(err error) string {
	var (
		authErr      *AuthError
		quotaErr     *QuotaError
		transportErr *TransportError
		protocolErr  *ProtocolError
		unknownErr   *UnknownAPIError
	)
	switch {
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &quotaErr):
		return KindQuota
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &protocolErr):
		return KindProtocol
	case errors.As(err, &unknownErr):
		return KindUnknown
	}
	return ""
}

// classifyStatus maps a non-2xx status to a typed error.
func classifyStatus(status int, body, detail string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: status}
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return &QuotaError{Status: status, Detail: detail}
	}
	return &UnknownAPIError{Status: status, Body: body}
}
