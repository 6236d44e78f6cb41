// Package autherror turns the out-of-band failure signals of the activity
// provider into errors the dashboard can act on: an entry error code handed
// over in the query string, or the status code of a failed fetch.
package autherror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	// KindAuthRequired means the session is missing, expired or was denied;
	// the user has to connect again.
	KindAuthRequired Kind = iota + 1
	// KindTransient covers network failures and unexpected statuses; a retry
	// may succeed.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// LoadFailed is shown for failures that carry no better explanation.
const LoadFailed = "Failed to load activities. Please try again."

var codeMessages = map[string]string{
	"token_error":       "Failed to get access token from provider.",
	"no_code":           "No authorization code received from provider.",
	"token_parse_error": "Error processing provider response.",
	"access_denied":     "Access denied to account.",
}

type Error struct {
	Kind    Kind
	Message string

	// Code is the entry error code, Status the HTTP status. At most one is set.
	Code   string
	Status int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// FromCode classifies an entry error code. It returns nil for an empty code.
func FromCode(code string) *Error {
	if code == "" {
		return nil
	}

	msg, ok := codeMessages[code]
	if !ok {
		msg = fmt.Sprintf("Authentication error: %s", code)
	}

	return &Error{
		Kind:    KindAuthRequired,
		Message: msg,
		Code:    code,
	}
}

// FromStatus classifies the status of a fetch response. It returns nil for
// 2xx statuses.
func FromStatus(status int) *Error {
	if status/100 == 2 {
		return nil
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &Error{
			Kind:    KindAuthRequired,
			Message: LoadFailed,
			Status:  status,
		}
	}

	return &Error{
		Kind:    KindTransient,
		Message: fmt.Sprintf("HTTP error! status: %d", status),
		Status:  status,
	}
}

// Transient classifies a failure that happened before any status was
// received, such as a refused connection or a timeout. The original error is
// kept as the cause.
func Transient(cause error) *Error {
	return &Error{
		Kind:    KindTransient,
		Message: LoadFailed,
		cause:   cause,
	}
}

// KindOf reports the kind of err. Errors that were not classified are
// transient.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// Message returns the user facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return LoadFailed
}

func IsAuthRequired(err error) bool {
	return err != nil && KindOf(err) == KindAuthRequired
}

func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}
