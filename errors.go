package pluglogin

import (
	"errors"
	"net"
	"strconv"
)

// ErrorKind classifies a login failure. Callers should switch on the kind
// rather than on error messages.
type ErrorKind string

const (
	// KindTransport covers network failures, cancelled contexts and non-2xx
	// responses that carry no domain status.
	KindTransport ErrorKind = "TransportFailure"

	// KindCsrfNotFound means the bootstrap response held no CSRF token.
	KindCsrfNotFound ErrorKind = "CsrfNotFound"

	// KindMaintenance means plug.dj reported maintenance mode. It is
	// detected from page content since the service answers 200 meanwhile.
	KindMaintenance ErrorKind = "MaintenanceMode"

	// KindLogin means the login endpoint answered with a status other than
	// "ok", e.g. "badLogin".
	KindLogin ErrorKind = "DomainLoginFailure"

	// KindTokenExchange means the token endpoint answered with a status
	// other than "ok".
	KindTokenExchange ErrorKind = "TokenExchangeFailed"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrTransport     = &Error{Kind: KindTransport}
	ErrCsrfNotFound  = &Error{Kind: KindCsrfNotFound}
	ErrMaintenance   = &Error{Kind: KindMaintenance}
	ErrLogin         = &Error{Kind: KindLogin}
	ErrTokenExchange = &Error{Kind: KindTokenExchange}
)

// Error is the single error type returned by every operation of this package.
type Error struct {
	Kind ErrorKind

	// Status is the HTTP status code or the domain status string
	// ("badLogin", "notAuthorized", ...). Empty when no response arrived.
	Status string

	// Message is the first detail the service gave, or a description of
	// what went wrong locally.
	Message string

	// Body is the raw response payload, when one was received.
	Body []byte

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Status == "" {
		return string(e.Kind) + ": " + msg
	}
	return e.Status + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Timeout reports whether the failure was a network timeout.
func (e *Error) Timeout() bool {
	return isNetworkTimeout(e.Err)
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsMaintenance reports whether err signals plug.dj maintenance mode.
func IsMaintenance(err error) bool {
	return KindOf(err) == KindMaintenance
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func transportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func statusError(kind ErrorKind, statusCode int, message string, body []byte) *Error {
	return &Error{
		Kind:    kind,
		Status:  strconv.Itoa(statusCode),
		Message: message,
		Body:    body,
	}
}
