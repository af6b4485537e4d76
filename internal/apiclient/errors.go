package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusNoResponse is the status reported when the server could not be
// reached at all.
const StatusNoResponse = http.StatusServiceUnavailable

const (
	CodeServerConnection   = "SERVER_CONNECTION_ERROR"
	CodeDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	CodeDecode             = "DECODE_ERROR"
	CodeRequest            = "REQUEST_ERROR"

	MessageUnreachable = "Unable to connect to the server. Please check if the server is running and try again."
)

// Kind classifies a failed call.
type Kind int

const (
	// KindUnreachable means no response arrived: connection refused, DNS
	// failure, timeout or cancellation.
	KindUnreachable Kind = iota + 1
	// KindRemoteRejected means the server answered with a failure status.
	KindRemoteRejected
	// KindDataStoreDown means the server is up but its database is not.
	KindDataStoreDown
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindDataStoreDown:
		return "data_store_down"
	default:
		return "unknown"
	}
}

var (
	ErrUnreachable    = errors.New("server unreachable")
	ErrRemoteRejected = errors.New("request rejected by server")
	ErrDataStoreDown  = errors.New("server data store unavailable")
)

// Error is returned by every Client call that did not succeed. Status is the
// HTTP status, or StatusNoResponse when nothing came back.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrRemoteRejected:
		return e.Kind == KindRemoteRejected
	case ErrDataStoreDown:
		return e.Kind == KindDataStoreDown
	}
	return false
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnreachable(err error) bool { return errors.Is(err, ErrUnreachable) }

// StatusOf returns the HTTP status carried by err, or 0 when err did not come
// from the client.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server-provided message carried by err, if any.
func MessageOf(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return ""
}

func unreachable(err error) *Error {
	return &Error{
		Kind:    KindUnreachable,
		Status:  StatusNoResponse,
		Message: MessageUnreachable,
		Code:    CodeServerConnection,
		Err:     err,
	}
}

// invalidRequest reports a request that could not be encoded or built. It
// never left the client.
func invalidRequest(err error) *Error {
	return &Error{
		Kind:    KindRemoteRejected,
		Message: "The request could not be prepared",
		Code:    CodeRequest,
		Err:     err,
	}
}

// errorBody is the failure payload the API sends.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func rejected(status int, body errorBody) *Error {
	e := &Error{
		Kind:    KindRemoteRejected,
		Status:  status,
		Message: body.Message,
		Code:    body.Error,
	}
	if status == http.StatusServiceUnavailable && body.Error == CodeDatabaseConnection {
		e.Kind = KindDataStoreDown
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
