package session

import (
	"errors"
	"net/http"
	"strings"

	"spesecli/internal/apiclient"
)

const (
	MessageInvalidCredentials = "Invalid email or password. Please try again."
	MessageAccountExists      = "A user with this email already exists. Please use a different email or login."
	MessageServiceUnavailable = "Unable to connect to the server. Please check your internet connection and try again."
	MessageDataStoreDown      = "Server is running but database connection failed. Please try again later."
	MessageLoginFailed        = "Something went wrong during login. Please try again later."
	MessageRegisterFailed     = "Something went wrong during registration. Please try again later."
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrDataStoreDown      = errors.New("data store down")
	ErrRejected           = errors.New("request rejected")
)

// AuthError is the classified failure of Login or Register. Message is ready
// to show to the user.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

// Unwrap exposes both the classification and the underlying client error so
// errors.Is matches either.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps a failed auth call to an AuthError. register selects the
// register-specific rules and fallback message.
func classify(err error, register bool) *AuthError {
	fallback := MessageLoginFailed
	if register {
		fallback = MessageRegisterFailed
	}

	apiErr, ok := apiclient.AsError(err)
	if !ok {
		// validation errors from the auth endpoints wrapper
		return &AuthError{Kind: ErrRejected, Message: err.Error(), Err: err}
	}

	switch {
	case apiErr.Kind == apiclient.KindUnreachable:
		return &AuthError{Kind: ErrServiceUnavailable, Message: MessageServiceUnavailable, Err: err}
	case apiErr.Kind == apiclient.KindDataStoreDown:
		return &AuthError{Kind: ErrDataStoreDown, Message: MessageDataStoreDown, Err: err}
	case !register && apiErr.Status == http.StatusUnauthorized:
		return &AuthError{Kind: ErrInvalidCredentials, Message: MessageInvalidCredentials, Err: err}
	case register && apiErr.Status == http.StatusBadRequest && strings.Contains(apiErr.Message, "User already exists"):
		return &AuthError{Kind: ErrAccountExists, Message: MessageAccountExists, Err: err}
	}

	msg := apiErr.Message
	if msg == "" || msg == http.StatusText(apiErr.Status) {
		msg = fallback
	}
	return &AuthError{Kind: ErrRejected, Message: msg, Err: err}
}
