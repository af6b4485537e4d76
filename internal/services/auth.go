package services

import (
	"context"
	"errors"
	"strings"

	"spesecli/internal/core"
)

var (
	ErrMissingEmail    = errors.New("email is required")
	ErrMissingPassword = errors.New("password is required")
	ErrMissingName     = errors.New("name is required")
)

// AuthAPI calls the two unauthenticated user endpoints.
type AuthAPI struct {
	api API
}

func NewAuthAPI(api API) *AuthAPI {
	return &AuthAPI{api: api}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account (POST /users) and returns the new session.
func (a *AuthAPI) Register(ctx context.Context, name, email, password string) (core.Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	switch {
	case name == "":
		return core.Session{}, ErrMissingName
	case email == "":
		return core.Session{}, ErrMissingEmail
	case password == "":
		return core.Session{}, ErrMissingPassword
	}
	var s core.Session
	if err := a.api.Post(ctx, "/users", registerRequest{Name: name, Email: email, Password: password}, &s); err != nil {
		return core.Session{}, err
	}
	return s, nil
}

// Login exchanges credentials for a session (POST /users/login).
func (a *AuthAPI) Login(ctx context.Context, email, password string) (core.Session, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return core.Session{}, ErrMissingEmail
	case password == "":
		return core.Session{}, ErrMissingPassword
	}
	var s core.Session
	if err := a.api.Post(ctx, "/users/login", loginRequest{Email: email, Password: password}, &s); err != nil {
		return core.Session{}, err
	}
	return s, nil
}
