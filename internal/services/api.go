// Package services wraps the remote API endpoints. Each method is exactly
// one HTTP call: services keep no state and never emit refresh signals.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"spesecli/internal/apiclient"
)

// API is the subset of *apiclient.Client the services need.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ API = (*apiclient.Client)(nil)

var ErrMissingID = errors.New("missing id")

// resourcePath joins base and an escaped id, rejecting blank ids before any
// request goes out.
func resourcePath(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return base + "/" + url.PathEscape(id), nil
}
