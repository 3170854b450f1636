package auth

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrMissingCredentials = errors.New("credentials not configured")
	ErrNoToken            = errors.New("provider returned no access token")
)

// Provider obtains a bearer token for one data provider.
type Provider interface {
	Name() string
	RequestToken(ctx context.Context) (string, error)
}

// Credentials are a provider account. They never have default values.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.Password != ""
}

func defaultClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
