package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	DefaultCDSETokenURL = "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token"
	cdseClientID        = "cdse-public"
)

// CDSE authenticates against the Copernicus Data Space Ecosystem identity
// service with the OAuth2 resource owner password grant.
type CDSE struct {
	creds  Credentials
	config *oauth2.Config
	client *http.Client
}

func NewCDSE(creds Credentials, tokenURL string, client *http.Client) *CDSE {
	if tokenURL == "" {
		tokenURL = DefaultCDSETokenURL
	}
	return &CDSE{
		creds: creds,
		config: &oauth2.Config{
			ClientID: cdseClientID,
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		},
		client: defaultClient(client),
	}
}

func (c *CDSE) Name() string { return "CDSE" }

func (c *CDSE) RequestToken(ctx context.Context) (string, error) {
	if !c.creds.complete() {
		return "", fmt.Errorf("CDSE: %w", ErrMissingCredentials)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	tok, err := c.config.PasswordCredentialsToken(ctx, c.creds.Username, c.creds.Password)
	if err != nil {
		return "", fmt.Errorf("CDSE token request failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("CDSE: %w", ErrNoToken)
	}
	return tok.AccessToken, nil
}
