package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultWEkEOBaseURL = "https://gateway.prod.wekeo2.eu/hda-broker"

// WEkEO authenticates against the WEkEO harmonised data access broker.
type WEkEO struct {
	creds   Credentials
	baseURL string
	client  *http.Client
}

func NewWEkEO(creds Credentials, baseURL string, client *http.Client) *WEkEO {
	if baseURL == "" {
		baseURL = DefaultWEkEOBaseURL
	}
	return &WEkEO{creds: creds, baseURL: strings.TrimRight(baseURL, "/"), client: defaultClient(client)}
}

func (w *WEkEO) Name() string { return "WEkEO" }

type wekeoTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type wekeoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (w *WEkEO) RequestToken(ctx context.Context) (string, error) {
	if !w.creds.complete() {
		return "", fmt.Errorf("WEkEO: %w", ErrMissingCredentials)
	}
	payload, err := json.Marshal(wekeoTokenRequest{Username: w.creds.Username, Password: w.creds.Password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/gettoken", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("WEkEO token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("WEkEO token request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out wekeoTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode WEkEO token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("WEkEO: %w", ErrNoToken)
	}
	return out.AccessToken, nil
}
