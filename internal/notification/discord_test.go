package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierSendsEmbed(t *testing.T) {
	var got DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, srv.Client())
	require.NoError(t, n.Failure(context.Background(), "temperature: job failed"))

	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "temperature: job failed", got.Embeds[0].Description)
	assert.Equal(t, colorRed, got.Embeds[0].Color)

	require.NoError(t, n.Success(context.Background(), "ok"))
	assert.Equal(t, colorGreen, got.Embeds[0].Color)
}

func TestNotifierStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, srv.Client()).Success(context.Background(), "ok")
	assert.ErrorContains(t, err, "status code: 400")
}

func TestNotifierDisabled(t *testing.T) {
	n := NewNotifier("", nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Success(context.Background(), "ok"))

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}
