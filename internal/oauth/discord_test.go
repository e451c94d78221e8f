package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teambalancer/teambalancer-api/internal/config"
)

func TestDiscordProvider_Name(t *testing.T) {
	provider := NewDiscordProvider(config.OAuthConfig{})
	assert.Equal(t, "discord", provider.Name())
}

func TestDiscordProvider_GetConsentURL(t *testing.T) {
	provider := NewDiscordProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "discord.com/api/oauth2/authorize")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "scope=identify")
	assert.Contains(t, url, "redirect_uri=http")
}

func newTestDiscordProvider(t *testing.T, userHandler http.HandlerFunc) *DiscordProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/users/@me", userHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   server.URL + "/oauth2/authorize",
				TokenURL:  server.URL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: server.URL,
	}
}

func TestDiscordProvider_ExchangeCode_Success(t *testing.T) {
	provider := newTestDiscordProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"80351110224678912","username":"nelly","global_name":"Nelly","avatar":"8342729096ea3675442027381ff50dfe"}`))
	})

	info, err := provider.ExchangeCode(context.Background(), "code-123")
	require.NoError(t, err)

	assert.Equal(t, "80351110224678912", info.ID)
	assert.Equal(t, "Nelly", info.Username)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png", info.AvatarURL)
	assert.Equal(t, "discord", info.Provider)
}

func TestDiscordProvider_ExchangeCode_NoGlobalNameOrAvatar(t *testing.T) {
	provider := newTestDiscordProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"42","username":"plain","avatar":null}`))
	})

	info, err := provider.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, "plain", info.Username)
	assert.Empty(t, info.AvatarURL)
}

func TestDiscordProvider_ExchangeCode_APIError(t *testing.T) {
	provider := newTestDiscordProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.ExchangeCode(context.Background(), "code")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
