package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teambalancer/teambalancer-api/internal/config"
)

const (
	discordAPIBaseURL = "https://discord.com/api"
	discordCDNBaseURL = "https://cdn.discordapp.com"
)

var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/api/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type DiscordProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

func NewDiscordProvider(cfg config.OAuthConfig) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     DiscordEndpoint,
		},
		apiBaseURL: discordAPIBaseURL,
	}
}

func (p *DiscordProvider) Name() string {
	return "discord"
}

func (p *DiscordProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	userResp, err := client.Get(p.apiBaseURL + "/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer userResp.Body.Close()

	if userResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord api returned status %d", userResp.StatusCode)
	}

	var dUser struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Avatar     string `json:"avatar"`
	}

	if err := json.NewDecoder(userResp.Body).Decode(&dUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if dUser.ID == "" {
		return nil, fmt.Errorf("discord user has no id")
	}

	username := dUser.GlobalName
	if username == "" {
		username = dUser.Username
	}

	avatarURL := ""
	if dUser.Avatar != "" {
		avatarURL = fmt.Sprintf("%s/avatars/%s/%s.png", discordCDNBaseURL, dUser.ID, dUser.Avatar)
	}

	return &UserInfo{
		ID:        dUser.ID,
		Username:  username,
		AvatarURL: avatarURL,
		Provider:  "discord",
	}, nil
}
