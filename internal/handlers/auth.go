package handlers

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"time"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/pkg/dto"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second

	statePrefix    = "state:"
	authCodePrefix = "code:"
)

type AuthHandler struct {
	cfg          *config.Config
	providers    map[string]oauth.Provider
	states       oauth.StateStore
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
}

func NewAuthHandler(
	cfg *config.Config,
	states oauth.StateStore,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
) *AuthHandler {
	h := &AuthHandler{
		cfg:          cfg,
		providers:    make(map[string]oauth.Provider),
		states:       states,
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
	}

	if cfg.Discord.ClientID != "" {
		h.providers["discord"] = oauth.NewDiscordProvider(cfg.Discord)
	}

	return h
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	if err := h.states.Put(c.Request.Context(), statePrefix+state, provider, stateTTL); err != nil {
		c.InternalServerError("failed to store state")
		return
	}

	_ = c.JSON(200, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	stateProvider, ok, err := h.states.Take(c.Request.Context(), statePrefix+state)
	if err != nil {
		h.redirectWithError(c, "failed to verify state")
		return
	}
	if !ok || stateProvider != provider {
		h.redirectWithError(c, "invalid or expired state")
		return
	}

	if denied := c.QueryParam("error"); denied != "" {
		h.redirectWithError(c, "authorization denied: "+denied)
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.redirectWithError(c, "failed to exchange code: "+err.Error())
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo)
	if err != nil {
		h.redirectWithError(c, "failed to create user")
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}

	if err := h.states.Put(ctx, authCodePrefix+authCode, strconv.FormatInt(user.ID, 10), authCodeTTL); err != nil {
		h.redirectWithError(c, "failed to store auth code")
		return
	}

	redirectURL := fmt.Sprintf("%s?code=%s",
		h.cfg.FrontendCallbackURL,
		url.QueryEscape(authCode),
	)

	h.renderCallbackPage(c, redirectURL, "")
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	ctx := c.Request.Context()

	raw, ok, err := h.states.Take(ctx, authCodePrefix+req.Code)
	if err != nil {
		c.InternalServerError("failed to verify code")
		return
	}
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.Unauthorized("invalid or expired code")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	h.issueTokens(c, user.ID, user.Role)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	tokenHash := services.HashToken(req.RefreshToken)
	ctx := c.Request.Context()

	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, tokenHash)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	// the role is re-read so promotions take effect on the next refresh
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	if err := h.tokenService.RevokeRefreshToken(ctx, tokenHash); err != nil {
		c.InternalServerError("failed to revoke old token")
		return
	}

	h.issueTokens(c, user.ID, user.Role)
}

func (h *AuthHandler) issueTokens(c *drift.Context, userID int64, role string) {
	tokenPair, err := h.jwtService.GenerateTokenPair(userID, role)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(c.Request.Context(), userID, tokenHash, expiresAt); err != nil {
		c.InternalServerError("failed to store refresh token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		tokenHash := services.HashToken(req.RefreshToken)
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), tokenHash)
	}

	_ = c.JSON(200, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "all sessions logged out"})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	redirectURL := fmt.Sprintf("%s?error=%s",
		h.cfg.FrontendCallbackURL,
		url.QueryEscape(errMsg),
	)
	h.renderCallbackPage(c, redirectURL, errMsg)
}

// renderCallbackPage forwards the browser to the dashboard. A non-empty
// errMsg renders the failure variant with status 400.
func (h *AuthHandler) renderCallbackPage(c *drift.Context, redirectURL, errMsg string) {
	title := "Signed in to TeamBalancer"
	message := "Taking you to your dashboard..."
	accent := "#5865f2"
	statusCode := 200

	if errMsg != "" {
		title = "Sign-in failed"
		message = errMsg
		accent = "#ed4245"
		statusCode = 400
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%[1]s</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #2b2d31; color: #dbdee1; margin: 0; padding: 60px 20px; }
        .card { max-width: 380px; margin: 0 auto; background: #313338; border-top: 4px solid %[3]s; border-radius: 8px; padding: 32px; text-align: center; }
        h1 { font-size: 20px; margin: 0 0 12px 0; color: #f2f3f5; }
        p { font-size: 14px; margin: 0 0 8px 0; }
        a { color: %[3]s; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
        <p><a href="%[4]s">Continue</a></p>
    </div>
    <script>window.location.href = %[5]q;</script>
</body>
</html>`, title, html.EscapeString(message), accent, html.EscapeString(redirectURL), redirectURL)

	_ = c.HTML(statusCode, page)
}
