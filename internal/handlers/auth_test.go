package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/middleware"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/pkg/dto"
	"github.com/teambalancer/teambalancer-api/tests/testutil"
)

type fakeProvider struct {
	info *oauth.UserInfo
	err  error
}

func (p *fakeProvider) GetConsentURL(state string) string {
	return "https://discord.test/authorize?state=" + state
}

func (p *fakeProvider) ExchangeCode(_ context.Context, _ string) (*oauth.UserInfo, error) {
	return p.info, p.err
}

func (p *fakeProvider) Name() string { return "discord" }

type authTestDeps struct {
	users    *testutil.MockUserService
	tokens   *testutil.MockTokenService
	jwt      *testutil.MockJWTService
	states   *oauth.MemoryStateStore
	provider *fakeProvider
	handler  *AuthHandler
}

func setupAuthTest(t *testing.T) *authTestDeps {
	t.Helper()
	d := &authTestDeps{
		users:    new(testutil.MockUserService),
		tokens:   new(testutil.MockTokenService),
		jwt:      new(testutil.MockJWTService),
		states:   oauth.NewMemoryStateStore(),
		provider: &fakeProvider{},
	}

	d.handler = &AuthHandler{
		cfg:          &config.Config{FrontendCallbackURL: "http://localhost:3000/auth/callback"},
		providers:    map[string]oauth.Provider{"discord": d.provider},
		states:       d.states,
		userService:  d.users,
		tokenService: d.tokens,
		jwtService:   d.jwt,
	}
	return d
}

func postJSON(app http.Handler, path string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_GetConsentURL(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Get("/auth/:provider/consent", d.handler.GetConsentURL)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/consent", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ConsentURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	u, err := url.Parse(resp.URL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	provider, ok, err := d.states.Take(context.Background(), statePrefix+state)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "discord", provider)
}

func TestAuthHandler_GetConsentURL_UnknownProvider(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Get("/auth/:provider/consent", d.handler.GetConsentURL)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/github/consent", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported provider")
}

func TestAuthHandler_Callback_Success(t *testing.T) {
	d := setupAuthTest(t)
	ctx := context.Background()

	info := &oauth.UserInfo{ID: "80351110224678912", Username: "nelly", Provider: "discord"}
	d.provider.info = info
	require.NoError(t, d.states.Put(ctx, statePrefix+"good-state", "discord", time.Minute))

	d.users.On("FindOrCreateFromOAuth", mock.Anything, info).
		Return(&models.User{ID: 42, Username: "nelly", Role: models.RoleUser}, nil)

	app := drift.New()
	app.Get("/auth/:provider/callback", d.handler.Callback)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?state=good-state&code=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Signed in to TeamBalancer")

	start := strings.Index(body, "?code=")
	require.Greater(t, start, 0)
	rest := body[start+len("?code="):]
	authCode, err := url.QueryUnescape(rest[:strings.IndexAny(rest, `"&`)])
	require.NoError(t, err)

	userID, ok, err := d.states.Take(ctx, authCodePrefix+authCode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", userID)

	// the state is single use
	_, ok, _ = d.states.Take(ctx, statePrefix+"good-state")
	assert.False(t, ok)

	d.users.AssertExpectations(t)
}

func TestAuthHandler_Callback_InvalidState(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Get("/auth/:provider/callback", d.handler.Callback)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?state=unknown&code=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired state")
	d.users.AssertNotCalled(t, "FindOrCreateFromOAuth", mock.Anything, mock.Anything)
}

func TestAuthHandler_Callback_Denied(t *testing.T) {
	d := setupAuthTest(t)
	require.NoError(t, d.states.Put(context.Background(), statePrefix+"s", "discord", time.Minute))

	app := drift.New()
	app.Get("/auth/:provider/callback", d.handler.Callback)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?state=s&error=access_denied", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "authorization denied")
}

func TestAuthHandler_Callback_ExchangeFails(t *testing.T) {
	d := setupAuthTest(t)
	d.provider.err = errors.New("bad code")
	require.NoError(t, d.states.Put(context.Background(), statePrefix+"s", "discord", time.Minute))

	app := drift.New()
	app.Get("/auth/:provider/callback", d.handler.Callback)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/discord/callback?state=s&code=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to exchange code")
}

func TestAuthHandler_ExchangeCode_Success(t *testing.T) {
	d := setupAuthTest(t)

	user := &models.User{ID: 7, Username: "nelly", Role: models.RoleAdmin}
	tokenPair := &services.TokenPair{
		AccessToken:  "access-token-123",
		RefreshToken: "refresh-token-456",
		ExpiresIn:    900,
	}

	require.NoError(t, d.states.Put(context.Background(), authCodePrefix+"test-auth-code", "7", time.Minute))

	d.users.On("GetByID", mock.Anything, int64(7)).Return(user, nil)
	d.jwt.On("GenerateTokenPair", int64(7), models.RoleAdmin).Return(tokenPair, nil)
	d.jwt.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	d.tokens.On("StoreRefreshToken", mock.Anything, int64(7), services.HashToken("refresh-token-456"), mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", d.handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "test-auth-code"})

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "access-token-123", response.AccessToken)
	assert.Equal(t, "refresh-token-456", response.RefreshToken)
	assert.Equal(t, int64(900), response.ExpiresIn)

	// codes are single use
	rec = postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "test-auth-code"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	d.users.AssertExpectations(t)
	d.jwt.AssertExpectations(t)
	d.tokens.AssertExpectations(t)
}

func TestAuthHandler_ExchangeCode_InvalidCode(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", d.handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "invalid-code"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired code")
}

func TestAuthHandler_ExchangeCode_ExpiredCode(t *testing.T) {
	d := setupAuthTest(t)
	require.NoError(t, d.states.Put(context.Background(), authCodePrefix+"expired", "7", -time.Second))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", d.handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "expired"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	d.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthHandler_ExchangeCode_MissingCode(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", d.handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "code is required")
}

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	d := setupAuthTest(t)

	user := &models.User{ID: 7, Role: models.RoleAdmin}
	oldRefreshToken := "old-refresh-token"
	newTokenPair := &services.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
		ExpiresIn:    900,
	}

	d.jwt.On("ValidateRefreshToken", oldRefreshToken).Return(int64(7), nil)
	d.tokens.On("ValidateRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(int64(7), nil)
	d.users.On("GetByID", mock.Anything, int64(7)).Return(user, nil)
	d.tokens.On("RevokeRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(nil)
	d.jwt.On("GenerateTokenPair", int64(7), models.RoleAdmin).Return(newTokenPair, nil)
	d.jwt.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	d.tokens.On("StoreRefreshToken", mock.Anything, int64(7), services.HashToken("new-refresh-token"), mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", d.handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: oldRefreshToken})

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "new-access-token", response.AccessToken)

	d.users.AssertExpectations(t)
	d.jwt.AssertExpectations(t)
	d.tokens.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_InvalidJWT(t *testing.T) {
	d := setupAuthTest(t)
	d.jwt.On("ValidateRefreshToken", "garbage").Return(int64(0), errors.New("invalid"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", d.handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "garbage"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")
}

func TestAuthHandler_RefreshToken_Revoked(t *testing.T) {
	d := setupAuthTest(t)
	d.jwt.On("ValidateRefreshToken", "revoked").Return(int64(7), nil)
	d.tokens.On("ValidateRefreshToken", mock.Anything, mock.Anything).Return(int64(0), services.ErrNotFound)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", d.handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "revoked"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh token not found or expired")
}

func TestAuthHandler_RefreshToken_Missing(t *testing.T) {
	d := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", d.handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	d := setupAuthTest(t)
	d.tokens.On("RevokeRefreshToken", mock.Anything, services.HashToken("rt")).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/logout", d.handler.Logout)

	rec := postJSON(app, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: "rt"})

	assert.Equal(t, http.StatusOK, rec.Code)
	d.tokens.AssertExpectations(t)
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	d := setupAuthTest(t)
	jwtSvc := testutil.TestJWTService()
	d.tokens.On("RevokeAllUserTokens", mock.Anything, int64(7)).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/auth/logout-all", d.handler.LogoutAll)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	req.Header.Set("Authorization", testutil.AuthHeader(testutil.GenerateTestToken(t, 7)))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	d.tokens.AssertExpectations(t)
}
