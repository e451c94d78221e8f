package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Access policies for work portions that have no linked user classes.
const (
	AccessPolicyAdminsOnly = "admins_only"
	AccessPolicyEveryone   = "everyone"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	RedisAddr   string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendCallbackURL string
	BaseURL             string
	DashboardURL        string

	Discord OAuthConfig
	Oracle  OracleConfig
	Webhook WebhookConfig
	Cycle   CycleConfig

	UnrestrictedAccessPolicy string

	RateLimit RateLimitConfig
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type OracleConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

type WebhookConfig struct {
	DiscordURL string
	Timeout    time.Duration
}

type CycleConfig struct {
	Epoch         time.Time
	LengthDays    int
	CheckInterval time.Duration
	Scheduled     bool
}

type RateLimitConfig struct {
	RPS    float64
	Burst  int
	Window time.Duration
	// TrustProxy keys anonymous requests by the first X-Forwarded-For hop.
	// Enable only behind a proxy that overwrites the header.
	TrustProxy bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")
	v.SetDefault("FRONTEND_CALLBACK_URL", "http://localhost:3000/auth/callback")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DASHBOARD_URL", "http://localhost:3000")
	v.SetDefault("ORACLE_PROVIDER", "groq")
	v.SetDefault("ORACLE_TIMEOUT", "60s")
	v.SetDefault("ORACLE_TEMPERATURE", 0.3)
	v.SetDefault("ORACLE_MAX_TOKENS", 1000)
	v.SetDefault("WEBHOOK_TIMEOUT", "10s")
	v.SetDefault("CYCLE_EPOCH", "2025-01-01")
	v.SetDefault("CYCLE_LENGTH_DAYS", 14)
	v.SetDefault("CYCLE_CHECK_INTERVAL", "1h")
	v.SetDefault("CYCLE_SCHEDULED", true)
	v.SetDefault("ACCESS_UNRESTRICTED_POLICY", AccessPolicyAdminsOnly)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1s")
	v.SetDefault("RATE_LIMIT_TRUST_PROXY", false)

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("required environment variable not set: JWT_SECRET")
	}

	epoch, err := time.Parse("2006-01-02", v.GetString("CYCLE_EPOCH"))
	if err != nil {
		return nil, fmt.Errorf("invalid CYCLE_EPOCH: %w", err)
	}

	lengthDays := v.GetInt("CYCLE_LENGTH_DAYS")
	if lengthDays <= 0 {
		return nil, fmt.Errorf("CYCLE_LENGTH_DAYS must be positive, got %d", lengthDays)
	}

	policy := strings.ToLower(v.GetString("ACCESS_UNRESTRICTED_POLICY"))
	if policy != AccessPolicyAdminsOnly && policy != AccessPolicyEveryone {
		return nil, fmt.Errorf("invalid ACCESS_UNRESTRICTED_POLICY: %q", policy)
	}

	provider := strings.ToLower(v.GetString("ORACLE_PROVIDER"))

	return &Config{
		Port:        v.GetString("PORT"),
		Env:         v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisAddr:   v.GetString("REDIS_ADDR"),

		JWTSecret:        secret,
		JWTAccessExpiry:  durationOr(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		JWTRefreshExpiry: durationOr(v.GetString("JWT_REFRESH_EXPIRY"), 168*time.Hour),

		FrontendCallbackURL: v.GetString("FRONTEND_CALLBACK_URL"),
		BaseURL:             v.GetString("BASE_URL"),
		DashboardURL:        v.GetString("DASHBOARD_URL"),

		Discord: OAuthConfig{
			ClientID:     v.GetString("DISCORD_CLIENT_ID"),
			ClientSecret: v.GetString("DISCORD_CLIENT_SECRET"),
			RedirectURL:  v.GetString("DISCORD_REDIRECT_URL"),
		},

		Oracle: OracleConfig{
			Provider:    provider,
			APIKey:      oracleKey(v, provider),
			Model:       v.GetString("ORACLE_MODEL"),
			BaseURL:     v.GetString("ORACLE_BASE_URL"),
			Timeout:     durationOr(v.GetString("ORACLE_TIMEOUT"), 60*time.Second),
			Temperature: float32(v.GetFloat64("ORACLE_TEMPERATURE")),
			MaxTokens:   v.GetInt("ORACLE_MAX_TOKENS"),
		},

		Webhook: WebhookConfig{
			DiscordURL: v.GetString("DISCORD_WEBHOOK_URL"),
			Timeout:    durationOr(v.GetString("WEBHOOK_TIMEOUT"), 10*time.Second),
		},

		Cycle: CycleConfig{
			Epoch:         epoch.UTC(),
			LengthDays:    lengthDays,
			CheckInterval: durationOr(v.GetString("CYCLE_CHECK_INTERVAL"), time.Hour),
			Scheduled:     v.GetBool("CYCLE_SCHEDULED"),
		},

		UnrestrictedAccessPolicy: policy,

		RateLimit: RateLimitConfig{
			RPS:        v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:      v.GetInt("RATE_LIMIT_BURST"),
			Window:     durationOr(v.GetString("RATE_LIMIT_WINDOW"), time.Second),
			TrustProxy: v.GetBool("RATE_LIMIT_TRUST_PROXY"),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// oracleKey prefers the provider-specific variable (GROQ_API_KEY,
// GEMINI_API_KEY) and falls back to ORACLE_API_KEY.
func oracleKey(v *viper.Viper, provider string) string {
	if key := v.GetString(strings.ToUpper(provider) + "_API_KEY"); key != "" {
		return key
	}
	return v.GetString("ORACLE_API_KEY")
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
