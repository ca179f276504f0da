package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"convbackend/utils"
)

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	// APIBaseURL overrides https://api.github.com/ for GitHub Enterprise or tests
	APIBaseURL string `validate:"omitempty,url"`
	// OAuthBaseURL overrides https://github.com for the authorize and token endpoints
	OAuthBaseURL string `validate:"omitempty,url"`
}

// IsConfigured returns true if all required GitHub configuration is present
func (c GitHubConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type SessionConfig struct {
	Secret string
}

// IsConfigured returns true if a session secret with enough entropy is present
func (c SessionConfig) IsConfigured() bool {
	return len(c.Secret) >= 32
}

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// IsConfigured returns true if all required Anthropic configuration is present
func (c AnthropicConfig) IsConfigured() bool {
	return c.APIKey != "" && c.Model != ""
}

type AlertingConfig struct {
	SlackWebhookURL string `validate:"omitempty,url"`
	LogsURL         string
}

// IsConfigured returns true if Slack error alerts are enabled
func (c AlertingConfig) IsConfigured() bool {
	return c.SlackWebhookURL != ""
}

type AppConfig struct {
	// Core configuration (always required)
	PublicBaseURL      string `validate:"required,url,startswith=http"`
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional, defaults to the origin of PublicBaseURL
	Environment        string
	LogLevel           string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	GitHubConfig    GitHubConfig
	SessionConfig   SessionConfig
	AnthropicConfig AnthropicConfig
	AlertingConfig  AlertingConfig
}

// OAuthRedirectURL is the only callback address registered with GitHub.
// It is always derived from configuration, never from request headers.
func (c *AppConfig) OAuthRedirectURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/oauth/callback"
}

// AppRootURL is where a finished sign-in redirects the browser
func (c *AppConfig) AppRootURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/"
}

// IsDev reports whether cookies may be sent over plain HTTP
func (c *AppConfig) IsDev() bool {
	return c.Environment == "dev"
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ Could not load .env file, continuing with system env vars")
	}

	publicBaseURL, err := getEnvRequired("PUBLIC_BASE_URL")
	if err != nil {
		return nil, err
	}

	corsAllowedOrigins := getEnvWithDefault("CORS_ALLOWED_ORIGINS", originOf(publicBaseURL))
	// Credentials are allowed, which rules out a wildcard origin
	if slices.Contains(utils.SplitAndTrim(corsAllowedOrigins), "*") {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot contain \"*\" because credentials are allowed")
	}

	config := &AppConfig{
		// Core configuration
		PublicBaseURL:      publicBaseURL,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: corsAllowedOrigins,
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		GitHubConfig: GitHubConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			APIBaseURL:   os.Getenv("GITHUB_API_BASE_URL"),
			OAuthBaseURL: os.Getenv("GITHUB_OAUTH_BASE_URL"),
		},

		SessionConfig: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
		},

		AnthropicConfig: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     getEnvWithDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens: 16000,
		},

		AlertingConfig: AlertingConfig{
			SlackWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
			LogsURL:         os.Getenv("SERVER_LOGS_URL"),
		},
	}

	if err := utils.V().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.GitHubConfig.IsConfigured() {
		log.Info().Msg("✅ GitHub OAuth configured")
	} else {
		log.Warn().Msg("⚠️ GitHub OAuth not configured - sign-in will fail")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("GitHub OAuth is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	// Sessions cannot be minted without a secret, regardless of strict mode
	if !config.SessionConfig.IsConfigured() {
		return nil, fmt.Errorf("SESSION_SECRET must be set and at least 32 characters long")
	}
	log.Info().Msg("✅ Session signing configured")

	if config.AnthropicConfig.IsConfigured() {
		log.Info().Str("model", config.AnthropicConfig.Model).Msg("✅ Anthropic transformer configured")
	} else {
		log.Warn().Msg("⚠️ Anthropic not configured - conversions will fail")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("anthropic is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.AlertingConfig.IsConfigured() {
		log.Info().Msg("✅ Slack error alerts configured")
	} else {
		log.Info().Msg("⚠️ Slack error alerts not configured - alerts disabled")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// originOf reduces a URL to scheme://host
func originOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return parsed.Scheme + "://" + parsed.Host
}
