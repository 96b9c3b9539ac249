// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is assembled once at
// startup and treated as read-only afterwards.
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "json" or "text"

	// Tracing
	OTLPEndpoint string // empty disables tracing

	// CORS_ORIGINS, comma separated; empty allows any origin
	CORSOrigins []string

	Gateway   GatewayConfig
	ToolProxy ToolProxyConfig
}

// GatewayConfig configures the scoring gateway.
type GatewayConfig struct {
	ToolBaseURL string // MCP_BASE

	// Primary backend (Vertex AI)
	ProjectID      string
	VertexLocation string
	VertexModel    string

	// Secondary backend (Gemini API / AI Studio)
	GoogleAPIKey string
	StudioModel  string
	ForceStudio  bool

	ContextTimeout time.Duration
	BackendTimeout time.Duration
	FlagTimeout    time.Duration
}

// ToolProxyConfig configures the tool proxy.
type ToolProxyConfig struct {
	UsersAPI        string
	TransactionsAPI string
	UpstreamTimeout time.Duration
	DatabaseURL     string // optional, in-memory review queue if not set
}

// VertexDisabled is the PROJECT_ID sentinel that turns the primary backend off.
const VertexDisabled = "disabled"

const (
	DefaultGatewayPort     = "8080"
	DefaultToolServerPort  = "8081"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultToolBaseURL     = "http://mcp-server.agents.svc.cluster.local:8080"
	DefaultVertexLocation  = "us-central1"
	DefaultVertexModel     = "gemini-1.5-pro"
	DefaultStudioModel     = "gemini-1.5-flash"
	DefaultUsersAPI        = "http://userservice.default.svc.cluster.local"
	DefaultTransactionsAPI = "http://transactionhistory.default.svc.cluster.local"
	DefaultContextTimeout  = 15 * time.Second
	DefaultBackendTimeout  = 15 * time.Second
	DefaultFlagTimeout     = 10 * time.Second
	DefaultUpstreamTimeout = 10 * time.Second
)

// Load reads configuration from environment variables.
// defaultPort differs per binary (gateway vs tool server).
// It loads .env file if present (for local development)
func Load(defaultPort string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", defaultPort),
		Env:          getEnv("ENV", DefaultEnv),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getEnv("LOG_FORMAT", DefaultLogFormat),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:  getEnvList("CORS_ORIGINS"),
		Gateway: GatewayConfig{
			ToolBaseURL:    strings.TrimRight(getEnv("MCP_BASE", DefaultToolBaseURL), "/"),
			ProjectID:      os.Getenv("PROJECT_ID"),
			VertexLocation: getEnv("VERTEX_LOCATION", DefaultVertexLocation),
			VertexModel:    getEnv("VERTEX_MODEL", DefaultVertexModel),
			GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
			StudioModel:    getEnv("STUDIO_MODEL", DefaultStudioModel),
			ForceStudio:    getEnvBool("FORCE_STUDIO", false),
			ContextTimeout: getEnvDuration("CONTEXT_TIMEOUT", DefaultContextTimeout),
			BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", DefaultBackendTimeout),
			FlagTimeout:    getEnvDuration("FLAG_TIMEOUT", DefaultFlagTimeout),
		},
		ToolProxy: ToolProxyConfig{
			UsersAPI:        strings.TrimRight(getEnv("USERS_API", DefaultUsersAPI), "/"),
			TransactionsAPI: strings.TrimRight(getEnv("TXN_API", DefaultTransactionsAPI), "/"),
			UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configured values are usable
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"MCP_BASE":  c.Gateway.ToolBaseURL,
		"USERS_API": c.ToolProxy.UsersAPI,
		"TXN_API":   c.ToolProxy.TransactionsAPI,
	} {
		if err := validateBaseURL(raw); err != nil {
			return fmt.Errorf("%s %w", name, err)
		}
	}

	for name, d := range map[string]time.Duration{
		"CONTEXT_TIMEOUT":  c.Gateway.ContextTimeout,
		"BACKEND_TIMEOUT":  c.Gateway.BackendTimeout,
		"FLAG_TIMEOUT":     c.Gateway.FlagTimeout,
		"UPSTREAM_TIMEOUT": c.ToolProxy.UpstreamTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}

	return nil
}

// VertexEnabled reports whether the primary backend may be attempted:
// a project id is present and it is not the disable sentinel.
func (g GatewayConfig) VertexEnabled() bool {
	return g.ProjectID != "" && !strings.EqualFold(g.ProjectID, VertexDisabled)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host, got %q", raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDuration accepts Go durations ("15s") or bare seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
