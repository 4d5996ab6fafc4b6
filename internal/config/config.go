package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	// Port accepts "5000", ":5000" or "127.0.0.1:5000".
	Port             string `koanf:"port"`
	// Environment is empty unless FLASK_ENV or APP_ENV is set.
	Environment      string `koanf:"environment"`
	StaticDir        string `koanf:"static_dir"`
	MaxContentLength int64  `koanf:"max_content_length"`
}

// AuthConfig describes the private zone gate and its session cookie.
type AuthConfig struct {
	Password        string        `koanf:"password"`
	PasswordHash    string        `koanf:"password_hash"`
	SecretKey       string        `koanf:"secret_key"`
	SessionLifetime time.Duration `koanf:"session_lifetime"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	CookieName      string        `koanf:"cookie_name"`

	// SecretGenerated is set when SecretKey was not configured and a random one
	// was created for this process; cookies then die with the process.
	SecretGenerated bool `koanf:"-"`
}

// SecurityConfig covers the cross-cutting HTTP hardening.
type SecurityConfig struct {
	CORSOrigins       []string `koanf:"cors_origins"`
	RateLimitDefault  string   `koanf:"ratelimit_default"`
	AuthRateLimit     string   `koanf:"auth_ratelimit"`
	RateLimitDisabled bool     `koanf:"ratelimit_disabled"`
	// TrustProxy honours X-Forwarded-For / X-Real-IP. Only enable it behind a
	// reverse proxy that overwrites those headers.
	TrustProxy        bool     `koanf:"trust_proxy"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             "5000",
			StaticDir:        ".",
			MaxContentLength: 16 * 1024 * 1024,
		},
		Auth: AuthConfig{
			Password:        "Julio25",
			SessionLifetime: 24 * time.Hour,
			SweepInterval:   10 * time.Minute,
			CookieName:      "audiosessions_session",
		},
		Security: SecurityConfig{
			CORSOrigins:      []string{"*"},
			RateLimitDefault: "200 per day;50 per hour",
			AuthRateLimit:    "5 per minute",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Auth.SecretKey == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.SecretKey = secret
		cfg.Auth.SecretGenerated = true
	}

	return cfg, nil
}

func (c *Config) applyDerivedDefaults() {
	c.Server.Environment = strings.ToLower(strings.TrimSpace(c.Server.Environment))
	if c.Logging.Format == "" {
		if c.Server.IsDevelopment() {
			c.Logging.Format = "console"
		} else {
			c.Logging.Format = "json"
		}
	}
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if _, err := c.Server.Addr(); err != nil {
		return err
	}
	if c.Server.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive, got %d", c.Server.MaxContentLength)
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("PRIVATE_ZONE_PASSWORD or PRIVATE_ZONE_PASSWORD_HASH is required")
	}
	if c.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive, got %s", c.Auth.SessionLifetime)
	}
	if c.Auth.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.Auth.SweepInterval)
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if _, err := c.Security.DefaultLimits(); err != nil {
		return err
	}
	if _, err := c.Security.AuthLimits(); err != nil {
		return err
	}
	return nil
}

// Addr 解析服务器监听地址。
func (c ServerConfig) Addr() (string, error) {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	return ":" + port, nil
}

func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction controls the Secure flag on cookies. It requires an explicit
// production environment.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultLimits returns the limits applied to every API request.
func (c SecurityConfig) DefaultLimits() ([]RateLimit, error) {
	limits, err := ParseRateLimits(c.RateLimitDefault)
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_DEFAULT: %w", err)
	}
	return limits, nil
}

// AuthLimits returns the stricter limits for password endpoints.
func (c SecurityConfig) AuthLimits() ([]RateLimit, error) {
	limits, err := ParseRateLimits(c.AuthRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATELIMIT: %w", err)
	}
	return limits, nil
}

func findConfigFile() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":                       "server.port",
	"flask_env":                  "server.environment",
	"app_env":                    "server.environment",
	"static_dir":                 "server.static_dir",
	"max_content_length":         "server.max_content_length",
	"secret_key":                 "auth.secret_key",
	"private_zone_password":      "auth.password",
	"private_zone_password_hash": "auth.password_hash",
	"session_lifetime":           "auth.session_lifetime",
	"session_sweep_interval":     "auth.sweep_interval",
	"session_cookie_name":        "auth.cookie_name",
	"cors_origins":               "security.cors_origins",
	"ratelimit_default":          "security.ratelimit_default",
	"auth_ratelimit":             "security.auth_ratelimit",
	"ratelimit_disabled":         "security.ratelimit_disabled",
	"trust_proxy":                "security.trust_proxy",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
}

// envTransformFunc maps known environment variables onto config paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{"security.cors_origins"}

// processSliceFields splits comma separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
