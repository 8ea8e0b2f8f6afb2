// Package config loads the service configuration.
//
// Precedence (highest first):
//  1. Process environment (MONGO_URI -> mongo.uri, AUTH_JWT_SECRET -> auth.jwt_secret)
//  2. Variables from a .env file in the working directory
//  3. Embedded defaults (defaults.yaml)
package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed defaults.yaml
var defaultConfig []byte

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Vector    VectorConfig    `koanf:"vector"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Auth      AuthConfig      `koanf:"auth"`
	Redis     RedisConfig     `koanf:"redis"`
	Retry     RetryConfig     `koanf:"retry"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	Mode            string        `koanf:"mode"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     string        `koanf:"cors_origins"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// VectorConfig selects and configures the vector index. Backend is "qdrant" or
// "memory"; the latter keeps vectors in process and is meant for local runs.
type VectorConfig struct {
	Backend    string `koanf:"backend"`
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	APIKey     string `koanf:"api_key"`
	UseTLS     bool   `koanf:"use_tls"`
	Collection string `koanf:"collection"`
	Dimensions int    `koanf:"dimensions"`
	TopK       int    `koanf:"top_k"`
}

type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

type AuthConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	IDPURL         string        `koanf:"idp_url"`
	IDPAnonKey     string        `koanf:"idp_anon_key"`
	Audience       string        `koanf:"audience"`
	CookieSecure   bool          `koanf:"cookie_secure"`
	CookieDomain   string        `koanf:"cookie_domain"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
}

// Issuer is the token issuer the identity provider stamps on access tokens.
func (a AuthConfig) Issuer() string {
	return strings.TrimRight(a.IDPURL, "/") + "/auth/v1"
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
}

type RateLimitConfig struct {
	Window        time.Duration `koanf:"window"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

var sections = map[string]bool{
	"server":    true,
	"log":       true,
	"mongo":     true,
	"vector":    true,
	"gemini":    true,
	"auth":      true,
	"redis":     true,
	"retry":     true,
	"ratelimit": true,
}

// envKey maps SECTION_FIELD_NAME to section.field_name, skipping variables
// that do not belong to a known section.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || !sections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func IsTest() bool {
	return os.Getenv("GO_ENV") == "test"
}

// Load reads the configuration and validates required settings.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(err, "failed to load .env file")
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, goerr.Wrap(err, "failed to load default config")
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, goerr.Wrap(err, "failed to load environment config")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to decode config")
	}

	if !IsTest() {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	required := map[string]string{
		"AUTH_JWT_SECRET": c.Auth.JWTSecret,
		"AUTH_IDP_URL":    c.Auth.IDPURL,
		"MONGO_URI":       c.Mongo.URI,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return goerr.New("required configuration is not set", goerr.V("variable", name))
		}
	}

	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return goerr.New("required configuration is not set", goerr.V("variable", "GEMINI_API_KEY"))
	}
	switch c.Vector.Backend {
	case "qdrant", "memory":
	default:
		return goerr.New("unknown vector backend", goerr.V("backend", c.Vector.Backend))
	}

	if c.Vector.Dimensions <= 0 {
		return goerr.New("vector dimensions must be positive", goerr.V("dimensions", c.Vector.Dimensions))
	}
	if c.Retry.MaxAttempts < 1 {
		return goerr.New("retry max attempts must be at least 1", goerr.V("max_attempts", c.Retry.MaxAttempts))
	}
	return nil
}
