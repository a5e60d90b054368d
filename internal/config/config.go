package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseDriver   string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	EventChannel     string
	JWTSecret        string
	CacheTTL         time.Duration
	AssistRateLimit  int
	AssistRateWindow time.Duration
	AIProvider       string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	SeedOnStart      bool
	AllowedOrigins   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ClientConfig holds the settings of the terminal client.
type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	v := newViper()

	v.SetDefault("app.name", "Classroom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("event.channel", "classroom")
	v.SetDefault("cache.ttl", "2m")
	v.SetDefault("assist.rate_limit", 10)
	v.SetDefault("assist.rate_window", "1m")
	v.SetDefault("ai.provider", "rules")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("seed", false)
	v.SetDefault("cors.allowed_origins", "*")

	ttl, err := parseDuration(v, "cache.ttl", 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	window, err := parseDuration(v, "assist.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid assist rate window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseDriver:   strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventChannel:     v.GetString("event.channel"),
		JWTSecret:        v.GetString("jwt.secret"),
		CacheTTL:         ttl,
		AssistRateLimit:  v.GetInt("assist.rate_limit"),
		AssistRateWindow: window,
		AIProvider:       strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:     v.GetString("openai.api_key"),
		OpenAIBaseURL:    v.GetString("openai.base_url"),
		OpenAIModel:      v.GetString("openai.model"),
		SeedOnStart:      v.GetBool("seed"),
		AllowedOrigins:   v.GetString("cors.allowed_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided when ai provider is openai")
	}

	if cfg.AssistRateLimit <= 0 {
		cfg.AssistRateLimit = 10
	}

	return cfg, nil
}

// LoadClient reads the terminal client configuration.
func LoadClient() (ClientConfig, error) {
	v := newViper()

	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("api.timeout", "10s")

	timeout, err := parseDuration(v, "api.timeout", 10*time.Second)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("invalid api timeout: %w", err)
	}

	cfg := ClientConfig{
		APIURL:  strings.TrimRight(v.GetString("api.url"), "/"),
		Token:   v.GetString("api.token"),
		Timeout: timeout,
	}

	if cfg.Token == "" {
		return ClientConfig{}, fmt.Errorf("api token must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
