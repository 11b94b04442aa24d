package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port              string   `yaml:"port"`
	LogLevel          string   `yaml:"logLevel"`
	APIBaseURL        string   `yaml:"apiBaseURL"`
	AllowedOrigins    []string `yaml:"allowedOrigins"`
	RedisAddr         string   `yaml:"redisAddr"`
	RedisPassword     string   `yaml:"redisPassword"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`

	// Per-IP fixed-window limits for the expensive generation routes.
	// Zero disables limiting.
	GenerateRateLimitPerMinute int `yaml:"generateRateLimitPerMinute"`
	ChatRateLimitPerMinute     int `yaml:"chatRateLimitPerMinute"`

	// Internal JWT signing for calls to the api service. Optional; when
	// the key path is empty requests go out unauthenticated.
	InternalJWTPrivateKeyPath string `yaml:"internalJWTPrivateKeyPath"`
	InternalJWTIssuer         string `yaml:"internalJWTIssuer"`
	InternalJWTAudience       string `yaml:"internalJWTAudience"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("GATEWAY_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("GATEWAY_GENERATE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GenerateRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("GATEWAY_CHAT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChatRateLimitPerMinute = n
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:3001"
	}
	if cfg.InternalJWTIssuer == "" {
		cfg.InternalJWTIssuer = "gateway"
	}
	if cfg.InternalJWTAudience == "" {
		cfg.InternalJWTAudience = "api"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.GenerateRateLimitPerMinute < 0 || cfg.ChatRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.GenerateRateLimitPerMinute > 0 || cfg.ChatRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for rate limiting")
		}
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
