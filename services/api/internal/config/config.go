package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port               string   `yaml:"port"`
	LogLevel           string   `yaml:"logLevel"`
	Environment        string   `yaml:"environment"`
	DatabaseURL        string   `yaml:"databaseURL"`
	AllowedOrigins     []string `yaml:"allowedOrigins"`
	GenerationProvider string   `yaml:"generationProvider"`
	GenerationBaseURL  string   `yaml:"generationBaseURL"`
	GenerationModel    string   `yaml:"generationModel"`
	OpenAIAPIKey       string   `yaml:"openAIAPIKey"`
	OllamaBaseURL      string   `yaml:"ollamaBaseURL"`

	// Internal JWT verification for calls arriving from the gateway.
	// Optional; when the key path is empty the api accepts unauthenticated calls.
	InternalJWTPublicKeyPath string   `yaml:"internalJWTPublicKeyPath"`
	InternalJWTAudience      string   `yaml:"internalJWTAudience"`
	InternalJWTIssuers       []string `yaml:"internalJWTIssuers"`
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
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("GENERATION_PROVIDER"); v != "" {
		cfg.GenerationProvider = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "3001"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.GenerationProvider == "" {
		cfg.GenerationProvider = "openai"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gpt-4.1"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	switch cfg.GenerationProvider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown generationProvider %q (want openai or ollama)", cfg.GenerationProvider)
	}
	if cfg.InternalJWTPublicKeyPath != "" {
		if strings.TrimSpace(cfg.InternalJWTAudience) == "" {
			return errors.New("config: internalJWTAudience is required when internalJWTPublicKeyPath is set")
		}
		if len(cfg.InternalJWTIssuers) == 0 {
			return errors.New("config: internalJWTIssuers is required when internalJWTPublicKeyPath is set")
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
