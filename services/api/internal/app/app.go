package app

import (
	"fmt"
	"strings"

	"customerpersona/pkg/ai"
	"customerpersona/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Environment string

	GenerationProvider string
	GenerationBaseURL  string
	GenerationModel    string
	OpenAIAPIKey       string
	OllamaBaseURL      string

	// Generator overrides provider selection, used by tests.
	Generator ai.TextGenerator
}

// App is the core application service wiring storage, persona
// generation, and chat together.
type App struct {
	store     store.Store
	generator ai.TextGenerator

	// aiConfigured reports whether a usable generation credential was
	// supplied. When false the app never calls the provider and serves
	// deterministic fallback content instead.
	aiConfigured bool
}

// New constructs the application with database-backed storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		env := strings.ToLower(strings.TrimSpace(cfg.Environment))
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL,
			store.WithAutoMigrate(env != "production"),
			store.WithSQLLogging(env == "development"),
		)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	a := &App{store: dataStore}
	if cfg.Generator != nil {
		a.generator = cfg.Generator
		a.aiConfigured = true
		return a, nil
	}

	model := cfg.GenerationModel
	if model == "" {
		model = "gpt-4.1"
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	if provider == "" {
		provider = "openai"
	}
	switch provider {
	case "openai":
		a.generator = ai.NewOpenAICompatGenerator(cfg.GenerationBaseURL, cfg.OpenAIAPIKey, model)
		a.aiConfigured = strings.TrimSpace(cfg.OpenAIAPIKey) != ""
	case "ollama":
		a.generator = ai.NewOllamaGenerator(ai.NewOllamaClient(cfg.OllamaBaseURL), model)
		a.aiConfigured = true
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", provider)
	}
	return a, nil
}
