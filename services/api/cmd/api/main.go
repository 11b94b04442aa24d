package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"customerpersona/internal/servicetoken"
	"customerpersona/internal/util"
	"customerpersona/services/api/internal/app"
	"customerpersona/services/api/internal/config"
	"customerpersona/services/api/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel, "api")

	var tokenVerifier *servicetoken.Verifier
	if cfg.InternalJWTPublicKeyPath != "" {
		tokenVerifier, err = servicetoken.NewVerifierWithOptions(servicetoken.VerifierOptions{
			PublicKeyPath:  cfg.InternalJWTPublicKeyPath,
			Audience:       cfg.InternalJWTAudience,
			AllowedIssuers: cfg.InternalJWTIssuers,
		})
		if err != nil {
			util.Fatal("failed to init service token verifier", "err", err)
		}
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:        cfg.DatabaseURL,
		Environment:        cfg.Environment,
		GenerationProvider: cfg.GenerationProvider,
		GenerationBaseURL:  cfg.GenerationBaseURL,
		GenerationModel:    cfg.GenerationModel,
		OpenAIAPIKey:       cfg.OpenAIAPIKey,
		OllamaBaseURL:      cfg.OllamaBaseURL,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		AllowedOrigins: cfg.AllowedOrigins,
		TokenVerifier:  tokenVerifier,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("api server listening", "addr", addr, "environment", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
