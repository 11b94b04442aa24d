package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"customerpersona/internal/ratelimit"
	"customerpersona/internal/servicetoken"
	"customerpersona/internal/util"
	"customerpersona/services/gateway/internal/apiclient"
	"customerpersona/services/gateway/internal/config"
	"customerpersona/services/gateway/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel, "gateway")

	var signer *servicetoken.Signer
	if cfg.InternalJWTPrivateKeyPath != "" {
		signer, err = servicetoken.NewSignerWithOptions(servicetoken.SignerOptions{
			PrivateKeyPath: cfg.InternalJWTPrivateKeyPath,
			Issuer:         cfg.InternalJWTIssuer,
		})
		if err != nil {
			util.Fatal("failed to init service token signer", "err", err)
		}
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		util.Fatal("failed to parse trusted proxy cidrs", "err", err)
	}

	var generateLimiter, chatLimiter *ratelimit.FixedWindowLimiter
	if cfg.GenerateRateLimitPerMinute > 0 {
		generateLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "persona:ratelimit:generate", cfg.GenerateRateLimitPerMinute, time.Minute)
		if err != nil {
			util.Fatal("failed to init generate rate limiter", "err", err)
		}
	}
	if cfg.ChatRateLimitPerMinute > 0 {
		chatLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "persona:ratelimit:chat", cfg.ChatRateLimitPerMinute, time.Minute)
		if err != nil {
			util.Fatal("failed to init chat rate limiter", "err", err)
		}
	}

	httpServer := server.New(server.Config{
		API:             apiclient.NewClient(cfg.APIBaseURL, signer, cfg.InternalJWTAudience),
		AllowedOrigins:  cfg.AllowedOrigins,
		TrustedProxies:  trustedProxies,
		GenerateLimiter: generateLimiter,
		ChatLimiter:     chatLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("gateway listening", "addr", addr, "api", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
