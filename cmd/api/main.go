package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/artmorph/api/internal/cache"
	"github.com/artmorph/api/internal/config"
	"github.com/artmorph/api/internal/database"
	"github.com/artmorph/api/internal/modules/account"
	"github.com/artmorph/api/internal/notification"
	"github.com/artmorph/api/internal/notification/templates"
	"github.com/artmorph/api/internal/ratelimit"
	"github.com/artmorph/api/internal/server"
	"github.com/artmorph/api/internal/token"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Use a structured logger
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Shared Services ---
		issuer := token.NewIssuer(token.Config{
			AccessSecret:  cfg.Token.AccessSecret,
			RefreshSecret: cfg.Token.RefreshSecret,
			AccessTTL:     time.Duration(cfg.Token.AccessTTLMinutes) * time.Minute,
			RefreshTTL:    time.Duration(cfg.Token.RefreshTTLDays) * 24 * time.Hour,
			TempTTL:       time.Duration(cfg.Token.TempTTLMinutes) * time.Minute,
		})
		limiter := ratelimit.NewRedisLimiter(
			redisClient,
			"verification",
			time.Duration(cfg.Verification.ResendCooldownSeconds)*time.Second,
		)
		smtpSender := notification.NewSMTPSender(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger,
		)
		mailer := notification.NewService(logger, smtpSender)
		engine := templates.NewEngine(templates.Config{}, logger)

		// --- Module Initialization (Bottom-Up) ---

		// Account Module
		accountRepo := account.NewRepository(dbPool)
		accountService := account.NewService(&account.Config{
			Repo:    accountRepo,
			Tokens:  issuer,
			Mail:    mailer,
			Tmpl:    engine,
			Limiter: limiter,
			Logger:  logger,
			Config:  cfg,
		})

		router := server.New(cfg, logger, accountService, issuer)
		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", options.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", options.Port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}
