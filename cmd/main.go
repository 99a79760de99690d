package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/auth"
	"account_service/internal/config"
	"account_service/internal/http_server/handlers/login"
	"account_service/internal/http_server/handlers/logout"
	"account_service/internal/http_server/handlers/me"
	"account_service/internal/http_server/handlers/refresh"
	"account_service/internal/http_server/handlers/resendcode"
	"account_service/internal/http_server/handlers/signup"
	"account_service/internal/http_server/handlers/verifycode"
	rateLimit "account_service/internal/middleware/ratelimit"
	"account_service/internal/rabbitmq"
	"account_service/internal/storage/postgres"
	redisstore "account_service/internal/storage/redis"
	"account_service/internal/verification"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting account service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	recordStore, closeStore, err := setupRecordStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init verification store", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	verifier := verification.New(
		log,
		recordStore,
		cfg.Verification.CodeTTL,
		cfg.Verification.ResendCooldown,
		cfg.Verification.MaxAttempts,
	)

	authService := auth.New(
		log,
		storage,
		storage,
		verifier,
		cfg.Tokens.AccessTokenSecret,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
	)

	router := setupRouter(log, authService, msgBroker, cfg)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

// setupRecordStore picks Redis when configured, otherwise the in-process map.
func setupRecordStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (verification.RecordStore, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("using in-memory verification store")
		return verification.NewMemoryStore(), func() {}, nil
	}

	store, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}

	log.Info("using redis verification store", slog.String("addr", cfg.Redis.Addr))

	return store, store.Close, nil
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	msgBroker *rabbitmq.RabbitMQClient,
	cfg *config.Config,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.With(rateLimit.Signup()).Post("/signup",
		signup.New(log, validate, authService, msgBroker),
	)
	r.With(rateLimit.VerifyCode()).Post("/verify-code",
		verifycode.New(log, validate, authService, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL),
	)
	r.With(rateLimit.ResendCode()).Post("/resend-code",
		resendcode.New(log, validate, authService, msgBroker),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL),
	)
	r.With(rateLimit.Refresh()).Post("/refresh-token",
		refresh.New(log, authService, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL),
	)
	r.With(rateLimit.Logout()).Post("/logout",
		logout.New(log, authService),
	)
	r.Get("/me",
		me.New(log, authService),
	)

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
