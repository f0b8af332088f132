// Package main initializes and starts the BurnLink API server, setting up
// configuration, logging, the secret store, services, handlers, and TLS.
package main

import (
	"cmp"
	"context"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/BurnLink/internal/certgen"
	"github.com/atinyakov/BurnLink/internal/config"
	"github.com/atinyakov/BurnLink/internal/db"
	"github.com/atinyakov/BurnLink/internal/logger"
	"github.com/atinyakov/BurnLink/internal/middleware"
	"github.com/atinyakov/BurnLink/internal/repository"
	"github.com/atinyakov/BurnLink/internal/server/handler/http"
	"github.com/atinyakov/BurnLink/internal/service"
	"github.com/atinyakov/BurnLink/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	// Pick the secret store: Redis when configured, in-memory otherwise.
	var (
		repo    service.SecretRepository
		counter middleware.Counter
	)
	if options.RedisDSN != "" {
		redisClient, err := db.InitRedis(options.RedisDSN)
		if err != nil {
			zapLogger.Fatal("cannot init redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		repo = repository.NewRedisSecretRepository(redisClient)
		counter = middleware.NewRedisCounter(redisClient)
	} else {
		zapLogger.Warn("no redis configured, using in-memory store; secrets will not survive a restart")
		memRepo := repository.NewMemorySecretRepository()
		defer memRepo.Close()
		repo = memRepo
		counter = middleware.NewMemoryCounter()
	}

	// The token secret signs anti-forgery tokens. A generated secret works
	// but invalidates outstanding tokens on restart.
	secret := []byte(options.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			zapLogger.Fatal("cannot generate token secret", zap.Error(err))
		}
		zapLogger.Warn("no token secret configured, generated a random one")
	}
	tokenService := token.NewService(secret, time.Duration(options.TokenWindowMinutes)*time.Minute)

	// Initialize the lifecycle controller and HTTP handlers.
	lifecycle := service.NewLifecycleService(repo)
	secretsHandler := &http.SecretsHandler{Service: lifecycle, Tokens: tokenService}
	tokenHandler := &http.TokenHandler{Tokens: tokenService}

	// Build the router with middleware and routes.
	limit := middleware.WithRateLimit(options.RateLimitPerMinute, time.Minute, counter, zapLogger)
	router := http.NewRouter(secretsHandler, tokenHandler, zapLogger, limit)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	// Serve TLS when a certificate path is configured, generating a
	// self-signed pair for development if the files are missing.
	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		cert, err := certgen.LoadOrGenerate(options.TLSCert, options.TLSKey, []string{"localhost", "127.0.0.1"})
		if err != nil {
			zapLogger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", options.Addr), zap.Bool("tls", useTLS))
		if useTLS {
			errCh <- server.ListenAndServeTLS("", "")
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
		zapLogger.Info("server stopped")
	}
}
