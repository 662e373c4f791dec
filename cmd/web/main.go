package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booknotes/internal/app"
	"booknotes/internal/book"
	"booknotes/internal/config"
	"booknotes/internal/httpx"
	"booknotes/internal/logging"
	"booknotes/internal/server"
	"booknotes/internal/web"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, flush := logging.Setup(cfg.IsProduction(), cfg.LogLevel, os.Stdout)
	defer func() { _ = flush() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connection OK", zap.Int32("max_conns", cfg.Database.MaxConns))

	covers, closeCovers, err := app.NewCoverResolver(ctx, cfg, logger.Named("cover"))
	if err != nil {
		return err
	}
	defer closeCovers()
	if cfg.Redis.Addr != "" {
		logger.Info("cover cache enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	service, repo := app.NewBookService(pool, covers, cfg, logger)
	handler := book.NewHTTPHandler(service, web.MustNewRenderer(), logger.Named("http"))

	router := server.NewRouter(server.Options{
		Logger:       logger,
		Books:        handler,
		DB:           repo,
		RateLimit:    httpx.NewRateLimitMiddleware(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		EnableHSTS:   cfg.IsProduction(),
		StartedAt:    startedAt,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
