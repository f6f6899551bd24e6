package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bahjat/source-sleuth/internal/analysis"
	"github.com/Bahjat/source-sleuth/internal/platform/config"
	"github.com/Bahjat/source-sleuth/internal/platform/logger"
	"github.com/Bahjat/source-sleuth/internal/platform/middleware"
	"github.com/Bahjat/source-sleuth/internal/relay"
	"github.com/Bahjat/source-sleuth/internal/sleuth"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	handler, err := newHandler(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("the server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newHandler wires the relay fetcher, the analysis client, and the transport.
// A missing Gemini key disables /analyze but keeps /fetch available.
func newHandler(ctx context.Context, cfg config.Config, log *slog.Logger) (http.Handler, error) {
	fetcher := relay.NewFetcher(relay.NewHTTPClient(), log)

	var analyzer sleuth.SourceAnalyzer
	client, err := analysis.New(ctx, analysis.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, log)
	switch {
	case errors.Is(err, analysis.ErrMissingAPIKey):
		log.Warn("GEMINI_API_KEY is not set, AI analysis is disabled")
	case err != nil:
		return nil, err
	default:
		analyzer = client
	}

	svc := sleuth.NewService(fetcher, analyzer, log)
	transport := sleuth.NewTransport(svc, log, cfg.RequestTimeout)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	return middleware.RequestID(middleware.Logging(log)(mux)), nil
}
