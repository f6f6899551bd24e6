package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Bahjat/source-sleuth/internal/analysis"
	"github.com/Bahjat/source-sleuth/internal/platform/config"
	"github.com/Bahjat/source-sleuth/internal/platform/logger"
	"github.com/Bahjat/source-sleuth/internal/relay"
	"github.com/Bahjat/source-sleuth/internal/sleuth"
	"github.com/spf13/cobra"
)

// app holds the constructors the commands use, so tests can swap them.
type app struct {
	newFetcher  func(log *slog.Logger) sleuth.SourceFetcher
	newAnalyzer func(ctx context.Context, log *slog.Logger) (sleuth.SourceAnalyzer, error)
}

func defaultApp() *app {
	return &app{
		newFetcher: func(log *slog.Logger) sleuth.SourceFetcher {
			return relay.NewFetcher(relay.NewHTTPClient(), log)
		},
		newAnalyzer: func(ctx context.Context, log *slog.Logger) (sleuth.SourceAnalyzer, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return analysis.New(ctx, analysis.Config{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
			}, log)
		},
	}
}

// NewRootCmd creates the root command for sleuth.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sleuth",
		Short: "Fetch raw page source through relays and analyze it with AI",
		Long: `sleuth retrieves the raw HTML of a URL through a chain of public relay
services, trying each in turn until one returns content. The source can then
be sent to a Gemini model for a structural analysis (title, tech stack,
summary, security headers).

The analyze command needs GEMINI_API_KEY in the environment.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-level", "ERROR", "Log level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().Duration("timeout", 60*time.Second, "Overall timeout for the command")

	cmd.AddCommand(newFetchCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// commandLogger builds a stderr logger from the --log-level flag.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(level, cmd.ErrOrStderr())
}

// commandContext derives a context bounded by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
