package sleuth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/source-sleuth/internal/model"
	"github.com/Bahjat/source-sleuth/internal/platform/errs"
	"github.com/Bahjat/source-sleuth/internal/platform/requestid"
)

var errAnalyzerUnavailable = errors.New("analysis service is not configured")

// Service composes a SourceFetcher and a SourceAnalyzer and logs outcomes.
// The two never call each other; the caller passes fetched content forward.
type Service struct {
	fetcher  SourceFetcher
	analyzer SourceAnalyzer
	logger   *slog.Logger
}

// NewService creates a Service. analyzer may be nil, in which case Analyze
// always fails with errs.AnalysisFailed.
func NewService(fetcher SourceFetcher, analyzer SourceAnalyzer, logger *slog.Logger) *Service {
	return &Service{fetcher: fetcher, analyzer: analyzer, logger: logger}
}

// Fetch delegates to the fetcher and logs the outcome.
func (s *Service) Fetch(ctx context.Context, rawURL string) model.FetchResult {
	result := s.fetcher.Fetch(ctx, rawURL)

	logger := s.logger.With("url", result.URL, "request_id", requestid.FromContext(ctx))
	if !result.Success {
		logger.Error("fetch failed", "error", result.Error)
		return result
	}

	logger.Info("fetch complete", "relay", result.Relay, "bytes", len(result.Content))
	return result
}

// Analyze delegates to the analyzer and logs the outcome.
func (s *Service) Analyze(ctx context.Context, html string) (*model.SourceAnalysis, error) {
	logger := s.logger.With("input_chars", len(html), "request_id", requestid.FromContext(ctx))

	if s.analyzer == nil {
		err := &errs.AppError{
			Kind:    errs.AnalysisFailed,
			Message: "AI analysis is not available on this server.",
			Cause:   errAnalyzerUnavailable,
		}
		logger.Error("analysis failed", "error", err)
		return nil, err
	}

	result, err := s.analyzer.Analyze(ctx, html)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Analysis timed out. The page may be too large to analyze.",
				Cause:   err,
			}
		}
		logger.Error("analysis failed", "error", err)
		return nil, err
	}

	logger.Info("analysis complete",
		"title", result.Title,
		"tech_stack", len(result.TechStack),
		"security_headers", len(result.SecurityHeaders),
	)
	return result, nil
}
