package sleuth

import (
	"context"

	"github.com/Bahjat/source-sleuth/internal/model"
)

// SourceFetcher retrieves a page's raw source. Failures are reported in the
// result, never as an error.
type SourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) model.FetchResult
}

// SourceAnalyzer produces a structured analysis of HTML source.
type SourceAnalyzer interface {
	Analyze(ctx context.Context, html string) (*model.SourceAnalysis, error)
}
