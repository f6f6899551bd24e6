package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/Bahjat/source-sleuth/internal/model"
	"github.com/Bahjat/source-sleuth/internal/platform/requestid"
)

const exhaustedFormat = "Unable to fetch source. The site may be blocking access or all proxies are busy. (Last error: %s)"

var (
	errRelayStatus = errors.New("responded with status")
	errRelayEmpty  = errors.New("returned empty content")
)

// Fetcher retrieves a page through an ordered list of relay strategies.
type Fetcher struct {
	getter     Getter
	strategies []Strategy
	logger     *slog.Logger
}

// NewFetcher returns a Fetcher that issues relay requests through getter.
// When no strategies are given, DefaultStrategies is used.
func NewFetcher(getter Getter, logger *slog.Logger, strategies ...Strategy) *Fetcher {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Fetcher{
		getter:     getter,
		strategies: slices.Clone(strategies),
		logger:     logger,
	}
}

// Strategies returns a copy of the relays in the order they are tried.
func (f *Fetcher) Strategies() []Strategy {
	return slices.Clone(f.strategies)
}

// Fetch normalizes rawURL and tries each relay in order until one returns a
// 2xx status with a non-blank body. It never returns an error: exhaustion is
// reported through the result's Success and Error fields.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.FetchResult {
	target := NormalizeURL(rawURL)
	logger := f.logger.With("url", target, "request_id", requestid.FromContext(ctx))

	var lastErr error
	for _, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		content, err := f.attempt(ctx, s, target)
		if err != nil {
			logger.Warn("relay attempt failed", "relay", s.Name, "error", err)
			lastErr = err
			continue
		}

		sniff := Inspect(strings.NewReader(content))
		if !sniff.LooksLikeHTML() {
			// Accepted anyway: a relay's own error page is indistinguishable
			// from a non-HTML target.
			logger.Warn("relay body does not look like HTML", "relay", s.Name, "bytes", len(content))
		}
		logger.Debug("relay attempt succeeded",
			"relay", s.Name,
			"bytes", len(content),
			"title", sniff.Title,
			"html_version", sniff.HTMLVersion,
		)

		return model.FetchResult{
			URL:     target,
			Content: content,
			Success: true,
			Relay:   s.Name,
		}
	}

	msg := "Unknown"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	logger.Error("all relays failed", "attempts", len(f.strategies), "error", lastErr)

	return model.FetchResult{
		URL:   target,
		Error: fmt.Sprintf(exhaustedFormat, msg),
	}
}

func (f *Fetcher) attempt(ctx context.Context, s Strategy, target string) (string, error) {
	body, status, err := f.getter.Get(ctx, s.BuildURL(target))
	if err != nil {
		return "", fmt.Errorf("proxy %s: %w", s.Name, err)
	}
	defer func() { _ = body.Close() }()

	if status < 200 || status > 299 {
		return "", fmt.Errorf("proxy %s %w: %d", s.Name, errRelayStatus, status)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("proxy %s: reading body: %w", s.Name, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("proxy %s %w", s.Name, errRelayEmpty)
	}

	return string(data), nil
}
