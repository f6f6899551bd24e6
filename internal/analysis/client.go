package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Bahjat/source-sleuth/internal/model"
	"github.com/Bahjat/source-sleuth/internal/platform/errs"
	"google.golang.org/genai"
)

const (
	// MaxInputChars is the number of characters of HTML sent to the model.
	MaxInputChars = 200_000
	// TruncationMarker is appended to HTML cut at MaxInputChars.
	TruncationMarker = "...(truncated)"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemini-2.5-flash"

	failureMessage = "Failed to analyze the source code with AI."
)

var (
	// ErrMissingAPIKey is returned by New when no credential is configured.
	ErrMissingAPIKey = errors.New("analysis: Gemini API key is required")

	errEmptyResponse = errors.New("analysis service returned no text")
	errMissingField  = errors.New("analysis response is missing a required field")
)

// Generator is the part of the Gemini models API the Client depends on.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds what is needed to reach the analysis service.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for routing through a gateway
}

// Client requests structured page analyses from a hosted Gemini model.
type Client struct {
	models Generator
	model  string
	logger *slog.Logger
}

// New builds a Gemini-backed Client. It fails fast when the API key is empty.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewWithGenerator(gc.Models, cfg.Model, logger), nil
}

// NewWithGenerator returns a Client that sends requests through g.
func NewWithGenerator(g Generator, modelName string, logger *slog.Logger) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Client{
		models: g,
		model:  modelName,
		logger: logger.With("model", modelName),
	}
}

// Analyze sends html to the model in a single request and decodes the
// structured reply. Any failure yields an *errs.AppError of kind
// AnalysisFailed; no partial result is returned.
func (c *Client) Analyze(ctx context.Context, html string) (*model.SourceAnalysis, error) {
	input := Truncate(html)
	c.logger.Debug("requesting analysis",
		"input_chars", len(html),
		"truncated", len(input) != len(html),
	)

	resp, err := c.models.GenerateContent(ctx, c.model, buildPrompt(input), generateConfig())
	if err != nil {
		return nil, failure(err)
	}

	result, err := decode(responseText(resp))
	if err != nil {
		return nil, failure(err)
	}

	return result, nil
}

// Truncate cuts html to MaxInputChars characters and appends
// TruncationMarker. Shorter input is returned unchanged.
func Truncate(html string) string {
	if len(html) <= MaxInputChars {
		return html
	}

	n := 0
	for i := range html {
		if n == MaxInputChars {
			return html[:i] + TruncationMarker
		}
		n++
	}
	return html
}

func failure(cause error) error {
	return &errs.AppError{
		Kind:    errs.AnalysisFailed,
		Message: failureMessage,
		Cause:   cause,
	}
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// wireAnalysis distinguishes absent required fields from empty ones.
type wireAnalysis struct {
	Title           *string  `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	TechStack       []string `json:"techStack"`
	Summary         *string  `json:"summary"`
	SecurityHeaders []string `json:"securityHeaders"`
}

func decode(text string) (*model.SourceAnalysis, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, errEmptyResponse
	}

	var w wireAnalysis
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	switch {
	case w.Title == nil:
		return nil, fmt.Errorf("%w: title", errMissingField)
	case w.TechStack == nil:
		return nil, fmt.Errorf("%w: techStack", errMissingField)
	case w.Summary == nil:
		return nil, fmt.Errorf("%w: summary", errMissingField)
	}

	if w.SecurityHeaders == nil {
		w.SecurityHeaders = []string{}
	}

	return &model.SourceAnalysis{
		Title:           *w.Title,
		MetaDescription: w.MetaDescription,
		TechStack:       w.TechStack,
		Summary:         *w.Summary,
		SecurityHeaders: w.SecurityHeaders,
	}, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence, which models
// occasionally emit even in JSON mode.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
