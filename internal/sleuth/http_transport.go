package sleuth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Bahjat/source-sleuth/internal/model"
	"github.com/Bahjat/source-sleuth/internal/platform/errs"
)

const (
	maxFetchRequestBody   = 1 << 20  // 1 MB
	maxAnalyzeRequestBody = 16 << 20 // 16 MB, fetched pages can be large
)

var (
	errURLRequired  = errors.New("the \"url\" field is required")
	errHTMLRequired = errors.New("the \"html\" field is required")
)

// Transport handles HTTP requests for fetching and analyzing page source.
type Transport struct {
	service *Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewTransport creates an HTTP transport backed by the given service. Each
// request runs under the given timeout.
func NewTransport(service *Service, logger *slog.Logger, timeout time.Duration) *Transport {
	return &Transport{service: service, logger: logger, timeout: timeout}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /fetch", t.handleFetch)
	mux.HandleFunc("POST /analyze", t.handleAnalyze)
	mux.HandleFunc("GET /healthz", t.handleHealth)
}

type fetchRequest struct {
	URL string `json:"url"`
}

func (r fetchRequest) validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errURLRequired
	}
	return nil
}

type analyzeRequest struct {
	HTML string `json:"html"`
}

func (r analyzeRequest) validate() error {
	if strings.TrimSpace(r.HTML) == "" {
		return errHTMLRequired
	}
	return nil
}

func (t *Transport) handleFetch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFetchRequestBody)

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.timeout)
	defer cancel()

	result := t.service.Fetch(ctx, req.URL)
	if !result.Success {
		t.renderJSON(w, http.StatusBadGateway, result)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeRequestBody)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			t.renderError(w, http.StatusRequestEntityTooLarge, "The submitted HTML is too large.")
			return
		}
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with an \"html\" field.")
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.timeout)
	defer cancel()

	result, err := t.service.Analyze(ctx, req.HTML)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unreachable, errs.AnalysisFailed:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
