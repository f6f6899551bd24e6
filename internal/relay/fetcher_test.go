package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/Bahjat/source-sleuth/internal/model"
)

var errConnectionRefused = errors.New("connection refused")

// response is a canned relay reply.
type response struct {
	body       string
	statusCode int
	err        error
}

// mockGetter implements Getter, replying by relay host and recording calls.
type mockGetter struct {
	responses map[string]response
	calls     []string
}

func (m *mockGetter) Get(_ context.Context, relayURL string) (io.ReadCloser, int, error) {
	m.calls = append(m.calls, relayURL)

	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, 0, err
	}
	resp, ok := m.responses[u.Host]
	if !ok {
		return nil, 0, errConnectionRefused
	}
	if resp.err != nil {
		return nil, 0, resp.err
	}
	return io.NopCloser(strings.NewReader(resp.body)), resp.statusCode, nil
}

// testStrategies mirrors the shape of the built-in relays on fake hosts.
func testStrategies() []Strategy {
	build := func(host string) func(string) string {
		return func(target string) string {
			return "https://" + host + "/raw?url=" + EncodeComponent(target)
		}
	}
	return []Strategy{
		{Name: "first", BuildURL: build("first.relay.test")},
		{Name: "second", BuildURL: build("second.relay.test")},
		{Name: "third", BuildURL: build("third.relay.test")},
	}
}

func newTestFetcher(g Getter) *Fetcher {
	return NewFetcher(g, slog.New(slog.DiscardHandler), testStrategies()...)
}

// embeddedTarget recovers the target URL a relay request was built for.
func embeddedTarget(t *testing.T, relayURL string) string {
	t.Helper()
	u, err := url.Parse(relayURL)
	if err != nil {
		t.Fatalf("relay URL %q does not parse: %v", relayURL, err)
	}
	return u.Query().Get("url")
}

func TestFetch_FirstRelaySucceeds(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test":  {body: "<html><title>One</title></html>", statusCode: 200},
		"second.relay.test": {body: "<html>two</html>", statusCode: 200},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "https://example.com")

	if !result.Success {
		t.Fatalf("Success = false, error = %q", result.Error)
	}
	if result.Content != "<html><title>One</title></html>" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Relay != "first" {
		t.Errorf("Relay = %q, want %q", result.Relay, "first")
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
	if len(g.calls) != 1 {
		t.Errorf("relay calls = %d, want 1: %v", len(g.calls), g.calls)
	}
}

func TestFetch_FallsThroughOnServerError(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test":  {body: "internal error", statusCode: 500},
		"second.relay.test": {body: "<!DOCTYPE html><html>two</html>", statusCode: 200},
		"third.relay.test":  {body: "<html>three</html>", statusCode: 200},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "example.com")

	want := model.FetchResult{
		URL:     "https://example.com",
		Content: "<!DOCTYPE html><html>two</html>",
		Success: true,
		Relay:   "second",
	}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}
	if len(g.calls) != 2 {
		t.Errorf("relay calls = %d, want 2", len(g.calls))
	}
}

func TestFetch_FallsThroughOnTransportError(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test":  {err: errConnectionRefused},
		"second.relay.test": {body: "   \n\t", statusCode: 200},
		"third.relay.test":  {body: "<html>three</html>", statusCode: 200},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "example.com")

	if !result.Success || result.Relay != "third" {
		t.Fatalf("result = %+v, want success from third relay", result)
	}
}

func TestFetch_AllRelaysFail(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test":  {body: "", statusCode: 200},
		"second.relay.test": {body: "forbidden", statusCode: 403},
		"third.relay.test":  {body: "  ", statusCode: 200},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "example.com")

	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if result.Content != "" {
		t.Errorf("Content = %q, want empty", result.Content)
	}
	if result.URL != "https://example.com" {
		t.Errorf("URL = %q, want %q", result.URL, "https://example.com")
	}
	if !strings.HasPrefix(result.Error, "Unable to fetch source.") {
		t.Errorf("Error = %q, want exhaustion message", result.Error)
	}
	if !strings.Contains(result.Error, "proxy third returned empty content") {
		t.Errorf("Error = %q, want it to mention the last failure", result.Error)
	}
	if len(g.calls) != 3 {
		t.Errorf("relay calls = %d, want 3", len(g.calls))
	}
}

func TestFetch_LastErrorIsStatus(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test":  {body: "", statusCode: 200},
		"second.relay.test": {body: "", statusCode: 200},
		"third.relay.test":  {body: "busy", statusCode: 503},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "example.com")

	if !strings.Contains(result.Error, "(Last error: proxy third responded with status: 503)") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestFetch_NoStrategiesReachable(t *testing.T) {
	result := newTestFetcher(&mockGetter{}).Fetch(context.Background(), "example.com")

	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if !strings.Contains(result.Error, errConnectionRefused.Error()) {
		t.Errorf("Error = %q, want it to mention %q", result.Error, errConnectionRefused)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test": {body: "<html></html>", statusCode: 200},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestFetcher(g).Fetch(ctx, "example.com")

	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if len(g.calls) != 0 {
		t.Errorf("relay calls = %d, want 0", len(g.calls))
	}
	if !strings.Contains(result.Error, context.Canceled.Error()) {
		t.Errorf("Error = %q, want it to mention context cancellation", result.Error)
	}
}

func TestFetch_NormalizesTargetForEveryAttempt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare host", raw: "example.com", want: "https://example.com"},
		{name: "surrounding whitespace", raw: "  example.com/path \n", want: "https://example.com/path"},
		{name: "https kept", raw: "https://example.com", want: "https://example.com"},
		{name: "http kept", raw: "http://example.com", want: "http://example.com"},
		{name: "uppercase scheme kept", raw: "HTTPS://Example.com", want: "HTTPS://Example.com"},
		{name: "other scheme prefixed", raw: "ftp://example.com", want: "https://ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &mockGetter{responses: map[string]response{}}

			result := newTestFetcher(g).Fetch(context.Background(), tt.raw)

			if result.URL != tt.want {
				t.Errorf("URL = %q, want %q", result.URL, tt.want)
			}
			if len(g.calls) != 3 {
				t.Fatalf("relay calls = %d, want 3", len(g.calls))
			}
			for _, call := range g.calls {
				if got := embeddedTarget(t, call); got != tt.want {
					t.Errorf("relay target = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestFetch_QueryParametersStayEncoded(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test": {body: "<html></html>", statusCode: 200},
	}}
	const target = "https://example.com/search?q=go lang&page=2#top"

	newTestFetcher(g).Fetch(context.Background(), target)

	if len(g.calls) != 1 {
		t.Fatalf("relay calls = %d, want 1", len(g.calls))
	}
	want := "https://first.relay.test/raw?url=https%3A%2F%2Fexample.com%2Fsearch%3Fq%3Dgo%20lang%26page%3D2%23top"
	if g.calls[0] != want {
		t.Errorf("relay URL = %q, want %q", g.calls[0], want)
	}
	if got := embeddedTarget(t, g.calls[0]); got != target {
		t.Errorf("round-tripped target = %q, want %q", got, target)
	}
}

func TestFetch_NonHTMLBodyIsStillSuccess(t *testing.T) {
	g := &mockGetter{responses: map[string]response{
		"first.relay.test": {body: `{"error":"upstream timeout"}`, statusCode: 200},
	}}

	result := newTestFetcher(g).Fetch(context.Background(), "example.com")

	if !result.Success || result.Content != `{"error":"upstream timeout"}` {
		t.Errorf("result = %+v, want success with the JSON body", result)
	}
}

func TestNewFetcher_DefaultsToBuiltInStrategies(t *testing.T) {
	f := NewFetcher(&mockGetter{}, slog.New(slog.DiscardHandler))

	var names []string
	for _, s := range f.Strategies() {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "CorsProxy.io,AllOrigins,CodeTabs" {
		t.Errorf("strategies = %s", got)
	}
}
