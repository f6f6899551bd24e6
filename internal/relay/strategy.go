package relay

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Strategy is one relay endpoint template paired with a label for diagnostics.
type Strategy struct {
	Name     string
	BuildURL func(target string) string
}

// DefaultStrategies returns the built-in relays in the order they are tried.
func DefaultStrategies() []Strategy {
	return defaultStrategies(time.Now)
}

func defaultStrategies(now func() time.Time) []Strategy {
	return []Strategy{
		{
			Name: "CorsProxy.io",
			BuildURL: func(target string) string {
				return "https://corsproxy.io/?" + EncodeComponent(target)
			},
		},
		{
			// The timestamp defeats the relay's own response cache.
			Name: "AllOrigins",
			BuildURL: func(target string) string {
				return "https://api.allorigins.win/raw?url=" + EncodeComponent(target) +
					"&timestamp=" + strconv.FormatInt(now().UnixMilli(), 10)
			},
		},
		{
			Name: "CodeTabs",
			BuildURL: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + EncodeComponent(target)
			},
		},
	}
}

// EncodeComponent percent-encodes s so it can be embedded as a single query
// value. Spaces become %20 rather than '+'.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// NormalizeURL trims whitespace and prepends https:// unless the input
// already carries an http or https scheme (case-insensitive).
func NormalizeURL(raw string) string {
	target := strings.TrimSpace(raw)
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return target
	}
	return "https://" + target
}
