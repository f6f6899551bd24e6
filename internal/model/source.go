package model

// FetchResult is the outcome of a single relay fetch.
type FetchResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Relay   string `json:"relay,omitempty"`
}

// SourceAnalysis is the structured description of a page produced by the
// analysis service.
type SourceAnalysis struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	TechStack       []string `json:"techStack"`
	Summary         string   `json:"summary"`
	SecurityHeaders []string `json:"securityHeaders"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
