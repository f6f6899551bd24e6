package relay

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Sniff is what a single tokenizer pass saw in a relay body.
type Sniff struct {
	HTMLVersion string // empty when the body has no doctype
	Title       string
	Elements    int
}

// LooksLikeHTML reports whether the body contained a doctype or any element.
func (s Sniff) LooksLikeHTML() bool {
	return s.HTMLVersion != "" || s.Elements > 0
}

// Inspect tokenizes body once and records its doctype, title, and element
// count. EOF or a read error ends the pass and keeps what was seen so far.
func Inspect(body io.Reader) Sniff {
	var s Sniff

	z := html.NewTokenizer(body)
	var inTitle bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return s

		case html.DoctypeToken:
			s.HTMLVersion = detectHTMLVersion(z.Token())

		case html.StartTagToken, html.SelfClosingTagToken:
			s.Elements++
			tn, _ := z.TagName()
			if string(tn) == "title" {
				inTitle = true
			}

		case html.TextToken:
			if inTitle && s.Title == "" {
				s.Title = strings.TrimSpace(string(z.Text()))
				inTitle = false
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			if string(tn) == "title" {
				inTitle = false
			}
		}
	}
}

func detectHTMLVersion(token html.Token) string {
	// HTML5: Data = "html"
	// Legacy: Data = `HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "..."`
	data := strings.ToLower(token.Data)

	if !strings.Contains(data, "public") {
		return "HTML5"
	}

	switch {
	case strings.Contains(data, "xhtml 1.1") || strings.Contains(data, "xhtml basic 1.1"):
		return "XHTML 1.1"
	case strings.Contains(data, "xhtml 1.0"):
		return "XHTML 1.0"
	case strings.Contains(data, "html 4.01"):
		return "HTML 4.01"
	default:
		return "Unknown"
	}
}
