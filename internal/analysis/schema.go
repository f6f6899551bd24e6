package analysis

import "google.golang.org/genai"

const (
	systemInstruction = "You are a helpful and precise web crawler assistant. Extract information accurately from the provided HTML."
	promptPreamble    = "You are a web expert. Analyze the following HTML source code and extract key details.\n\nHTML Content:\n"
)

// requiredFields must be present in every response.
var requiredFields = []string{"title", "techStack", "summary"}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "The title of the webpage found in the <title> tag.",
			},
			"metaDescription": {
				Type:        genai.TypeString,
				Description: "The content of the meta description tag.",
			},
			"techStack": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "List of frameworks, libraries, or tools detected (e.g., React, Tailwind, Bootstrap, WordPress).",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A concise summary of what the page appears to be about based on its content.",
			},
			"securityHeaders": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Any interesting security related meta tags or headers observed (e.g., CSP).",
			},
		},
		Required:         requiredFields,
		PropertyOrdering: []string{"title", "metaDescription", "techStack", "summary", "securityHeaders"},
	}
}

func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}
}

func buildPrompt(html string) []*genai.Content {
	return genai.Text(promptPreamble + html)
}
