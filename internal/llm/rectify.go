package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RectifyRequest is the data rendered into the rectification prompt template.
type RectifyRequest struct {
	Code      string
	Error     string
	ErrorType string
	ErrorLine string
}

// RectifyResult is the model's answer to a rectification request.
type RectifyResult struct {
	Success    bool     `json:"success"`
	Code       string   `json:"code"`
	Changes    []string `json:"changes"`
	Confidence float64  `json:"confidence"`
}

var goFenceRe = regexp.MustCompile("(?s)```go\\n(.*?)\\n```")

// RectifyCode asks the model to repair broken code. The model is instructed
// to answer in JSON; when it ignores that contract we fall back to extracting
// the first fenced Go block.
func RectifyCode(ctx context.Context, client LLMClient, promptTpl string, req RectifyRequest) (*RectifyResult, error) {
	prompt, err := RenderPrompt(promptTpl, req)
	if err != nil {
		return nil, fmt.Errorf("rendering rectify prompt: %w", err)
	}

	raw, err := client.Chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	clean := SanitizeJSONOutput(raw)

	var out RectifyResult
	if err := json.Unmarshal([]byte(clean), &out); err == nil && out.Code != "" {
		out.Code = StripCodeFences(out.Code)
		return &out, nil
	}

	// Not JSON: salvage a fenced code block if the model answered in markdown.
	if m := goFenceRe.FindStringSubmatch(raw); m != nil {
		return &RectifyResult{
			Success:    true,
			Code:       strings.TrimSpace(m[1]),
			Changes:    []string{"AI-generated fixes applied"},
			Confidence: 0.7,
		}, nil
	}

	return nil, fmt.Errorf("rectify: unparseable model output; raw=%s", raw)
}

var firstJSONObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// SanitizeJSONOutput cleans common model output quirks before JSON parsing:
// fence blocks, leading prose, curly quotes.
func SanitizeJSONOutput(s string) string {
	s = strings.TrimSpace(s)

	// remove a surrounding ```xxx ... ``` block
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) > 1 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	// take the first JSON object
	if match := firstJSONObjectRe.FindString(s); match != "" {
		s = match
	}

	// replace curly quotes with plain ones
	s = strings.ReplaceAll(s, "“", "\"")
	s = strings.ReplaceAll(s, "”", "\"")
	s = strings.ReplaceAll(s, "‘", "'")
	s = strings.ReplaceAll(s, "’", "'")

	return strings.TrimSpace(s)
}
