package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
)

// GenerateRequest is the data rendered into the generation prompt template.
type GenerateRequest struct {
	Request      string
	Requirements string
}

// GenerateCode renders the generation prompt and asks the model for a Go
// program. The returned code has surrounding markdown fences removed.
func GenerateCode(ctx context.Context, client LLMClient, promptTpl string, req GenerateRequest) (string, error) {
	prompt, err := RenderPrompt(promptTpl, req)
	if err != nil {
		return "", fmt.Errorf("rendering generate prompt: %w", err)
	}

	raw, err := client.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}

	code := StripCodeFences(raw)
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("model returned empty code")
	}
	return code, nil
}

// RenderPrompt executes a text/template prompt against arbitrary data.
func RenderPrompt(tpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}

// StripCodeFences trims a single leading/trailing markdown code fence.
// Interior fences are left untouched.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	// drop opening fence line (``` or ```go)
	lines = lines[1:]
	// drop closing fence if present
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if trimmed == "```" {
			lines = lines[:i]
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
