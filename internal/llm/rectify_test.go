package llm

import (
	"context"
	"testing"
)

func TestRectifyCode_JSONAnswer(t *testing.T) {
	fc := &fakeClient{reply: `{"success": true, "code": "package main\n\nfunc main() {}", "changes": ["added package clause"], "confidence": 0.9}`}

	out, err := RectifyCode(context.Background(), fc, "fix: {{ .Error }}", RectifyRequest{Error: "expected 'package'"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success || out.Confidence != 0.9 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(out.Changes) != 1 || out.Changes[0] != "added package clause" {
		t.Fatalf("unexpected changes: %+v", out.Changes)
	}
}

func TestRectifyCode_JSONWrappedInFences(t *testing.T) {
	fc := &fakeClient{reply: "```json\n{\"success\": true, \"code\": \"package main\", \"changes\": [], \"confidence\": 0.8}\n```"}

	out, err := RectifyCode(context.Background(), fc, "x", RectifyRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Code != "package main" || out.Confidence != 0.8 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestRectifyCode_MarkdownFallback(t *testing.T) {
	fc := &fakeClient{reply: "Here is the fixed program:\n\n```go\npackage main\n\nfunc main() {}\n```\n\nHope that helps."}

	out, err := RectifyCode(context.Background(), fc, "x", RectifyRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Code != "package main\n\nfunc main() {}" {
		t.Fatalf("unexpected code: %q", out.Code)
	}
	if out.Confidence != 0.7 {
		t.Fatalf("fallback confidence should be 0.7, got %v", out.Confidence)
	}
}

func TestRectifyCode_Unparseable(t *testing.T) {
	fc := &fakeClient{reply: "I cannot help with that."}
	if _, err := RectifyCode(context.Background(), fc, "x", RectifyRequest{}); err == nil {
		t.Fatalf("expected error on unparseable output")
	}
}

func TestSanitizeJSONOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"leading prose", `Sure thing: {"a":1}`, `{"a":1}`},
		{"curly quotes", `{“a”:1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeJSONOutput(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
