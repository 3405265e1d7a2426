package llm

import (
	"context"
	"errors"
	"testing"
)

// fakeClient returns canned Chat responses for prompt-level tests.
type fakeClient struct {
	reply string
	err   error
	seen  string
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Chat(ctx context.Context, prompt string) (string, error) {
	f.seen = prompt
	return f.reply, f.err
}

func TestRenderPrompt(t *testing.T) {
	out, err := RenderPrompt("make {{ .Request }} with {{ .Requirements }}", GenerateRequest{
		Request:      "a calculator",
		Requirements: "no deps",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "make a calculator with no deps" {
		t.Fatalf("unexpected render: %q", out)
	}
}

func TestRenderPrompt_BadTemplate(t *testing.T) {
	if _, err := RenderPrompt("{{ .Request ", GenerateRequest{}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGenerateCode_StripsFences(t *testing.T) {
	fc := &fakeClient{reply: "```go\npackage main\n\nfunc main() {}\n```"}
	code, err := GenerateCode(context.Background(), fc, "write: {{ .Request }}", GenerateRequest{Request: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "package main\n\nfunc main() {}" {
		t.Fatalf("unexpected code: %q", code)
	}
	if fc.seen != "write: hello" {
		t.Fatalf("prompt was not rendered: %q", fc.seen)
	}
}

func TestGenerateCode_EmptyReply(t *testing.T) {
	fc := &fakeClient{reply: "```go\n\n```"}
	if _, err := GenerateCode(context.Background(), fc, "x", GenerateRequest{}); err == nil {
		t.Fatalf("expected error on empty code")
	}
}

func TestGenerateCode_ChatError(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	if _, err := GenerateCode(context.Background(), fc, "x", GenerateRequest{}); err == nil {
		t.Fatalf("expected chat error to propagate")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "package main", "package main"},
		{"go fence", "```go\npackage main\n```", "package main"},
		{"bare fence", "```\npackage main\n```", "package main"},
		{"no closing fence", "```go\npackage main", "package main"},
		{"interior fence kept", "```go\ns := \"```\"\n```", "s := \"```\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFences(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
