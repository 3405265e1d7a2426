package runtime

import (
	"context"
	"testing"
)

// The Runtime type is a simple data holder; this test ensures
// its fields can be set and read as expected.
type fakeLLM struct{}

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

func (f *fakeLLM) Chat(ctx context.Context, prompt string) (string, error) { return "", nil }

func TestRuntimeFields(t *testing.T) {
	rt := &Runtime{DefinitionsLoaded: true, Model: "moonshotai/kimi-k2-instruct", LLMClient: &fakeLLM{}}

	if !rt.DefinitionsLoaded {
		t.Fatalf("DefinitionsLoaded should be true")
	}
	if rt.Model == "" {
		t.Fatalf("Model should be set")
	}
	if err := rt.LLMClient.Ping(context.Background()); err != nil {
		t.Fatalf("Ping should succeed: %v", err)
	}
}
