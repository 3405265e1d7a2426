package agent

import (
	"context"
	"time"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
)

// Submit registers a new task and kicks the workflow off at the generator.
// Returns the task id. Shared by the HTTP API and the CLI.
func Submit(b *bus.Bus, prompt, requirements string, ttl time.Duration) string {
	id := randomID()
	st := &State{
		ID:           id,
		Prompt:       prompt,
		Requirements: requirements,
	}
	_ = NewTaskContext(context.Background(), id, ttl)

	b.Send(TargetGenerator, bus.Message{
		Type: "generate",
		Payload: map[string]any{
			"state": st,
		},
	})
	return id
}
