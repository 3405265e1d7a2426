package agent

import (
	"context"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/config"
	"github.com/ccastromar/cgs-code-generation-system/internal/llm"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/metrics"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// Generator asks the model for a first version of the program.
type Generator struct {
	bus         *bus.Bus
	cfg         *config.Config
	inbox       chan bus.Message
	llmClient   llm.LLMClient
	uiStore     *ui.UIStore
	maxAttempts int
}

func NewGenerator(b *bus.Bus, cfg *config.Config, llmClient llm.LLMClient, uiStore *ui.UIStore, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Generator{
		bus:         b,
		cfg:         cfg,
		inbox:       make(chan bus.Message, 16),
		llmClient:   llmClient,
		uiStore:     uiStore,
		maxAttempts: maxAttempts,
	}
}

func (g *Generator) Inbox() chan bus.Message {
	return g.inbox
}

func (g *Generator) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Generator", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-g.inbox:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Error("Generator", "panic recovered in dispatch: %v", r)
					}
				}()
				g.dispatch(msg)
			}()

		case <-ctx.Done():
			return nil
		}
	}
}

func (g *Generator) dispatch(msg bus.Message) {
	switch msg.Type {
	case "generate":
		g.handleGenerate(msg)
	default:
		logx.Warn("Generator", "unknown message: %#v", msg)
	}
}

func (g *Generator) handleGenerate(msg bus.Message) {
	st, ok := stateFrom(msg.Payload)
	if !ok {
		logx.Error("Generator", "message without state: %#v", msg)
		return
	}

	st.GenAttempts++
	logx.L(st.ID, "Generator", "generation attempt %d/%d prompt='%s'",
		st.GenAttempts, g.maxAttempts, st.Prompt)
	g.uiStore.AddEvent(st.ID, "Generator", "generate",
		st.Prompt, "")

	tpl, err := g.cfg.Prompt("generate")
	if err != nil {
		g.fail(st, "generation prompt missing: "+err.Error())
		return
	}

	timer := logx.Start(st.ID, "Generator", "GenerateLLM")
	code, err := llm.GenerateCode(taskContext(st.ID), g.llmClient, tpl.Template, llm.GenerateRequest{
		Request:      st.Prompt,
		Requirements: st.Requirements,
	})
	timer.End()

	if err != nil {
		metrics.Generations.Inc(map[string]string{"outcome": "error"})
		logx.Error("Generator", "id=%s generation failed: %v", st.ID, err)
		g.fail(st, "code generation failed: "+err.Error())
		return
	}

	metrics.Generations.Inc(map[string]string{"outcome": "ok"})

	// A regeneration replaces any previous rectification.
	st.GeneratedCode = code
	st.RectifiedCode = ""

	g.bus.Send(TargetChecker, bus.Message{
		Type:    "check",
		Payload: map[string]any{"state": st},
	})
}

func (g *Generator) fail(st *State, reason string) {
	st.FailureReason = reason
	g.bus.Send(TargetReporter, bus.Message{
		Type:    "report",
		Payload: map[string]any{"state": st},
	})
}
