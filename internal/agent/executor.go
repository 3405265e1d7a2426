package agent

import (
	"context"
	"fmt"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/config"
	"github.com/ccastromar/cgs-code-generation-system/internal/guard"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/metrics"
	"github.com/ccastromar/cgs-code-generation-system/internal/sandbox"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// Executor runs checked code in the interpreter sandbox. Guardrail
// rejections are reported as execution failures so the rectifier gets a
// chance to rewrite the offending code.
type Executor struct {
	bus     *bus.Bus
	inbox   chan bus.Message
	policy  config.Policy
	sandbox *sandbox.Executor
	uiStore *ui.UIStore
}

func NewExecutor(b *bus.Bus, policy config.Policy, sb *sandbox.Executor, uiStore *ui.UIStore) *Executor {
	return &Executor{
		bus:     b,
		inbox:   make(chan bus.Message, 16),
		policy:  policy,
		sandbox: sb,
		uiStore: uiStore,
	}
}

func (e *Executor) Inbox() chan bus.Message {
	return e.inbox
}

func (e *Executor) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Executor", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-e.inbox:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Error("Executor", "panic recovered in dispatch: %v", r)
					}
				}()
				e.dispatch(msg)
			}()

		case <-ctx.Done():
			return nil
		}
	}
}

func (e *Executor) dispatch(msg bus.Message) {
	switch msg.Type {
	case "execute":
		e.handleExecute(msg)
	default:
		logx.Warn("Executor", "unknown message: %#v", msg)
	}
}

func (e *Executor) handleExecute(msg bus.Message) {
	st, ok := stateFrom(msg.Payload)
	if !ok {
		logx.Error("Executor", "message without state: %#v", msg)
		return
	}

	code := st.CurrentCode()
	if code == "" {
		st.FailureReason = "no code to execute"
		e.bus.Send(TargetReporter, bus.Message{
			Type:    "report",
			Payload: map[string]any{"state": st},
		})
		return
	}

	if err := guard.ValidateAll(e.policy, code); err != nil {
		logx.L(st.ID, "Guard", "validation failed: %v", err)
		metrics.Executions.Inc(map[string]string{"outcome": "blocked"})
		e.uiStore.AddEvent(st.ID, "Executor", "guard", err.Error(), "")

		st.Execution = &sandbox.Result{
			Success: false,
			Error:   fmt.Sprintf("sandbox policy: %v", err),
		}
		e.toRectifier(st, st.Execution.Error)
		return
	}

	logx.L(st.ID, "Executor", "running code in sandbox (%d bytes)", len(code))
	timer := logx.Start(st.ID, "Executor", "SandboxRun")
	res := e.sandbox.Execute(taskContext(st.ID), code)
	timer.End()

	st.Execution = &res
	e.uiStore.AddEvent(st.ID, "Executor", "execution",
		execSummary(res), res.Duration.String())

	outcome := "ok"
	if !res.Success {
		outcome = "error"
	}
	metrics.Executions.Inc(map[string]string{"outcome": outcome})
	metrics.ExecutionDur.Observe(map[string]string{"outcome": outcome}, res.Duration.Seconds())

	if !res.Success && res.Error != "" {
		e.toRectifier(st, res.Error)
		return
	}

	e.bus.Send(TargetReporter, bus.Message{
		Type:    "report",
		Payload: map[string]any{"state": st},
	})
}

func (e *Executor) toRectifier(st *State, errMsg string) {
	e.bus.Send(TargetRectifier, bus.Message{
		Type: "rectify",
		Payload: map[string]any{
			"state": st,
			"error": errMsg,
		},
	})
}

func execSummary(res sandbox.Result) string {
	if res.Success {
		return "ok"
	}
	return "failed: " + res.Error
}
