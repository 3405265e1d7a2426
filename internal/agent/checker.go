package agent

import (
	"context"
	"strings"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/codecheck"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// Checker is the syntax and formatting gate between generation and
// execution. Critical issues go back through the rectifier; style issues
// are fixed in place by gofmt and only logged.
type Checker struct {
	bus     *bus.Bus
	inbox   chan bus.Message
	uiStore *ui.UIStore
}

func NewChecker(b *bus.Bus, uiStore *ui.UIStore) *Checker {
	return &Checker{
		bus:     b,
		inbox:   make(chan bus.Message, 16),
		uiStore: uiStore,
	}
}

func (c *Checker) Inbox() chan bus.Message {
	return c.inbox
}

func (c *Checker) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Checker", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-c.inbox:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Error("Checker", "panic recovered in dispatch: %v", r)
					}
				}()
				c.dispatch(msg)
			}()

		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Checker) dispatch(msg bus.Message) {
	switch msg.Type {
	case "check":
		c.handleCheck(msg)
	default:
		logx.Warn("Checker", "unknown message: %#v", msg)
	}
}

func (c *Checker) handleCheck(msg bus.Message) {
	st, ok := stateFrom(msg.Payload)
	if !ok {
		logx.Error("Checker", "message without state: %#v", msg)
		return
	}

	code := st.CurrentCode()
	if strings.TrimSpace(code) == "" {
		st.FailureReason = "no code to check"
		c.bus.Send(TargetReporter, bus.Message{
			Type:    "report",
			Payload: map[string]any{"state": st},
		})
		return
	}

	timer := logx.Start(st.ID, "Checker", "SyntaxCheck")
	res := codecheck.Check(code)
	timer.End()

	st.SyntaxIssues = res.Issues
	st.SetCurrentCode(res.Code)

	if res.HasCritical() {
		errMsg := joinCritical(res.Issues)
		logx.L(st.ID, "Checker", "critical syntax issues: %s", errMsg)
		c.uiStore.AddEvent(st.ID, "Checker", "syntax", errMsg, "")

		c.bus.Send(TargetRectifier, bus.Message{
			Type: "rectify",
			Payload: map[string]any{
				"state": st,
				"error": errMsg,
			},
		})
		return
	}

	if len(res.Issues) > 0 {
		logx.L(st.ID, "Checker", "%d style issues, formatted and continuing", len(res.Issues))
	}
	c.uiStore.AddEvent(st.ID, "Checker", "syntax", "ok", "")

	c.bus.Send(TargetExecutor, bus.Message{
		Type:    "execute",
		Payload: map[string]any{"state": st},
	})
}

func joinCritical(issues []codecheck.Issue) string {
	var parts []string
	for _, is := range issues {
		if is.Severity == codecheck.SeverityCritical {
			parts = append(parts, is.Message)
		}
	}
	return strings.Join(parts, "; ")
}
