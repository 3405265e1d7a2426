package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/config"
	"github.com/ccastromar/cgs-code-generation-system/internal/llm"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/metrics"
	"github.com/ccastromar/cgs-code-generation-system/internal/rectify"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// aiFallbackThreshold: below this pattern confidence the model is asked to
// repair the code instead.
const aiFallbackThreshold = 0.7

// Rectifier repairs broken code: pattern table first, AI second. When both
// fail it either triggers a full regeneration or gives up, depending on the
// remaining attempt budget.
type Rectifier struct {
	bus         *bus.Bus
	cfg         *config.Config
	inbox       chan bus.Message
	llmClient   llm.LLMClient
	uiStore     *ui.UIStore
	maxAttempts int
	maxGenerate int
}

func NewRectifier(b *bus.Bus, cfg *config.Config, llmClient llm.LLMClient, uiStore *ui.UIStore, maxAttempts, maxGenerate int) *Rectifier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if maxGenerate <= 0 {
		maxGenerate = 3
	}
	return &Rectifier{
		bus:         b,
		cfg:         cfg,
		inbox:       make(chan bus.Message, 16),
		llmClient:   llmClient,
		uiStore:     uiStore,
		maxAttempts: maxAttempts,
		maxGenerate: maxGenerate,
	}
}

func (rc *Rectifier) Inbox() chan bus.Message {
	return rc.inbox
}

func (rc *Rectifier) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Rectifier", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-rc.inbox:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Error("Rectifier", "panic recovered in dispatch: %v", r)
					}
				}()
				rc.dispatch(msg)
			}()

		case <-ctx.Done():
			return nil
		}
	}
}

func (rc *Rectifier) dispatch(msg bus.Message) {
	switch msg.Type {
	case "rectify":
		rc.handleRectify(msg)
	default:
		logx.Warn("Rectifier", "unknown message: %#v", msg)
	}
}

func (rc *Rectifier) handleRectify(msg bus.Message) {
	st, ok := stateFrom(msg.Payload)
	if !ok {
		logx.Error("Rectifier", "message without state: %#v", msg)
		return
	}
	errMsg, _ := msg.Payload["error"].(string)

	code := st.CurrentCode()
	if errMsg == "" || strings.TrimSpace(code) == "" {
		rc.report(st)
		return
	}

	if st.RectifyAttempts >= rc.maxAttempts {
		logx.Warn("Rectifier", "id=%s maximum rectification attempts reached", st.ID)
		st.FailureReason = fmt.Sprintf(
			"maximum rectification attempts reached, final error: %s", errMsg)
		rc.report(st)
		return
	}
	st.RectifyAttempts++

	analysis := rectify.Analyze(errMsg)
	st.ErrorAnalysis = &analysis
	logx.L(st.ID, "Rectifier", "attempt %d/%d type=%s error='%s'",
		st.RectifyAttempts, rc.maxAttempts, analysis.ErrorType, errMsg)

	// 1. Pattern-based fixes.
	out := rectify.Apply(code, errMsg)
	if out.Changed(code) && out.Confidence >= aiFallbackThreshold {
		metrics.Rectifications.Inc(map[string]string{"strategy": "pattern", "outcome": "ok"})
		rc.accept(st, out.Code, out.Changes, out.Confidence)
		return
	}

	// 2. AI rectification.
	fixed, changes, conf, err := rc.aiRectify(st, code, errMsg, analysis)
	if err == nil && fixed != "" && fixed != code {
		metrics.Rectifications.Inc(map[string]string{"strategy": "ai", "outcome": "ok"})
		rc.accept(st, fixed, changes, conf)
		return
	}
	if err != nil {
		logx.Error("Rectifier", "id=%s AI rectification failed: %v", st.ID, err)
	}
	metrics.Rectifications.Inc(map[string]string{"strategy": "ai", "outcome": "error"})

	// 3. Neither strategy produced a change: regenerate from scratch while
	// the generation budget allows, otherwise give up.
	if st.GenAttempts < rc.maxGenerate {
		logx.L(st.ID, "Rectifier", "unfixable, requesting regeneration")
		rc.uiStore.AddEvent(st.ID, "Rectifier", "regenerate", errMsg, "")
		rc.bus.Send(TargetGenerator, bus.Message{
			Type:    "generate",
			Payload: map[string]any{"state": st},
		})
		return
	}

	st.FailureReason = "rectification failed: " + errMsg
	rc.report(st)
}

func (rc *Rectifier) aiRectify(st *State, code, errMsg string, analysis rectify.Analysis) (string, []string, float64, error) {
	tpl, err := rc.cfg.Prompt("rectify")
	if err != nil {
		return "", nil, 0, err
	}

	timer := logx.Start(st.ID, "Rectifier", "RectifyLLM")
	res, err := llm.RectifyCode(taskContext(st.ID), rc.llmClient, tpl.Template, llm.RectifyRequest{
		Code:      code,
		Error:     errMsg,
		ErrorType: analysis.ErrorType,
		ErrorLine: analysis.ErrorLine,
	})
	timer.End()

	if err != nil {
		return "", nil, 0, err
	}
	if !res.Success || res.Code == "" {
		return "", nil, 0, fmt.Errorf("model declined to rectify")
	}
	return res.Code, res.Changes, res.Confidence, nil
}

func (rc *Rectifier) accept(st *State, code string, changes []string, confidence float64) {
	logx.L(st.ID, "Rectifier", "code rectified with confidence %.2f, changes: %s",
		confidence, strings.Join(changes, ", "))
	rc.uiStore.AddEvent(st.ID, "Rectifier", "rectified",
		strings.Join(changes, ", "), "")

	st.RectifiedCode = code
	st.ChangesMade = append(st.ChangesMade, changes...)

	// Re-check syntax after every rectification.
	rc.bus.Send(TargetChecker, bus.Message{
		Type:    "check",
		Payload: map[string]any{"state": st},
	})
}

func (rc *Rectifier) report(st *State) {
	rc.bus.Send(TargetReporter, bus.Message{
		Type:    "report",
		Payload: map[string]any{"state": st},
	})
}
