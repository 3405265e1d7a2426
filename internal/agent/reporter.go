package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/history"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// Reporter closes a task: renders the final markdown report, stores the
// result, and records the run in history. It never calls the model, so a
// report is produced even when everything upstream failed.
type Reporter struct {
	bus     *bus.Bus
	inbox   chan bus.Message
	uiStore *ui.UIStore
	hist    *history.Store
}

func NewReporter(b *bus.Bus, uiStore *ui.UIStore, hist *history.Store) *Reporter {
	return &Reporter{
		bus:     b,
		inbox:   make(chan bus.Message, 16),
		uiStore: uiStore,
		hist:    hist,
	}
}

func (rp *Reporter) Inbox() chan bus.Message {
	return rp.inbox
}

func (rp *Reporter) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Reporter", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-rp.inbox:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logx.Error("Reporter", "panic recovered in dispatch: %v", r)
					}
				}()
				rp.dispatch(msg)
			}()

		case <-ctx.Done():
			return nil
		}
	}
}

func (rp *Reporter) dispatch(msg bus.Message) {
	switch msg.Type {
	case "report":
		rp.handleReport(msg)
	default:
		logx.Warn("Reporter", "unknown message: %#v", msg)
	}
}

func (rp *Reporter) handleReport(msg bus.Message) {
	st, ok := stateFrom(msg.Payload)
	if !ok {
		logx.Error("Reporter", "message without state: %#v", msg)
		return
	}
	defer CancelTask(st.ID)

	finalCode := st.CurrentCode()
	report := renderReport(st)

	status := "completed"
	if finalCode == "" || st.FailureReason != "" {
		status = "failed"
	}

	logx.L(st.ID, "Reporter", "workflow %s (gen=%d rectify=%d)",
		status, st.GenAttempts, st.RectifyAttempts)
	rp.uiStore.AddEvent(st.ID, "Reporter", "done", status, "")

	data := map[string]any{
		"final_result":           report,
		"code":                   finalCode,
		"syntax_issues":          st.SyntaxIssues,
		"rectification_attempts": st.RectifyAttempts,
		"generation_attempts":    st.GenAttempts,
		"changes_made":           st.ChangesMade,
	}
	if st.Execution != nil {
		data["execution"] = st.Execution
	}
	if st.ErrorAnalysis != nil {
		data["error_analysis"] = st.ErrorAnalysis
	}

	storeResult(st.ID, Result{
		Status: status,
		Data:   data,
		Err:    st.FailureReason,
	})

	entry := history.Entry{
		ID:         st.ID,
		Prompt:     st.Prompt,
		Status:     status,
		Code:       finalCode,
		Error:      st.FailureReason,
		FinishedAt: time.Now(),
	}
	if st.Execution != nil {
		entry.Output = st.Execution.Output
		if entry.Error == "" {
			entry.Error = st.Execution.Error
		}
	}
	rp.hist.Add(entry)
}

// renderReport builds the user-facing markdown summary.
func renderReport(st *State) string {
	var b strings.Builder
	finalCode := st.CurrentCode()

	b.WriteString("## Code Generation Complete\n\n")
	b.WriteString("### Generated Code:\n```go\n")
	b.WriteString(finalCode)
	b.WriteString("\n```\n\n### Code Explanation:\n")
	b.WriteString(explanationFor(finalCode))

	b.WriteString("\n\n### Execution Results:\n")
	if st.Execution != nil {
		b.WriteString(fmt.Sprintf("- **Success**: %v\n", st.Execution.Success))
		b.WriteString(fmt.Sprintf("- **Execution Time**: %.2f seconds\n", st.Execution.Duration.Seconds()))
		b.WriteString(fmt.Sprintf("- **Output**: %s\n", orNone(st.Execution.Output, "No output")))
		b.WriteString(fmt.Sprintf("- **Error**: %s\n", orNone(st.Execution.Error, "No error")))
	} else {
		b.WriteString("- Code was not executed\n")
	}

	b.WriteString("\n### Analysis:\n")
	switch {
	case st.Execution != nil && st.Execution.Success:
		b.WriteString(`**Execution Status**: SUCCESS

The code executed successfully in the sandbox without runtime errors.
It is gofmt-clean and passed the syntax gate.`)
	case st.Execution == nil && finalCode != "" && st.FailureReason == "":
		b.WriteString(`**Generation Status**: SUCCESS

The code was generated and passed syntax validation, but was not executed.`)
	default:
		b.WriteString("**Execution Status**: FAILED\n\n")
		if st.Execution != nil && st.Execution.Error != "" {
			b.WriteString(fmt.Sprintf("**Error Message**: %s\n\n", st.Execution.Error))
		}
		if st.FailureReason != "" {
			b.WriteString(fmt.Sprintf("**Reason**: %s\n\n", st.FailureReason))
		}
		b.WriteString(fmt.Sprintf("**Rectification Attempts**: %d\n", st.RectifyAttempts))
		if st.RectifyAttempts >= 3 {
			b.WriteString("\nThe automatic rectification system reached its maximum attempts. Manual review may be required.")
		} else {
			b.WriteString("\nThe code may require additional manual fixes to resolve the remaining errors.")
		}
	}

	criticals := 0
	for _, is := range st.SyntaxIssues {
		if is.Severity == "critical" {
			criticals++
		}
	}
	b.WriteString(fmt.Sprintf(`

### Syntax Check Results:
- **Critical Issues**: %d
- **Formatting**: %s

---
*Generated by CGS*`, criticals, formattingNote(len(st.SyntaxIssues), criticals)))

	return strings.TrimSpace(b.String())
}

// explanationFor extracts the leading doc comment of the program as its
// explanation, mirroring how a docstring would describe the code.
func explanationFor(code string) string {
	const fallback = "This code implements the requested functionality with proper error handling and documentation."
	if code == "" {
		return "No code was produced."
	}

	var doc []string
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			doc = append(doc, strings.TrimSpace(strings.TrimPrefix(trimmed, "//")))
			continue
		}
		if trimmed == "" && len(doc) == 0 {
			continue
		}
		break
	}
	if len(doc) == 0 {
		return fallback
	}
	return strings.Join(doc, " ")
}

func orNone(s, none string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return strings.TrimSpace(s)
}

func formattingNote(total, criticals int) string {
	if criticals > 0 {
		return "unresolved critical issues"
	}
	if total > 0 {
		return "gofmt applied"
	}
	return "clean"
}
