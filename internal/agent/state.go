package agent

import (
	"github.com/ccastromar/cgs-code-generation-system/internal/codecheck"
	"github.com/ccastromar/cgs-code-generation-system/internal/rectify"
	"github.com/ccastromar/cgs-code-generation-system/internal/sandbox"
)

// State carries one task through the workflow. Agents pass the same pointer
// around on the bus; each stage owns the state while the message is in its
// inbox, so no locking is needed.
type State struct {
	ID           string
	Prompt       string
	Requirements string

	GeneratedCode string
	RectifiedCode string

	SyntaxIssues []codecheck.Issue
	Execution    *sandbox.Result

	GenAttempts     int
	RectifyAttempts int

	ErrorAnalysis *rectify.Analysis
	ChangesMade   []string

	// FailureReason is set when the workflow gives up before producing a
	// successful execution.
	FailureReason string
}

// CurrentCode prefers rectified code over the original generation.
func (s *State) CurrentCode() string {
	if s.RectifiedCode != "" {
		return s.RectifiedCode
	}
	return s.GeneratedCode
}

// SetCurrentCode updates whichever slot CurrentCode reads from.
func (s *State) SetCurrentCode(code string) {
	if s.RectifiedCode != "" {
		s.RectifiedCode = code
		return
	}
	s.GeneratedCode = code
}

func stateFrom(payload map[string]any) (*State, bool) {
	st, ok := payload["state"].(*State)
	return st, ok
}
