package codecheck

import (
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// Severity of a single issue found by Check.
const (
	SeverityCritical = "critical" // code does not parse
	SeverityStyle    = "style"    // code parses but is not gofmt-clean
)

type Issue struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Result of the syntax/format gate.
type Result struct {
	Code   string  `json:"code"` // formatted when possible, input otherwise
	Issues []Issue `json:"issues,omitempty"`
}

// HasCritical reports whether any issue blocks execution.
func (r Result) HasCritical() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Check parses src and formats it. Parse failures come back as critical
// issues; an unformatted-but-valid file comes back formatted with a style
// note. Check never returns an error for bad input, only issues.
func Check(src string) Result {
	res := Result{Code: src}

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok {
			for _, e := range list {
				res.Issues = append(res.Issues, Issue{
					Severity: SeverityCritical,
					Message:  e.Error(),
				})
			}
		} else {
			res.Issues = append(res.Issues, Issue{
				Severity: SeverityCritical,
				Message:  err.Error(),
			})
		}
		return res
	}

	formatted, err := format.Source([]byte(src))
	if err != nil {
		// parseable but unformattable is unusual; treat as critical
		res.Issues = append(res.Issues, Issue{
			Severity: SeverityCritical,
			Message:  "gofmt: " + err.Error(),
		})
		return res
	}

	if string(formatted) != src {
		res.Issues = append(res.Issues, Issue{
			Severity: SeverityStyle,
			Message:  "source was not gofmt-formatted; formatting applied",
		})
	}
	res.Code = strings.TrimRight(string(formatted), "\n") + "\n"
	return res
}
