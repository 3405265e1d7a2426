// Package rectify repairs common failures in generated code without calling
// the model. Each fix targets one family of Go compiler/parser diagnostics;
// the AI fallback is only used when no pattern applies with enough confidence.
package rectify

import (
	"fmt"
	"regexp"
	"strings"
)

// Analysis classifies an error message before fixing.
type Analysis struct {
	ErrorType   string `json:"error_type"`
	ErrorLine   string `json:"error_line,omitempty"`
	Description string `json:"description"`
}

// Outcome is the result of a pattern pass over broken code.
type Outcome struct {
	Code       string   `json:"code"`
	Changes    []string `json:"changes,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Changed reports whether the pass actually modified the code.
func (o Outcome) Changed(original string) bool {
	return o.Code != "" && o.Code != original
}

var lineRe = regexp.MustCompile(`:(\d+):\d+:`)

// Analyze extracts the error family and source line from a diagnostic.
func Analyze(errMsg string) Analysis {
	a := Analysis{ErrorType: "Unknown", Description: errMsg}

	switch {
	case strings.Contains(errMsg, "undefined:"):
		a.ErrorType = "UndefinedIdentifier"
	case strings.Contains(errMsg, "imported and not used"):
		a.ErrorType = "UnusedImport"
	case strings.Contains(errMsg, "declared and not used"):
		a.ErrorType = "UnusedVariable"
	case strings.Contains(errMsg, "expected 'package'"):
		a.ErrorType = "MissingPackageClause"
	case strings.Contains(errMsg, "expected declaration"), strings.Contains(errMsg, "imports must appear"):
		a.ErrorType = "MisplacedImport"
	case strings.Contains(errMsg, "syntax error"), strings.Contains(errMsg, "expected"):
		a.ErrorType = "SyntaxError"
	case strings.Contains(errMsg, "cannot use"), strings.Contains(errMsg, "mismatched types"):
		a.ErrorType = "TypeError"
	case strings.Contains(errMsg, "not allowed in the sandbox"), strings.Contains(errMsg, "blocked identifier"):
		a.ErrorType = "PolicyViolation"
	case strings.Contains(errMsg, "timed out"):
		a.ErrorType = "Timeout"
	}

	if m := lineRe.FindStringSubmatch(errMsg); m != nil {
		a.ErrorLine = m[1]
	}
	return a
}

type fixFunc func(code, errMsg string) *Outcome

type pattern struct {
	errType string
	fix     fixFunc
}

// Ordered: first matching pattern wins.
var patterns = []pattern{
	{"MissingPackageClause", fixMissingPackageClause},
	{"MisplacedImport", fixMisplacedImports},
	{"UndefinedIdentifier", fixUndefinedIdentifier},
	{"UnusedImport", fixUnusedImport},
	{"UnusedVariable", fixUnusedVariable},
}

// Apply runs the pattern table against the broken code. A zero-confidence
// outcome with the original code means no pattern applied.
func Apply(code, errMsg string) Outcome {
	a := Analyze(errMsg)
	for _, p := range patterns {
		if p.errType != a.ErrorType {
			continue
		}
		if out := p.fix(code, errMsg); out != nil && out.Changed(code) {
			return *out
		}
	}
	return Outcome{Code: code, Confidence: 0}
}

// ---- individual fixes ----

func fixMissingPackageClause(code, _ string) *Outcome {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, "package ") {
		return nil
	}
	return &Outcome{
		Code:       "package main\n\n" + trimmed + "\n",
		Changes:    []string{"added missing package main clause"},
		Confidence: 0.95,
	}
}

// fixMisplacedImports hoists stray import statements directly under the
// package clause.
func fixMisplacedImports(code, _ string) *Outcome {
	lines := strings.Split(code, "\n")

	var pkgLine string
	var imports []string
	var rest []string
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case pkgLine == "" && strings.HasPrefix(trimmed, "package "):
			pkgLine = line
		case inBlock:
			imports = append(imports, line)
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
			}
		case strings.HasPrefix(trimmed, "import ("):
			imports = append(imports, line)
			inBlock = true
		case strings.HasPrefix(trimmed, "import "):
			imports = append(imports, line)
		default:
			rest = append(rest, line)
		}
	}

	if pkgLine == "" || len(imports) == 0 {
		return nil
	}

	out := []string{pkgLine, ""}
	out = append(out, imports...)
	out = append(out, "")
	// drop leading blank lines of the remainder
	for len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	out = append(out, rest...)

	return &Outcome{
		Code:       strings.Join(out, "\n"),
		Changes:    []string{"moved import declarations below the package clause"},
		Confidence: 0.9,
	}
}

var undefinedRe = regexp.MustCompile(`undefined: (\w+)`)

// Stdlib packages a generated program commonly forgets to import.
var commonImports = map[string]string{
	"bufio":   "bufio",
	"bytes":   "bytes",
	"errors":  "errors",
	"fmt":     "fmt",
	"json":    "encoding/json",
	"math":    "math",
	"big":     "math/big",
	"rand":    "math/rand",
	"regexp":  "regexp",
	"sort":    "sort",
	"strconv": "strconv",
	"strings": "strings",
	"time":    "time",
	"unicode": "unicode",
	"utf8":    "unicode/utf8",
}

func fixUndefinedIdentifier(code, errMsg string) *Outcome {
	m := undefinedRe.FindStringSubmatch(errMsg)
	if m == nil {
		return nil
	}
	path, ok := commonImports[m[1]]
	if !ok {
		return nil
	}

	fixed, ok := addImport(code, path)
	if !ok {
		return nil
	}
	return &Outcome{
		Code:       fixed,
		Changes:    []string{fmt.Sprintf("added missing import %q", path)},
		Confidence: 0.9,
	}
}

// addImport inserts path into an existing import block, or creates one after
// the package clause.
func addImport(code, path string) (string, bool) {
	if regexp.MustCompile(`"`+regexp.QuoteMeta(path)+`"`).MatchString(code) {
		return code, false
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "import (") {
			out := append([]string{}, lines[:i+1]...)
			out = append(out, "\t\""+path+"\"")
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), true
		}
	}
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			out := append([]string{}, lines[:i+1]...)
			out = append(out, "", "import \""+path+"\"")
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), true
		}
	}
	return code, false
}

var unusedImportRe = regexp.MustCompile(`"([^"]+)" imported and not used`)

func fixUnusedImport(code, errMsg string) *Outcome {
	m := unusedImportRe.FindStringSubmatch(errMsg)
	if m == nil {
		return nil
	}
	path := m[1]

	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))
	removed := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		isTarget := trimmed == "\""+path+"\"" ||
			trimmed == "import \""+path+"\"" ||
			strings.HasPrefix(trimmed, "\""+path+"\" //")
		if isTarget && !removed {
			removed = true
			continue
		}
		out = append(out, line)
	}
	if !removed {
		return nil
	}
	return &Outcome{
		Code:       strings.Join(out, "\n"),
		Changes:    []string{fmt.Sprintf("removed unused import %q", path)},
		Confidence: 0.9,
	}
}

var unusedVarRe = regexp.MustCompile(`declared and not used: (\w+)`)

// fixUnusedVariable silences the declaration with a blank assignment. Real
// scope analysis is not worth it here; only short declarations are handled.
func fixUnusedVariable(code, errMsg string) *Outcome {
	m := unusedVarRe.FindStringSubmatch(errMsg)
	if m == nil {
		return nil
	}
	name := m[1]

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, name+" :=") || strings.HasPrefix(trimmed, name+":=") {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out := append([]string{}, lines[:i+1]...)
			out = append(out, indent+"_ = "+name)
			out = append(out, lines[i+1:]...)
			return &Outcome{
				Code:       strings.Join(out, "\n"),
				Changes:    []string{fmt.Sprintf("silenced unused variable %s with a blank assignment", name)},
				Confidence: 0.8,
			}
		}
	}
	return nil
}
