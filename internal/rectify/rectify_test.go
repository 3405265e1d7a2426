package rectify

import (
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	cases := []struct {
		name     string
		errMsg   string
		wantType string
		wantLine string
	}{
		{"undefined", "generated.go:5:2: undefined: fmt", "UndefinedIdentifier", "5"},
		{"unused import", `generated.go:3:8: "strings" imported and not used`, "UnusedImport", "3"},
		{"unused var", "generated.go:6:2: declared and not used: x", "UnusedVariable", "6"},
		{"missing package", "generated.go:1:1: expected 'package', found func", "MissingPackageClause", "1"},
		{"syntax", "generated.go:7:10: syntax error: unexpected newline", "SyntaxError", "7"},
		{"type error", "generated.go:4:6: cannot use x (variable of type string) as int value", "TypeError", "4"},
		{"policy", `import "os/exec" is not allowed in the sandbox`, "PolicyViolation", ""},
		{"timeout", "execution timed out after 30s", "Timeout", ""},
		{"unknown", "something odd happened", "Unknown", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Analyze(tc.errMsg)
			if a.ErrorType != tc.wantType {
				t.Fatalf("type: got %s, want %s", a.ErrorType, tc.wantType)
			}
			if a.ErrorLine != tc.wantLine {
				t.Fatalf("line: got %q, want %q", a.ErrorLine, tc.wantLine)
			}
		})
	}
}

func TestApply_MissingPackageClause(t *testing.T) {
	code := "func main() {}\n"
	out := Apply(code, "generated.go:1:1: expected 'package', found func")
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	if !strings.HasPrefix(out.Code, "package main\n") {
		t.Fatalf("expected package clause prepended, got: %q", out.Code)
	}
	if out.Confidence < 0.9 {
		t.Fatalf("unexpected confidence: %v", out.Confidence)
	}
}

func TestApply_UndefinedIdentifier_AddsImport(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"
	out := Apply(code, "generated.go:4:2: undefined: fmt")
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	if !strings.Contains(out.Code, "import \"fmt\"") {
		t.Fatalf("expected fmt import added, got: %q", out.Code)
	}
}

func TestApply_UndefinedIdentifier_ExistingBlock(t *testing.T) {
	code := "package main\n\nimport (\n\t\"strings\"\n)\n\nfunc main() {\n\t_ = strings.ToUpper(fmt.Sprint(1))\n}\n"
	out := Apply(code, "generated.go:8:25: undefined: fmt")
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	if !strings.Contains(out.Code, "\t\"fmt\"") {
		t.Fatalf("expected fmt added to import block, got: %q", out.Code)
	}
}

func TestApply_UndefinedIdentifier_UnknownName(t *testing.T) {
	code := "package main\n\nfunc main() { frobnicate() }\n"
	out := Apply(code, "generated.go:3:15: undefined: frobnicate")
	if out.Changed(code) {
		t.Fatalf("no fix should apply for an unknown identifier")
	}
	if out.Confidence != 0 {
		t.Fatalf("expected zero confidence, got: %v", out.Confidence)
	}
}

func TestApply_UnusedImport(t *testing.T) {
	code := "package main\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"
	out := Apply(code, `generated.go:5:2: "strings" imported and not used`)
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	if strings.Contains(out.Code, "\"strings\"") {
		t.Fatalf("strings import should be removed, got: %q", out.Code)
	}
}

func TestApply_UnusedVariable(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tx := 42\n}\n"
	out := Apply(code, "generated.go:4:2: declared and not used: x")
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	if !strings.Contains(out.Code, "\t_ = x") {
		t.Fatalf("expected blank assignment, got: %q", out.Code)
	}
}

func TestApply_MisplacedImport(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n\nimport \"fmt\"\n"
	out := Apply(code, "generated.go:7:1: syntax error: imports must appear before other declarations")
	if !out.Changed(code) {
		t.Fatalf("expected a fix")
	}
	idxImport := strings.Index(out.Code, "import \"fmt\"")
	idxFunc := strings.Index(out.Code, "func main")
	if idxImport < 0 || idxFunc < 0 || idxImport > idxFunc {
		t.Fatalf("import should be hoisted above func main, got: %q", out.Code)
	}
}

func TestApply_NoPatternMatch(t *testing.T) {
	code := "package main\n\nfunc main() {}\n"
	out := Apply(code, "generated.go:3:1: cannot use x as int value")
	if out.Changed(code) {
		t.Fatalf("type errors have no pattern fix")
	}
}
