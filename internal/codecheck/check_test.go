package codecheck

import (
	"strings"
	"testing"
)

func TestCheck_ValidFormattedCode(t *testing.T) {
	src := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"

	res := Check(src)
	if res.HasCritical() {
		t.Fatalf("unexpected critical issues: %+v", res.Issues)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("expected no issues for gofmt-clean code, got: %+v", res.Issues)
	}
	if res.Code != src {
		t.Fatalf("code should pass through unchanged")
	}
}

func TestCheck_UnformattedCode(t *testing.T) {
	src := "package main\n\nfunc main() {\nx := 1\n_ = x\n}\n"

	res := Check(src)
	if res.HasCritical() {
		t.Fatalf("unexpected critical issues: %+v", res.Issues)
	}
	if len(res.Issues) != 1 || res.Issues[0].Severity != SeverityStyle {
		t.Fatalf("expected one style issue, got: %+v", res.Issues)
	}
	if !strings.Contains(res.Code, "\tx := 1") {
		t.Fatalf("code should come back formatted, got: %q", res.Code)
	}
}

func TestCheck_SyntaxError(t *testing.T) {
	src := "package main\n\nfunc main() {\n"

	res := Check(src)
	if !res.HasCritical() {
		t.Fatalf("expected critical issue for unterminated function")
	}
	if res.Code != src {
		t.Fatalf("broken code should pass through unchanged")
	}
}

func TestCheck_MissingPackageClause(t *testing.T) {
	res := Check("func main() {}\n")
	if !res.HasCritical() {
		t.Fatalf("expected critical issue for missing package clause")
	}
	found := false
	for _, is := range res.Issues {
		if strings.Contains(is.Message, "expected 'package'") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'package' diagnostic, got: %+v", res.Issues)
	}
}

func TestCheck_ReportsAllErrors(t *testing.T) {
	src := "package main\n\nfunc main() {\n\tx :=\n\ty :=\n}\n"

	res := Check(src)
	if len(res.Issues) < 2 {
		t.Fatalf("expected multiple critical issues, got: %+v", res.Issues)
	}
}
