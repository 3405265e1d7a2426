package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecute_HelloWorld(t *testing.T) {
	e := New(10 * time.Second)
	code := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n"

	res := e.Execute(context.Background(), code)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if !strings.Contains(res.Output, "hello") {
		t.Fatalf("unexpected output: %q", res.Output)
	}
	if res.Duration <= 0 {
		t.Fatalf("duration should be measured")
	}
}

func TestExecute_RunsMainOnce(t *testing.T) {
	e := New(10 * time.Second)
	code := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"once\")\n}\n"

	res := e.Execute(context.Background(), code)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if strings.Count(res.Output, "once") != 1 {
		t.Fatalf("main should run exactly once, output: %q", res.Output)
	}
}

func TestExecute_NoOutputPlaceholder(t *testing.T) {
	e := New(10 * time.Second)
	code := "package main\n\nfunc main() {}\n"

	res := e.Execute(context.Background(), code)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if res.Output != "Code executed successfully (no output)" {
		t.Fatalf("unexpected output: %q", res.Output)
	}
}

func TestExecute_EmptyCode(t *testing.T) {
	e := New(10 * time.Second)
	res := e.Execute(context.Background(), "   \n\t")
	if res.Success {
		t.Fatalf("expected failure on empty code")
	}
	if res.Error != "no code to execute" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecute_BrokenCode(t *testing.T) {
	e := New(10 * time.Second)
	res := e.Execute(context.Background(), "package main\n\nfunc main() {\n")
	if res.Success {
		t.Fatalf("expected failure on broken code")
	}
	if res.Error == "" {
		t.Fatalf("expected interpreter error message")
	}
}

func TestExecute_Timeout(t *testing.T) {
	e := New(300 * time.Millisecond)
	code := "package main\n\nfunc main() {\n\tfor {\n\t}\n}\n"

	start := time.Now()
	res := e.Execute(context.Background(), code)
	if res.Success {
		t.Fatalf("expected timeout failure")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout took too long: %v", time.Since(start))
	}
}

func TestExecute_CapturesStderrAsFailure(t *testing.T) {
	e := New(10 * time.Second)
	code := "package main\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc main() {\n\tfmt.Fprintln(os.Stderr, \"bad things\")\n}\n"

	res := e.Execute(context.Background(), code)
	if res.Success {
		t.Fatalf("stderr output should mark the run failed")
	}
	if !strings.Contains(res.Error, "bad things") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}
