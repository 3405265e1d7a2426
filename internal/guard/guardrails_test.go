package guard

import (
	"strings"
	"testing"

	"github.com/ccastromar/cgs-code-generation-system/internal/config"
)

func testPolicy() config.Policy {
	return config.Policy{
		Name:           "sandbox",
		AllowedImports: []string{"fmt", "strings", "math"},
		BlockedIdents:  []string{"unsafe", "os.Exit", "exec.Command"},
		MaxCodeBytes:   1024,
	}
}

const okProgram = `package main

import "fmt"

func main() {
	fmt.Println("hi")
}
`

func TestValidateImports_Allowed(t *testing.T) {
	if err := ValidateImports(testPolicy(), okProgram); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateImports_Blocked(t *testing.T) {
	code := `package main

import "os/exec"

func main() {}
`
	if err := ValidateImports(testPolicy(), code); err == nil {
		t.Fatalf("expected error for non-whitelisted import")
	}
}

func TestValidateImports_Unparseable(t *testing.T) {
	if err := ValidateImports(testPolicy(), "not go at all"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateBlockedIdents(t *testing.T) {
	t.Run("clean code passes", func(t *testing.T) {
		if err := ValidateBlockedIdents(testPolicy(), okProgram); err != nil {
			t.Fatalf("unexpected: %v", err)
		}
	})

	t.Run("os.Exit rejected", func(t *testing.T) {
		code := "package main\n\nimport \"os\"\n\nfunc main() { os.Exit(1) }\n"
		if err := ValidateBlockedIdents(testPolicy(), code); err == nil {
			t.Fatalf("expected error for os.Exit")
		}
	})
}

func TestValidateSize(t *testing.T) {
	p := testPolicy()
	p.MaxCodeBytes = 10
	if err := ValidateSize(p, "package main // way over ten bytes"); err == nil {
		t.Fatalf("expected size error")
	}

	p.MaxCodeBytes = 0 // unlimited
	if err := ValidateSize(p, strings.Repeat("x", 100000)); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestValidateAll(t *testing.T) {
	if err := ValidateAll(testPolicy(), okProgram); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	bad := "package main\n\nimport \"unsafe\"\n\nfunc main() { _ = unsafe.Sizeof(0) }\n"
	if err := ValidateAll(testPolicy(), bad); err == nil {
		t.Fatalf("expected error for unsafe import")
	}
}
