package guard

import (
	"fmt"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/ccastromar/cgs-code-generation-system/internal/config"
)

// ---- helpers ----

func importsOf(code string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "sandbox.go", code, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parsing imports: %w", err)
	}
	out := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("bad import path %s: %w", imp.Path.Value, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Code may only import whitelisted packages.
func ValidateImports(policy config.Policy, code string) error {
	allowed := make(map[string]bool, len(policy.AllowedImports))
	for _, p := range policy.AllowedImports {
		allowed[p] = true
	}

	imports, err := importsOf(code)
	if err != nil {
		return err
	}
	for _, p := range imports {
		if !allowed[p] {
			return fmt.Errorf("import %q is not allowed in the sandbox", p)
		}
	}
	return nil
}

// Code must not reference blocked identifiers (unsafe, exec.Command, ...).
func ValidateBlockedIdents(policy config.Policy, code string) error {
	for _, ident := range policy.BlockedIdents {
		if ident == "" {
			continue
		}
		if strings.Contains(code, ident) {
			return fmt.Errorf("blocked identifier %q found in code", ident)
		}
	}
	return nil
}

// Code must stay under the configured size cap.
func ValidateSize(policy config.Policy, code string) error {
	if policy.MaxCodeBytes > 0 && len(code) > policy.MaxCodeBytes {
		return fmt.Errorf("code size %d exceeds limit %d", len(code), policy.MaxCodeBytes)
	}
	return nil
}

// ---- public API: single entry point ----

func ValidateAll(policy config.Policy, code string) error {
	if err := ValidateSize(policy, code); err != nil {
		return err
	}
	if err := ValidateImports(policy, code); err != nil {
		return err
	}
	if err := ValidateBlockedIdents(policy, code); err != nil {
		return err
	}
	return nil
}
