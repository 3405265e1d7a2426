// Package sandbox runs generated programs inside the yaegi interpreter
// instead of compiling them. Interpretation avoids go-build hangs and keeps
// execution inside the process, where stdout/stderr can be captured and a
// wall-clock limit enforced.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Result of a single sandboxed run.
type Result struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Executor struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{timeout: timeout}
}

// syncBuffer guards the capture buffers: the interpreter goroutine writes
// while the timeout path may still be holding the Result.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Execute interprets code, which must be a complete package main program.
// The run is abandoned (not killed; yaegi cannot be preempted) when the
// timeout or ctx expires.
func (e *Executor) Execute(ctx context.Context, code string) Result {
	start := time.Now()

	if strings.TrimSpace(code) == "" {
		return Result{
			Success:  false,
			Error:    "no code to execute",
			Duration: time.Since(start),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan Result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{
					Success:  false,
					Output:   stdout.String(),
					Error:    fmt.Sprintf("panic during execution: %v", r),
					Duration: time.Since(start),
				}
			}
		}()

		i := interp.New(interp.Options{
			Stdout: &stdout,
			Stderr: &stderr,
		})
		if err := i.Use(stdlib.Symbols); err != nil {
			done <- Result{
				Success:  false,
				Error:    fmt.Sprintf("loading stdlib symbols: %v", err),
				Duration: time.Since(start),
			}
			return
		}

		// Evaluating a package main program also runs its main function.
		if _, err := i.Eval(code); err != nil {
			done <- Result{
				Success:  false,
				Output:   stdout.String(),
				Error:    err.Error(),
				Duration: time.Since(start),
			}
			return
		}

		out := stdout.String()
		errOut := stderr.String()
		res := Result{
			Success:  errOut == "",
			Output:   out,
			Duration: time.Since(start),
		}
		if errOut != "" {
			res.Error = errOut
		}
		if res.Success && out == "" {
			res.Output = "Code executed successfully (no output)"
		}
		done <- res
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{
			Success:  false,
			Error:    fmt.Sprintf("execution timed out after %v", e.timeout),
			Duration: time.Since(start),
		}
	}
}
