package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ccastromar/cgs-code-generation-system/internal/agent"
	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/config"
	"github.com/ccastromar/cgs-code-generation-system/internal/history"
	"github.com/ccastromar/cgs-code-generation-system/internal/llm"
	"github.com/ccastromar/cgs-code-generation-system/internal/sandbox"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

// exitf indirection allows testing fatal paths without exiting the test process.
var exitf = func(code int, format string, v ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(code)
}

func main() {
	// .env is optional, environment variables win
	_ = godotenv.Load()

	prompt := flag.String("prompt", "", "description of the program to generate (required)")
	requirements := flag.String("requirements", "", "additional requirements for the generated code")
	verbose := flag.Bool("verbose", false, "print workflow details after the report")
	defsDir := flag.String("definitions", "definitions", "path to the definitions directory")
	flag.Parse()

	fmt.Println("CGS - Code Generation System")
	fmt.Println("============================")

	if *prompt == "" {
		flag.Usage()
		exitf(2, "error: -prompt is required")
		return
	}
	if os.Getenv("LLM_API_KEY") == "" {
		exitf(1, "error: LLM_API_KEY is not set (put it in .env or export it)")
		return
	}

	env, err := config.LoadEnv()
	if err != nil {
		exitf(1, "error loading environment: %v", err)
		return
	}

	res := runWorkflow(env, *defsDir, *prompt, *requirements, *verbose)
	if res.Status != "completed" {
		os.Exit(1)
	}
}

// runWorkflow wires the agents directly, without the HTTP layer, and blocks
// until the task finishes or times out.
func runWorkflow(env *config.EnvVars, defsDir, prompt, requirements string, verbose bool) agent.Result {
	cfg, err := config.LoadFromDir(defsDir)
	if err != nil {
		exitf(1, "error loading definitions: %v", err)
		return agent.Result{Status: "failed"}
	}

	policy, err := cfg.Policy("sandbox")
	if err != nil {
		exitf(1, "error loading sandbox policy: %v", err)
		return agent.Result{Status: "failed"}
	}

	uiStore := ui.NewUIStore()
	messageBus := bus.New()

	llmClient := llm.NewGroqClient(env.LLMBaseURL, env.LLMApiKey, env.LLMModel)
	llmClient.Timeout = env.LLMTimeout
	if profile, ok := cfg.Models[env.LLMModel]; ok {
		llmClient.Temperature = profile.Temperature
		llmClient.MaxTokens = profile.MaxTokens
	}

	sb := sandbox.New(env.ExecTimeout)

	hist, err := history.NewStore(env.HistorySize)
	if err != nil {
		exitf(1, "error creating history store: %v", err)
		return agent.Result{Status: "failed"}
	}

	generator := agent.NewGenerator(messageBus, cfg, llmClient, uiStore, env.MaxGenerateAttempts)
	checker := agent.NewChecker(messageBus, uiStore)
	rectifier := agent.NewRectifier(messageBus, cfg, llmClient, uiStore, env.MaxRectifyAttempts, env.MaxGenerateAttempts)
	executor := agent.NewExecutor(messageBus, policy, sb, uiStore)
	reporter := agent.NewReporter(messageBus, uiStore, hist)

	messageBus.Subscribe(agent.TargetGenerator, generator.Inbox())
	messageBus.Subscribe(agent.TargetChecker, checker.Inbox())
	messageBus.Subscribe(agent.TargetRectifier, rectifier.Inbox())
	messageBus.Subscribe(agent.TargetExecutor, executor.Inbox())
	messageBus.Subscribe(agent.TargetReporter, reporter.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, ag := range []agent.Agent{generator, checker, rectifier, executor, reporter} {
		go ag.Start(ctx)
	}

	ttl := env.ExecTimeout + 2*env.LLMTimeout
	id := agent.Submit(messageBus, prompt, requirements, ttl)
	fmt.Printf("Task %s submitted, waiting for the workflow to finish...\n\n", id)

	res := agent.WaitForResult(id, ttl+env.LLMTimeout)
	printResult(res, verbose)
	return res
}

func printResult(res agent.Result, verbose bool) {
	data, _ := res.Data.(map[string]any)

	if report, ok := data["final_result"].(string); ok && report != "" {
		fmt.Println(report)
	} else if res.Err != "" {
		fmt.Printf("Workflow failed: %s\n", res.Err)
	} else {
		fmt.Printf("Workflow finished with status %q and no report\n", res.Status)
	}

	if !verbose || data == nil {
		return
	}

	fmt.Println("\n--- Workflow details ---")
	fmt.Printf("Status: %s\n", res.Status)
	fmt.Printf("Generation attempts: %v\n", data["generation_attempts"])
	fmt.Printf("Rectification attempts: %v\n", data["rectification_attempts"])
	if changes, ok := data["changes_made"].([]string); ok && len(changes) > 0 {
		fmt.Println("Changes made:")
		for _, c := range changes {
			fmt.Printf("  - %s\n", c)
		}
	}
	if exec, ok := data["execution"].(*sandbox.Result); ok && exec != nil {
		fmt.Printf("Execution: success=%v duration=%s\n", exec.Success, exec.Duration)
		if exec.Error != "" {
			fmt.Printf("Execution error: %s\n", exec.Error)
		}
	}
	if res.Err != "" {
		fmt.Printf("Error: %s\n", res.Err)
	}
}
