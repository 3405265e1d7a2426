package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/cgs-code-generation-system/internal/agent"
	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/config"
	"github.com/ccastromar/cgs-code-generation-system/internal/history"
	"github.com/ccastromar/cgs-code-generation-system/internal/llm"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/runtime"
	"github.com/ccastromar/cgs-code-generation-system/internal/sandbox"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

type App struct {
	env    *config.EnvVars
	cfg    *config.Config
	bus    *bus.Bus
	ui     *ui.UIStore
	agents []agent.Agent
	llm    llm.LLMClient
	http   *HTTPServer
}

func New() (*App, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg, err := config.LoadFromDir("definitions")
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Policy("sandbox")
	if err != nil {
		return nil, err
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
		return nil, err
	}

	rt := &runtime.Runtime{
		DefinitionsLoaded: true,
		Model:             env.LLMModel,
		LLMClient:         llmClient,
	}

	// Create all workflow agents
	taskTTL := env.ExecTimeout + 2*env.LLMTimeout
	apiAgent := agent.NewAPIAgent(messageBus, uiStore, rt, taskTTL)
	generator := agent.NewGenerator(messageBus, cfg, llmClient, uiStore, env.MaxGenerateAttempts)
	checker := agent.NewChecker(messageBus, uiStore)
	rectifier := agent.NewRectifier(messageBus, cfg, llmClient, uiStore, env.MaxRectifyAttempts, env.MaxGenerateAttempts)
	executor := agent.NewExecutor(messageBus, policy, sb, uiStore)
	reporter := agent.NewReporter(messageBus, uiStore, hist)

	// Register subscriptions
	messageBus.Subscribe(agent.TargetGenerator, generator.Inbox())
	messageBus.Subscribe(agent.TargetChecker, checker.Inbox())
	messageBus.Subscribe(agent.TargetRectifier, rectifier.Inbox())
	messageBus.Subscribe(agent.TargetExecutor, executor.Inbox())
	messageBus.Subscribe(agent.TargetReporter, reporter.Inbox())

	httpServer := NewHTTPServer(apiAgent, uiStore, rt, hist)

	return &App{
		env:    env,
		cfg:    cfg,
		bus:    messageBus,
		ui:     uiStore,
		agents: []agent.Agent{apiAgent, generator, checker, rectifier, executor, reporter},
		llm:    llmClient,
		http:   httpServer,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Launch agents
	for _, ag := range a.agents {
		agent := ag
		g.Go(func() error {
			return agent.Start(gctx)
		})
	}

	// Launch HTTP server
	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "CGS v0.1.0 started (model=%s)", a.env.LLMModel)

	return g.Wait()
}
