package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
	"github.com/ccastromar/cgs-code-generation-system/internal/logx"
	"github.com/ccastromar/cgs-code-generation-system/internal/runtime"
	"github.com/ccastromar/cgs-code-generation-system/internal/ui"
)

type APIAgent struct {
	bus     *bus.Bus
	inbox   chan bus.Message
	uiStore *ui.UIStore
	rt      *runtime.Runtime
	taskTTL time.Duration
	// minimal auth and rate limiting
	apiKey string
	// naive fixed-window rate limiter per client key
	rl struct {
		Window  time.Duration
		Limit   int
		mu      chan struct{} // lightweight mutex using channel
		buckets map[string]*rateBucket
	}
}

func NewAPIAgent(b *bus.Bus, uiStore *ui.UIStore, rt *runtime.Runtime, taskTTL time.Duration) *APIAgent {
	if taskTTL <= 0 {
		taskTTL = 120 * time.Second
	}
	a := &APIAgent{
		bus:     b,
		inbox:   make(chan bus.Message, 16),
		uiStore: uiStore,
		rt:      rt,
		taskTTL: taskTTL,
		apiKey:  strings.TrimSpace(os.Getenv("API_KEY")),
	}
	// initialize rate limiter defaults
	a.rl.Window = 1 * time.Minute
	a.rl.Limit = 60
	a.rl.mu = make(chan struct{}, 1)
	a.rl.buckets = make(map[string]*rateBucket)
	return a
}

// Max request size for POST /generate to protect the server (1MB)
const maxGenerateBodyBytes int64 = 1 << 20

// rateBucket tracks hits in a fixed window
type rateBucket struct {
	start time.Time
	hits  int
}

// acquireRL returns error if rate limit exceeded
func (a *APIAgent) acquireRL(key string) error {
	if key == "" {
		key = "anon"
	}
	// lock
	a.rl.mu <- struct{}{}
	defer func() { <-a.rl.mu }()

	b, ok := a.rl.buckets[key]
	now := time.Now()
	if !ok || now.Sub(b.start) >= a.rl.Window {
		a.rl.buckets[key] = &rateBucket{start: now, hits: 1}
		return nil
	}
	if b.hits >= a.rl.Limit {
		return errors.New("rate limit exceeded")
	}
	b.hits++
	return nil
}

// getClientKey picks an identifier for auth/rate limit: API key if present, else IP
func getClientKey(r *http.Request) string {
	// prefer provided API key to segregate limits per token
	if k := r.Header.Get("X-API-Key"); k != "" {
		return "key:" + k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return "key:" + strings.TrimSpace(auth[7:])
	}
	// fallback to remote addr (strip port)
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}

// checkAuth enforces API key when configured via API_KEY env var
func (a *APIAgent) checkAuth(r *http.Request) bool {
	if a.apiKey == "" {
		return true // auth disabled
	}
	if k := r.Header.Get("X-API-Key"); k != "" && k == a.apiKey {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		token := strings.TrimSpace(auth[7:])
		return token == a.apiKey
	}
	return false
}

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func (a *APIAgent) Inbox() chan bus.Message {
	return a.inbox
}

func (a *APIAgent) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			logx.Error("Api", "panic recovered in Start: %v", r)
		}
	}()
	for {
		select {
		case msg := <-a.inbox:
			logx.Warn("Api", "unexpected internal message: %#v", msg)

		case <-ctx.Done():
			return nil
		}
	}
}

type generateRequest struct {
	Prompt       string `json:"prompt"`
	Requirements string `json:"requirements,omitempty"`
}

// RegisterHTTP registers the public HTTP endpoints.
func (a *APIAgent) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/generate", a.handleGenerate) // async: returns a task id
	mux.HandleFunc("/task", a.handleTask)         // fetch task status/result
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/test", a.handleTest) // synchronous canned self-test
	mux.HandleFunc("/api/debug-workflow", a.handleDebugWorkflow)
}

func (a *APIAgent) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// Method check
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Auth check (optional)
	if !a.checkAuth(r) {
		w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// Rate limit
	if err := a.acquireRL(getClientKey(r)); err != nil {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	// Enforce content type
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}

	// Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// If body too large, return 413; otherwise 400
		httpErr := http.StatusBadRequest
		if err.Error() == "http: request body too large" {
			httpErr = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "invalid request body", httpErr)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt required", http.StatusBadRequest)
		return
	}

	id := Submit(a.bus, req.Prompt, req.Requirements, a.taskTTL)

	logx.Info("Api", "new request id=%s prompt='%s'", id, req.Prompt)
	a.uiStore.AddEvent(id, "Api", "request", req.Prompt, "")

	// Immediate async response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"status": "accepted",
	})
}

// handleTask returns the status/result of a task.
// GET /task?id=...
func (a *APIAgent) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Auth check (optional)
	if !a.checkAuth(r) {
		w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// Rate limit
	if err := a.acquireRL(getClientKey(r)); err != nil {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if !idRe.MatchString(id) {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	// Deliver a finished result once, then clear storage to avoid leaks
	if res, ok := getResult(id); ok {
		deleteResult(id)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     id,
			"status": res.Status,
			"data":   res.Data,
			"error":  res.Err,
		})
		return
	}

	// Still pending
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"status": "pending",
	})
}

// selfTestPrompt is the canned request /api/test pushes through the
// whole pipeline.
const selfTestPrompt = "Create a simple function that adds two numbers"

// handleTest runs a canned prompt through the full workflow and blocks
// until it finishes, so one curl verifies every stage end to end.
// POST /api/test
func (a *APIAgent) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Auth check (optional)
	if !a.checkAuth(r) {
		w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// Rate limit
	if err := a.acquireRL(getClientKey(r)); err != nil {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	id := Submit(a.bus, selfTestPrompt, "", a.taskTTL)
	logx.Info("Api", "self-test started id=%s", id)
	a.uiStore.AddEvent(id, "Api", "self-test", selfTestPrompt, "")

	res := WaitForResult(id, a.taskTTL)
	deleteResult(id)
	CancelTask(id)

	data, _ := res.Data.(map[string]any)
	code, _ := data["code"].(string)
	attempts, _ := data["rectification_attempts"].(int)
	_, hasExecution := data["execution"]

	payload := map[string]any{
		"success":                res.Status == "completed",
		"test_prompt":            selfTestPrompt,
		"workflow_status":        res.Status,
		"has_generated_code":     code != "",
		"has_execution_results":  hasExecution,
		"rectification_attempts": attempts,
	}
	if res.Err != "" {
		payload["error"] = res.Err
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// handleDebugWorkflow dumps the wiring of the pipeline: which stages
// have a live inbox on the bus.
// GET /api/debug-workflow
func (a *APIAgent) handleDebugWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	hasGenerator := a.bus.HasSubscriber(TargetGenerator)
	hasChecker := a.bus.HasSubscriber(TargetChecker)
	hasRectifier := a.bus.HasSubscriber(TargetRectifier)
	hasExecutor := a.bus.HasSubscriber(TargetExecutor)
	hasReporter := a.bus.HasSubscriber(TargetReporter)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"workflow_initialized": hasGenerator && hasChecker && hasRectifier && hasExecutor && hasReporter,
		"workflow_type":        "agent message bus",
		"has_generator":        hasGenerator,
		"has_checker":          hasChecker,
		"has_rectifier":        hasRectifier,
		"has_executor":         hasExecutor,
		"has_reporter":         hasReporter,
		"workflow_graph":       "generator -> checker -> [rectifier -> checker] -> executor -> reporter",
	})
}

// handleStatus reports service configuration health.
// GET /api/status
func (a *APIAgent) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":             "healthy",
		"definitions_loaded": a.rt.DefinitionsLoaded,
		"llm_api_configured": a.rt.LLMClient != nil,
		"model":              a.rt.Model,
		"timestamp":          time.Now().Unix(),
	})
}
