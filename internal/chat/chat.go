// Package chat implements the conversational agent: history-aware
// generation with tool calling over the shared tool surface.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/session"
)

// systemPrompt is the persona for the chat surface.
const systemPrompt = `You are Alex, a service agent for a heavy equipment marketplace.

You have access to these tools:
- webSearch: search the web for current information (specs, part numbers, dealers).
- webFetch: read a web page in full after finding it with webSearch.
- sqlQuery: run read-only SELECT queries against the marketplace database.
  The listing table holds the equipment inventory.
- sendDocument (when available): deliver a document link (manual, repair
  guide, spec sheet) to the customer. Use it when the user asks you to send
  or share a document, instead of describing the content.

Be helpful, concise, and accurate. Summarize web findings clearly and
present database results in a readable format. If you are unsure about
something, say so and ask for clarification.`

// fallbackResponse is returned when the model produces no usable text.
const fallbackResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// Sentinel errors for HTTP status mapping.
var (
	ErrInvalidSession  = errors.New("invalid session")
	ErrExecutionFailed = errors.New("execution failed")
)

// StreamCallback receives each response chunk during streaming.
// Returning an error aborts the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Response is the complete result of one agent turn.
type Response struct {
	FinalText    string
	ToolRequests []*ai.ToolRequest
}

// Config carries the agent's dependencies.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Logger   log.Logger
	Tools    []ai.ToolRef

	ModelName    string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	MaxTurns     int    // agentic loop cap
	HistoryLimit int    // messages replayed per turn, 0 = all

	Retry       RetryConfig   // zero value uses defaults
	RateLimiter *rate.Limiter // nil uses the default limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Agent is the conversational agent. All configuration is captured at
// construction, so a single Agent is safe for concurrent requests.
type Agent struct {
	g            *genkit.Genkit
	sessions     *session.Store
	logger       log.Logger
	tools        []ai.ToolRef
	modelName    string
	maxTurns     int
	historyLimit int
	retry        RetryConfig
	limiter      *rate.Limiter
}

// New validates cfg and builds the agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxRetries == 0 {
		retryCfg = DefaultRetryConfig()
	}

	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	a := &Agent{
		g:            cfg.Genkit,
		sessions:     cfg.Sessions,
		logger:       cfg.Logger,
		tools:        cfg.Tools,
		modelName:    cfg.ModelName,
		maxTurns:     maxTurns,
		historyLimit: cfg.HistoryLimit,
		retry:        retryCfg,
		limiter:      limiter,
	}

	a.logger.Info("chat agent initialized",
		"tool_count", len(a.tools),
		"max_turns", a.maxTurns,
		"model", a.modelName)
	return a, nil
}

// Execute runs one non-streaming agent turn.
func (a *Agent) Execute(ctx context.Context, sessionID uuid.UUID, input string) (*Response, error) {
	return a.ExecuteStream(ctx, sessionID, input, nil)
}

// ExecuteStream runs one agent turn. When callback is non-nil each
// response chunk is delivered through it; the complete response is
// returned either way. History persistence is best-effort and never
// fails the request.
func (a *Agent) ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, callback StreamCallback) (*Response, error) {
	if _, err := a.sessions.GetOrCreate(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}

	stored, err := a.sessions.Messages(ctx, sessionID, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	messages := session.ToGenkitMessages(stored)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	opts := []ai.GenerateOption{
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(a.tools...),
		ai.WithMaxTurns(a.maxTurns),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response", "session_id", sessionID)
		text = fallbackResponse
	}

	if err := a.sessions.AppendMessage(ctx, sessionID, session.RoleUser, input); err != nil {
		a.logger.Warn("persisting user message", "session_id", sessionID, "error", err)
	}
	if err := a.sessions.AppendMessage(ctx, sessionID, session.RoleModel, text); err != nil {
		a.logger.Warn("persisting model message", "session_id", sessionID, "error", err)
	}

	return &Response{
		FinalText:    text,
		ToolRequests: resp.ToolRequests(),
	}, nil
}
