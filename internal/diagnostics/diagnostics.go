// Package diagnostics implements the equipment troubleshooting agent.
// Given a symptom description and a listing ID it produces a ranked
// list of at most five candidate diagnoses, consulting the listing
// table first and the web as fallback.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/session"
)

// maxDiagnostics caps the list regardless of what the model returns.
const maxDiagnostics = 5

const systemPrompt = `You are Alex, an AI diagnostic specialist for equipment troubleshooting.

Query the listing table for the id to get equipment information. If no data
is found, use web search as fallback.
Analyze the reported issue or symptoms and provide up to 5 potential
diagnostics. Keep diagnostics clear, actionable, and prioritized by
likelihood. Do not add any special markdown formatting, just plain text.

If the user asks you to send or share a document (PDF, repair guide,
manual), use the sendDocument tool with the title and URL instead of just
describing the content.`

// ErrExecutionFailed wraps generation failures for HTTP status mapping.
var ErrExecutionFailed = errors.New("diagnostics execution failed")

// result is the structured output requested from the model.
type result struct {
	Diagnostics []string `json:"diagnostics" jsonschema_description:"Potential diagnoses ordered by likelihood, at most 5"`
}

// Config carries the service dependencies.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Logger   log.Logger
	Tools    []ai.ToolRef

	ModelName string
	MaxTurns  int
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

// Service runs diagnostic analyses. Safe for concurrent use.
type Service struct {
	g         *genkit.Genkit
	sessions  *session.Store
	logger    log.Logger
	tools     []ai.ToolRef
	modelName string
	maxTurns  int
}

// New validates cfg and builds the service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	return &Service{
		g:         cfg.Genkit,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
		tools:     cfg.Tools,
		modelName: cfg.ModelName,
		maxTurns:  maxTurns,
	}, nil
}

// Diagnose analyzes the reported issue for a listing and returns at
// most five candidate diagnoses. The exchange is recorded in the
// session history on a best-effort basis.
func (s *Service) Diagnose(ctx context.Context, sessionID uuid.UUID, listingID, issue string) ([]string, error) {
	if strings.TrimSpace(issue) == "" {
		return nil, errors.New("issue description is required")
	}

	s.logger.Info("diagnose called",
		"session_id", sessionID, "listing_id", listingID)

	if _, err := s.sessions.GetOrCreate(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}

	prompt := fmt.Sprintf(
		"Listing ID: %s\nReported issue: %s\n\nProvide potential diagnostics for this equipment issue. "+
			"Include historical data from the database for this listing if available.",
		listingID, issue)

	opts := []ai.GenerateOption{
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(prompt),
		ai.WithTools(s.tools...),
		ai.WithMaxTurns(s.maxTurns),
		ai.WithOutputType(result{}),
	}
	if s.modelName != "" {
		opts = append(opts, ai.WithModelName(s.modelName))
	}

	resp, err := genkit.Generate(ctx, s.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}

	var out result
	if err := resp.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding output: %w", ErrExecutionFailed, err)
	}

	diagnostics := clampDiagnostics(out.Diagnostics)

	if err := s.sessions.AppendMessage(ctx, sessionID, session.RoleUser, prompt); err != nil {
		s.logger.Warn("persisting diagnostics request", "session_id", sessionID, "error", err)
	}
	if err := s.sessions.AppendMessage(ctx, sessionID, session.RoleModel, strings.Join(diagnostics, "\n")); err != nil {
		s.logger.Warn("persisting diagnostics result", "session_id", sessionID, "error", err)
	}

	s.logger.Info("diagnose done",
		"session_id", sessionID, "listing_id", listingID, "count", len(diagnostics))
	return diagnostics, nil
}

// clampDiagnostics drops empty entries and enforces the size cap.
func clampDiagnostics(in []string) []string {
	out := make([]string, 0, maxDiagnostics)
	for _, d := range in {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, d)
		if len(out) == maxDiagnostics {
			break
		}
	}
	return out
}
