package diagnostics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// Input is the diagnostics flow request payload.
type Input struct {
	Issue     string `json:"issue"`
	ListingID string `json:"listingId"`
	SessionID string `json:"sessionId"`
}

// Output is the diagnostics flow response payload.
type Output struct {
	Diagnostics []string `json:"diagnostics"`
	ListingID   string   `json:"listingId"`
	SessionID   string   `json:"sessionId"`
	// ExecutionTime is the end-to-end turn duration in seconds.
	ExecutionTime float64 `json:"executionTime"`
}

// FlowName is the flow's registered name in Genkit.
const FlowName = "steelhand/diagnostics"

// Flow is the diagnostics flow type.
type Flow = core.Flow[Input, Output, struct{}]

var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the diagnostics flow singleton, defining it on first call.
func NewFlow(g *genkit.Genkit, svc *Service) *Flow {
	flowOnce.Do(func() {
		flow = svc.defineFlow(g)
	})
	return flow
}

// ResetFlowForTesting clears the singleton. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

func (s *Service) defineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineFlow(g, FlowName,
		func(ctx context.Context, input Input) (Output, error) {
			var sessionID uuid.UUID
			if input.SessionID == "" {
				sessionID = uuid.New()
			} else {
				var err error
				sessionID, err = uuid.Parse(input.SessionID)
				if err != nil {
					return Output{}, fmt.Errorf("invalid session id %q: %w", input.SessionID, err)
				}
			}

			start := time.Now()
			diagnostics, err := s.Diagnose(ctx, sessionID, input.ListingID, input.Issue)
			if err != nil {
				return Output{}, err
			}

			return Output{
				Diagnostics:   diagnostics,
				ListingID:     input.ListingID,
				SessionID:     sessionID.String(),
				ExecutionTime: time.Since(start).Seconds(),
			}, nil
		},
	)
}
