package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// Input is the chat flow request payload.
type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Output is the chat flow response payload.
type Output struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// StreamChunk is one streamed fragment of the reply.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the flow's registered name in Genkit.
const FlowName = "steelhand/chat"

// Flow is the chat agent's streaming flow type, used by the api
// package with genkit.Handler().
type Flow = core.Flow[Input, Output, StreamChunk]

// Flow registration is process-global in Genkit; defining the same
// name twice panics, hence the singleton.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, defining it on first call.
func NewFlow(g *genkit.Genkit, agent *Agent) *Flow {
	flowOnce.Do(func() {
		flow = agent.defineFlow(g)
	})
	return flow
}

// ResetFlowForTesting clears the singleton so tests can redefine the
// flow with different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

func (a *Agent) defineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			// An absent session ID starts a fresh conversation; a
			// malformed one is a caller bug.
			var sessionID uuid.UUID
			if input.SessionID == "" {
				sessionID = uuid.New()
			} else {
				var err error
				sessionID, err = uuid.Parse(input.SessionID)
				if err != nil {
					return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
				}
			}

			var callback StreamCallback
			if streamCb != nil {
				callback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text == "" {
							continue
						}
						if err := streamCb(ctx, StreamChunk{Text: part.Text}); err != nil {
							return err
						}
					}
					return nil
				}
			}

			resp, err := a.ExecuteStream(ctx, sessionID, input.Message, callback)
			if err != nil {
				return Output{SessionID: sessionID.String()}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
			}

			return Output{Reply: resp.FinalText, SessionID: sessionID.String()}, nil
		},
	)
}
