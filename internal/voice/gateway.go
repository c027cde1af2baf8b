// Package voice is the websocket gateway for the external voice
// pipeline. The pipeline owns audio (VAD, STT, TTS); this side
// receives user transcript frames and answers with agent reply
// frames for synthesis. One connection maps to one session.
package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/log"
)

// Frame types exchanged with the voice pipeline.
const (
	// FrameTranscript is an inbound user utterance.
	FrameTranscript = "transcript"
	// FrameChunk is an outbound partial reply, sent as the model streams.
	FrameChunk = "chunk"
	// FrameReply is the outbound complete reply for one utterance.
	FrameReply = "reply"
	// FrameError reports a failure for one utterance. The connection
	// stays open.
	FrameError = "error"
)

const (
	writeTimeout = 10 * time.Second

	// maxFrameBytes bounds inbound transcript frames.
	maxFrameBytes = 64 << 10
)

// Frame is the wire format in both directions.
type Frame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Gateway upgrades HTTP connections and bridges frames to the chat
// agent.
type Gateway struct {
	agent    *chat.Agent
	logger   log.Logger
	upgrader websocket.Upgrader
}

func NewGateway(agent *chat.Agent, logger log.Logger) (*Gateway, error) {
	if agent == nil {
		return nil, errors.New("agent is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Gateway{
		agent:  agent,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}, nil
}

// RegisterRoutes registers the gateway endpoint on mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /voice", g.ServeHTTP)
}

// ServeHTTP upgrades the connection and serves it until the pipeline
// disconnects. The session key comes from the "session" query
// parameter (the pipeline's room name); a fresh session is created
// when it is absent or not a UUID.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session"))
	if err != nil {
		sessionID = uuid.New()
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxFrameBytes)
	g.logger.Info("voice connection opened", "session_id", sessionID)
	g.serve(r.Context(), conn, sessionID)
	g.logger.Info("voice connection closed", "session_id", sessionID)
}

// serve is the per-connection loop. Frames are handled sequentially,
// so the connection has a single writer and utterances cannot
// interleave their replies.
func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, sessionID uuid.UUID) {
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("voice read failed", "error", err, "session_id", sessionID)
			}
			return
		}

		if err := g.handleFrame(ctx, conn, sessionID, frame); err != nil {
			g.logger.Warn("voice write failed", "error", err, "session_id", sessionID)
			return
		}
	}
}

// handleFrame processes one inbound frame. The returned error is a
// write failure; agent failures are reported in-band as error frames.
func (g *Gateway) handleFrame(ctx context.Context, conn *websocket.Conn, sessionID uuid.UUID, frame Frame) error {
	if frame.Type != FrameTranscript {
		return writeFrame(conn, Frame{
			Type:    FrameError,
			Message: fmt.Sprintf("unsupported frame type %q", frame.Type),
		})
	}
	if frame.Text == "" {
		return writeFrame(conn, Frame{Type: FrameError, Message: "transcript text is required"})
	}

	streamCb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		if chunk == nil {
			return nil
		}
		for _, part := range chunk.Content {
			if part.Text == "" {
				continue
			}
			if err := writeFrame(conn, Frame{Type: FrameChunk, Text: part.Text}); err != nil {
				return err
			}
		}
		return nil
	}

	resp, err := g.agent.ExecuteStream(ctx, sessionID, frame.Text, streamCb)
	if err != nil {
		g.logger.Error("voice turn failed", "error", err, "session_id", sessionID)
		return writeFrame(conn, Frame{Type: FrameError, Message: "agent request failed"})
	}

	return writeFrame(conn, Frame{
		Type:      FrameReply,
		Text:      resp.FinalText,
		SessionID: sessionID.String(),
	})
}

func writeFrame(conn *websocket.Conn, frame Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
