package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/log"
)

// ChatHandler serves the chat endpoints.
//
// The synchronous endpoint uses genkit.Handler; the streaming endpoint
// is a hand-written SSE translation of the same flow.
type ChatHandler struct {
	chatFlow *chat.Flow
	logger   log.Logger
}

func NewChatHandler(flow *chat.Flow, logger log.Logger) *ChatHandler {
	return &ChatHandler{chatFlow: flow, logger: logger}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.chatFlow == nil {
		if h.logger != nil {
			h.logger.Warn("chat flow is nil, chat endpoints not registered")
		}
		return
	}
	mux.Handle("POST /api/chat", genkit.Handler(h.chatFlow))
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

// SSEChunkData is the payload of "chunk" events.
type SSEChunkData struct {
	Text string `json:"text"`
}

// SSEDoneData is the payload of the final "done" event.
type SSEDoneData struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// SSEErrorData is the payload of "error" events.
type SSEErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleStream runs the chat flow and relays its stream as
// Server-Sent Events. An absent sessionId starts a fresh session; the
// assigned ID comes back in the done event.
//
// Event types:
//   - chunk: partial text {"text": "..."}
//   - done:  final reply  {"reply": "...", "sessionId": "..."}
//   - error: failure      {"code": "...", "message": "..."}
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var input chat.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeSSEError(w, flusher, "INVALID_REQUEST", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if input.Message == "" {
		h.writeSSEError(w, flusher, "MISSING_MESSAGE", "message is required")
		return
	}

	ctx := r.Context()
	h.logger.Info("SSE stream started", "session_id", input.SessionID)

	var finalOutput chat.Output
	var streamErr error

	for streamValue, err := range h.chatFlow.Stream(ctx, input) {
		select {
		case <-ctx.Done():
			h.logger.Info("client disconnected", "session_id", input.SessionID)
			return
		default:
		}

		if err != nil {
			streamErr = err
			break
		}
		if streamValue.Done {
			finalOutput = streamValue.Output
			break
		}
		if streamValue.Stream.Text != "" {
			h.writeSSEChunk(w, flusher, streamValue.Stream.Text)
		}
	}

	if streamErr != nil {
		h.logger.Error("stream failed", "error", streamErr, "session_id", input.SessionID)
		h.writeSSEError(w, flusher, "STREAM_ERROR", streamErr.Error())
		return
	}

	h.writeSSEDone(w, flusher, finalOutput.Reply, finalOutput.SessionID)
	h.logger.Info("SSE stream completed",
		"session_id", input.SessionID,
		"reply_len", len(finalOutput.Reply))
}

func (h *ChatHandler) writeSSEChunk(w http.ResponseWriter, flusher http.Flusher, text string) {
	data, _ := json.Marshal(SSEChunkData{Text: text})
	fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data)
	flusher.Flush()
}

func (h *ChatHandler) writeSSEDone(w http.ResponseWriter, flusher http.Flusher, reply, sessionID string) {
	data, _ := json.Marshal(SSEDoneData{Reply: reply, SessionID: sessionID})
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", data)
	flusher.Flush()
}

func (h *ChatHandler) writeSSEError(w http.ResponseWriter, flusher http.Flusher, code, message string) {
	data, _ := json.Marshal(SSEErrorData{Code: code, Message: message})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
