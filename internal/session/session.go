// Package session persists conversation history in PostgreSQL so a
// caller can resume a chat or diagnostics exchange across requests.
package session

import (
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Roles stored in session_messages. They mirror the Genkit roles that
// carry conversational content.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Session is one conversation thread.
type Session struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single stored exchange entry.
type Message struct {
	ID        int64
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// ToGenkit converts a stored message to the Genkit message type used
// when replaying history into a generation call. Unknown roles map to
// user so replay never drops content.
func (m Message) ToGenkit() *ai.Message {
	part := ai.NewTextPart(m.Content)
	switch m.Role {
	case RoleModel:
		return ai.NewModelMessage(part)
	case RoleTool:
		return ai.NewMessage(ai.RoleTool, nil, part)
	default:
		return ai.NewUserMessage(part)
	}
}

// ToGenkitMessages converts stored history oldest-first.
func ToGenkitMessages(msgs []Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToGenkit())
	}
	return out
}
