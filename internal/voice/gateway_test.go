package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/session"
)

// nopDB satisfies session.DB for tests that never touch storage.
type nopDB struct{}

func (nopDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (nopDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (nopDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return pgx.ErrNoRows }

func testAgent(t *testing.T) *chat.Agent {
	t.Helper()

	g := genkit.Init(context.Background())
	tool := genkit.DefineTool(g, "echoForVoiceTest",
		"Echo the input back.",
		func(_ *ai.ToolContext, in struct {
			Text string `json:"text"`
		}) (string, error) {
			return in.Text, nil
		})

	store, err := session.NewStore(nopDB{}, log.NewNop())
	require.NoError(t, err)

	agent, err := chat.New(chat.Config{
		Genkit:   g,
		Sessions: store,
		Logger:   log.NewNop(),
		Tools:    []ai.ToolRef{tool},
	})
	require.NoError(t, err)
	return agent
}

// gatewayConn starts a test server for the gateway and dials it. The
// returned closer tears both down; tests call it before leak checks.
func gatewayConn(t *testing.T, gw *Gateway, sessionQuery string) (*websocket.Conn, func()) {
	t.Helper()

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/voice" + sessionQuery
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("websocket dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return conn, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
		srv.Close()
	}
}

func TestNewGateway_Validation(t *testing.T) {
	_, err := NewGateway(nil, log.NewNop())
	assert.ErrorContains(t, err, "agent is required")

	_, err = NewGateway(testAgent(t), nil)
	assert.ErrorContains(t, err, "logger is required")
}

func TestGateway_RejectsUnknownFrameType(t *testing.T) {
	gw, err := NewGateway(testAgent(t), log.NewNop())
	require.NoError(t, err)

	// Snapshot before the connection so only per-connection goroutines
	// are checked.
	opt := goleak.IgnoreCurrent()

	conn, closeAll := gatewayConn(t, gw, "")
	require.NoError(t, conn.WriteJSON(Frame{Type: "audio", Text: "raw bytes"}))

	var reply Frame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, FrameError, reply.Type)
	assert.Contains(t, reply.Message, "unsupported frame type")

	// The connection survives a bad frame.
	require.NoError(t, conn.WriteJSON(Frame{Type: "audio"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, FrameError, reply.Type)

	closeAll()
	goleak.VerifyNone(t, opt)
}

func TestGateway_RejectsEmptyTranscript(t *testing.T) {
	gw, err := NewGateway(testAgent(t), log.NewNop())
	require.NoError(t, err)

	opt := goleak.IgnoreCurrent()

	conn, closeAll := gatewayConn(t, gw, "?session=not-a-uuid")
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameTranscript}))

	var reply Frame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, FrameError, reply.Type)
	assert.Contains(t, reply.Message, "transcript text is required")

	closeAll()
	goleak.VerifyNone(t, opt)
}
