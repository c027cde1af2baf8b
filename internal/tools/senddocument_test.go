package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/webhook"
)

func newKitWithDispatcher(t *testing.T, d *webhook.Dispatcher) *Kit {
	t.Helper()
	kit, err := NewKit(KitConfig{
		Guard:      noopGuard(t),
		DB:         &stubQuerier{},
		Dispatcher: d,
		Logger:     log.NewNop(),
	})
	require.NoError(t, err)
	return kit
}

func newDispatcher(t *testing.T, url string) *webhook.Dispatcher {
	t.Helper()
	d, err := webhook.NewDispatcher(webhook.Config{URL: url, Timeout: 2 * time.Second}, log.NewNop())
	require.NoError(t, err)
	return d
}

func toolCtx() *ai.ToolContext {
	return &ai.ToolContext{Context: context.Background()}
}

func TestSendDocument_Success(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	kit := newKitWithDispatcher(t, newDispatcher(t, server.URL))
	out, err := kit.SendDocument(toolCtx(), SendDocumentInput{
		Title: "Kubota SVL97-2 Repair Guide",
		URL:   "https://docs.example.com/svl97-2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Document 'Kubota SVL97-2 Repair Guide' has been sent successfully.", out.Message)

	// Recipient was omitted by the model; the payload still carries it.
	assert.Equal(t, "", received["recipient"])
	assert.Equal(t, "Kubota SVL97-2 Repair Guide", received["title"])
}

func TestSendDocument_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	kit := newKitWithDispatcher(t, newDispatcher(t, server.URL))
	out, err := kit.SendDocument(toolCtx(), SendDocumentInput{
		Title: "Kubota SVL97-2 Repair Guide",
		URL:   "https://docs.example.com/svl97-2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Failed to send document: received status 503.", out.Message)
}

func TestSendDocument_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listening anymore

	kit := newKitWithDispatcher(t, newDispatcher(t, server.URL))
	out, err := kit.SendDocument(toolCtx(), SendDocumentInput{
		Title: "Kubota SVL97-2 Repair Guide",
		URL:   "https://docs.example.com/svl97-2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Failed to send document: could not reach the delivery service.", out.Message)
}

func TestDeliveryMessage(t *testing.T) {
	tests := []struct {
		name   string
		result webhook.Result
		want   string
	}{
		{
			"delivered",
			webhook.Result{Outcome: webhook.Delivered, Title: "Operator Manual"},
			"Document 'Operator Manual' has been sent successfully.",
		},
		{
			"timed out",
			webhook.Result{Outcome: webhook.TimedOut},
			"Failed to send document: the request timed out.",
		},
		{
			"unreachable",
			webhook.Result{Outcome: webhook.Unreachable},
			"Failed to send document: could not reach the delivery service.",
		},
		{
			"rejected",
			webhook.Result{Outcome: webhook.Rejected, StatusCode: 404},
			"Failed to send document: received status 404.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deliveryMessage(tt.result))
		})
	}
}
