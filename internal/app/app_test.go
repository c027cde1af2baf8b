package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/webhook"
)

func TestSetup_RequiresConfigAndLogger(t *testing.T) {
	_, err := Setup(context.Background(), nil, log.NewNop())
	assert.ErrorContains(t, err, "config is required")

	_, err = Setup(context.Background(), &config.Config{}, nil)
	assert.ErrorContains(t, err, "logger is required")
}

func TestSetup_FailsWithoutDatabase(t *testing.T) {
	cfg := &config.Config{
		Provider:         config.ProviderOllama,
		ModelName:        "llama3.3",
		OllamaHost:       "http://127.0.0.1:11434",
		PostgresHost:     "127.0.0.1",
		PostgresPort:     1, // nothing listens here
		PostgresUser:     "steelhand",
		PostgresPassword: "test",
		PostgresDBName:   "steelhand",
		PostgresSSLMode:  "disable",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Setup(ctx, cfg, log.NewNop())
	require.Error(t, err)
}

func TestClose_PartialApp(t *testing.T) {
	a := &App{Logger: log.NewNop()}
	assert.NoError(t, a.Close())

	// Close is also safe with no logger at all.
	assert.NoError(t, (&App{}).Close())
}

func TestDocumentDeliveryEnabled(t *testing.T) {
	a := &App{}
	assert.False(t, a.DocumentDeliveryEnabled())

	dispatcher, err := webhook.NewDispatcher(webhook.Config{
		URL: "http://127.0.0.1:9999/webhook",
	}, log.NewNop())
	require.NoError(t, err)

	a.Dispatcher = dispatcher
	assert.True(t, a.DocumentDeliveryEnabled())
}
