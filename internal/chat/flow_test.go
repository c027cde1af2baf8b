package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlow_Singleton(t *testing.T) {
	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	cfg := testAgentConfig(t)
	agent, err := New(cfg)
	require.NoError(t, err)

	first := NewFlow(cfg.Genkit, agent)
	require.NotNil(t, first)

	// Repeated calls must reuse the registered flow: redefining the
	// same name on one Genkit instance panics.
	second := NewFlow(cfg.Genkit, agent)
	assert.Same(t, first, second)
}
