package tools

import (
	"context"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/security"
	"github.com/steelhand/steelhand/internal/webhook"
)

// stubQuerier satisfies Querier for tests that never reach the database.
type stubQuerier struct{}

func (stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func noopGuard(t *testing.T) *security.URLGuard {
	t.Helper()
	return security.NewURLGuard(log.NewNop())
}

func TestNewKit_Validation(t *testing.T) {
	base := KitConfig{
		Guard:  noopGuard(t),
		DB:     &stubQuerier{},
		Logger: log.NewNop(),
	}

	_, err := NewKit(base)
	assert.NoError(t, err)

	missing := base
	missing.Guard = nil
	_, err = NewKit(missing)
	assert.Error(t, err)

	missing = base
	missing.DB = nil
	_, err = NewKit(missing)
	assert.Error(t, err)

	missing = base
	missing.Logger = nil
	_, err = NewKit(missing)
	assert.Error(t, err)
}

func TestRegister_WithoutDispatcher(t *testing.T) {
	g := genkit.Init(context.Background())

	kit, err := NewKit(KitConfig{
		Guard:  noopGuard(t),
		DB:     &stubQuerier{},
		Logger: log.NewNop(),
	})
	require.NoError(t, err)

	refs, err := kit.Register(g)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	assert.NotNil(t, genkit.LookupTool(g, "webSearch"))
	assert.NotNil(t, genkit.LookupTool(g, "webFetch"))
	assert.NotNil(t, genkit.LookupTool(g, "sqlQuery"))
	assert.Nil(t, genkit.LookupTool(g, "sendDocument"),
		"document delivery must not exist without a configured endpoint")
}

func TestRegister_WithDispatcher(t *testing.T) {
	g := genkit.Init(context.Background())

	d, err := webhook.NewDispatcher(webhook.Config{
		URL:     "https://hooks.example.com/documents",
		Timeout: time.Second,
	}, log.NewNop())
	require.NoError(t, err)

	kit, err := NewKit(KitConfig{
		Guard:      noopGuard(t),
		DB:         &stubQuerier{},
		Dispatcher: d,
		Logger:     log.NewNop(),
	})
	require.NoError(t, err)

	refs, err := kit.Register(g)
	require.NoError(t, err)
	assert.Len(t, refs, 4)
	assert.NotNil(t, genkit.LookupTool(g, "sendDocument"))
}

func TestRegister_NilGenkit(t *testing.T) {
	kit, err := NewKit(KitConfig{
		Guard:  noopGuard(t),
		DB:     &stubQuerier{},
		Logger: log.NewNop(),
	})
	require.NoError(t, err)

	_, err = kit.Register(nil)
	assert.Error(t, err)
}
