package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelhand/steelhand/internal/log"
)

// fakeDB records executed statements and serves canned rows.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	row      *fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if f.row != nil {
		return f.row
	}
	return &fakeRow{err: pgx.ErrNoRows}
}

type fakeRow struct {
	scan func(dest ...any) error
	err  error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.scan(dest...)
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(nil, log.NewNop())
	assert.Error(t, err)

	_, err = NewStore(&fakeDB{}, nil)
	assert.Error(t, err)

	store, err := NewStore(&fakeDB{}, log.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestAppendMessage_RejectsUnknownRole(t *testing.T) {
	db := &fakeDB{}
	store, err := NewStore(db, log.NewNop())
	require.NoError(t, err)

	err = store.AppendMessage(context.Background(), uuid.New(), "assistant", "hi")
	assert.Error(t, err)
	assert.Empty(t, db.execSQL, "nothing should reach the database")
}

func TestAppendMessage_StoresAndTouchesSession(t *testing.T) {
	db := &fakeDB{}
	store, err := NewStore(db, log.NewNop())
	require.NoError(t, err)

	sessionID := uuid.New()
	require.NoError(t, store.AppendMessage(context.Background(), sessionID, RoleModel, "response text"))

	require.Len(t, db.execSQL, 2)
	assert.Contains(t, db.execSQL[0], "INSERT INTO session_messages")
	assert.Contains(t, db.execSQL[1], "UPDATE sessions")
	assert.Equal(t, []any{sessionID, RoleModel, "response text"}, db.execArgs[0])
}

func TestGet_NotFound(t *testing.T) {
	store, err := NewStore(&fakeDB{}, log.NewNop())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessage_ToGenkit(t *testing.T) {
	tests := []struct {
		role     string
		wantRole string
	}{
		{RoleUser, "user"},
		{RoleModel, "model"},
		{RoleTool, "tool"},
		{"garbage", "user"},
	}

	for _, tt := range tests {
		msg := Message{Role: tt.role, Content: "hello"}.ToGenkit()
		assert.Equal(t, tt.wantRole, string(msg.Role))
		require.Len(t, msg.Content, 1)
		assert.Equal(t, "hello", msg.Content[0].Text)
	}
}

func TestToGenkitMessages_PreservesOrder(t *testing.T) {
	now := time.Now()
	stored := []Message{
		{Role: RoleUser, Content: "first", CreatedAt: now},
		{Role: RoleModel, Content: "second", CreatedAt: now.Add(time.Second)},
	}

	msgs := ToGenkitMessages(stored)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content[0].Text)
	assert.Equal(t, "second", msgs[1].Content[0].Text)
}
