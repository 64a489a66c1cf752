package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tempmail/internal/source"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// tick returns a clock that advances one second per call.
func tick(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestMigrationsApplied(t *testing.T) {
	s := newMemoryStore(t)
	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestMigrationsIdempotentOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempmail.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetLastMailbox(context.Background(), "keep@tmp.test"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LastMailbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keep@tmp.test", got)
}

func TestLastMailboxRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)

	got, err := s.LastMailbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetLastMailbox(ctx, "a@tmp.test"))
	require.NoError(t, s.SetLastMailbox(ctx, "b@tmp.test"))

	got, err = s.LastMailbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b@tmp.test", got)

	require.NoError(t, s.ClearLastMailbox(ctx))
	got, err = s.LastMailbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetLastMailboxRejectsEmpty(t *testing.T) {
	s := newMemoryStore(t)
	err := s.SetLastMailbox(context.Background(), "  ")
	assert.ErrorIs(t, err, source.ErrEmptyAddress)
}

func TestKnownMailboxesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	s.now = tick(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.RememberMailbox(ctx, "one@tmp.test"))
	require.NoError(t, s.RememberMailbox(ctx, "two@tmp.test"))
	require.NoError(t, s.RememberMailbox(ctx, "three@tmp.test"))
	require.NoError(t, s.RememberMailbox(ctx, "one@tmp.test"))

	boxes, err := s.KnownMailboxes(ctx)
	require.NoError(t, err)
	require.Len(t, boxes, 3)

	assert.Equal(t, "one@tmp.test", boxes[0].Address)
	assert.Equal(t, "three@tmp.test", boxes[1].Address)
	assert.Equal(t, "two@tmp.test", boxes[2].Address)
	assert.True(t, boxes[0].LastUsedAt.After(boxes[0].CreatedAt))
	assert.NotEmpty(t, boxes[0].ID)
}

func TestForgetMailbox(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)

	require.NoError(t, s.RememberMailbox(ctx, "gone@tmp.test"))
	require.NoError(t, s.ForgetMailbox(ctx, "gone@tmp.test"))
	require.NoError(t, s.ForgetMailbox(ctx, "never@tmp.test"))

	boxes, err := s.KnownMailboxes(ctx)
	require.NoError(t, err)
	assert.Empty(t, boxes)
}
