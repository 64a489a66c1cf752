package mailboxes_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/source/tempmail"
	"github.com/nhle/tempmail/internal/ui/mailboxes"
	"github.com/nhle/tempmail/tests/testutil"
)

func addresses(entries []mailboxes.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Address
	}
	return out
}

func TestLoadMergesLocalAndRemote(t *testing.T) {
	s := testutil.NewSeededStore(t, "old@tmp.test", "recent@tmp.test")
	backend := testutil.NewFakeBackend(t)
	backend.AddMailbox("recent@tmp.test")
	backend.AddMailbox("remote@tmp.test")
	client := tempmail.NewClient(backend.URL(), 5*time.Second, zap.NewNop())

	entries, err := mailboxes.Load(context.Background(), s, client)
	require.NoError(t, err)
	require.Equal(t, []string{"recent@tmp.test", "old@tmp.test", "remote@tmp.test"}, addresses(entries))

	assert.True(t, entries[0].Local)
	assert.True(t, entries[0].Remote)
	assert.True(t, entries[1].Local)
	assert.False(t, entries[1].Remote)
	assert.False(t, entries[2].Local)
	assert.True(t, entries[2].Remote)
}

func TestLoadBackendDown(t *testing.T) {
	s := testutil.NewSeededStore(t, "a@tmp.test")
	backend := testutil.NewFakeBackend(t)
	backend.FailWith(http.StatusInternalServerError)
	client := tempmail.NewClient(backend.URL(), 5*time.Second, zap.NewNop())

	entries, err := mailboxes.Load(context.Background(), s, client)
	require.Error(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@tmp.test", entries[0].Address)
	assert.True(t, entries[0].Remote)
}

func TestPickerSelectAndDelete(t *testing.T) {
	s := testutil.NewSeededStore(t, "first@tmp.test", "second@tmp.test")
	backend := testutil.NewFakeBackend(t)
	client := tempmail.NewClient(backend.URL(), 5*time.Second, zap.NewNop())

	m := mailboxes.New(s, client, keys.DefaultKeyMap(), "second@tmp.test", 80, 24)
	m, _ = m.Update(m.Init()())
	require.Len(t, m.Entries(), 2)
	assert.Contains(t, m.View(), "● second@tmp.test")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, mailboxes.SelectedMsg{Address: "first@tmp.test"}, cmd())

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'D'}})
	require.NotNil(t, cmd)
	assert.Equal(t, mailboxes.DeleteRequestMsg{Address: "first@tmp.test"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, mailboxes.CloseMsg{}, cmd())
}
