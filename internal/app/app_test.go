package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source/tempmail"
	"github.com/nhle/tempmail/internal/store"
	appsync "github.com/nhle/tempmail/internal/sync"
	"github.com/nhle/tempmail/internal/ui/command"
	"github.com/nhle/tempmail/internal/ui/confirm"
	"github.com/nhle/tempmail/internal/ui/mailboxes"
	"github.com/nhle/tempmail/tests/testutil"
)

type harness struct {
	backend *testutil.FakeBackend
	store   *store.SQLiteStore
	poller  *appsync.Poller
	copied  []string
}

func newHarness(t *testing.T, clipErr error, seeded ...string) (*harness, Model) {
	t.Helper()

	h := &harness{
		backend: testutil.NewFakeBackend(t),
		store:   testutil.NewSeededStore(t, seeded...),
	}
	client := tempmail.NewClient(h.backend.URL(), 5*time.Second, zap.NewNop())
	h.poller = appsync.New(client, appsync.Options{Interval: time.Hour}, zap.NewNop())
	t.Cleanup(h.poller.StopSession)

	m := New(Deps{
		Config: &model.AppConfig{},
		Store:  h.store,
		Source: client,
		Poller: h.poller,
		Logger: zap.NewNop(),
		Clipboard: func(s string) error {
			if clipErr != nil {
				return clipErr
			}
			h.copied = append(h.copied, s)
			return nil
		},
	})
	return h, m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) nextResult(t *testing.T) appsync.FetchResultMsg {
	t.Helper()
	select {
	case res := <-h.poller.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for fetch result")
		return appsync.FetchResultMsg{}
	}
}

func TestRestoresLastMailboxOnStart(t *testing.T) {
	h, m := newHarness(t, nil, "a@tmp.test")
	h.backend.Deliver("a@tmp.test", testutil.FakeMessage{
		From:      "noreply@service.test",
		Subject:   "Welcome",
		Body:      "Your code is 123456",
		Timestamp: "2024-01-01T10:00:00Z",
	})

	m, _ = update(t, m, m.restoreLastMailbox()())
	assert.Equal(t, "a@tmp.test", h.poller.Mailbox())
	assert.True(t, h.poller.Active())

	res := h.nextResult(t)
	require.NoError(t, res.Err)
	m, _ = update(t, m, res)
	assert.Equal(t, 1, m.inbox.Len())
}

func TestNoLastMailboxStaysIdle(t *testing.T) {
	h, m := newHarness(t, nil)

	m, _ = update(t, m, m.restoreLastMailbox()())
	assert.False(t, h.poller.Active())
	assert.Equal(t, "idle", m.syncLabel())
}

func TestStaleResultIgnoredAfterSwitch(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.Deliver("a@tmp.test", testutil.FakeMessage{From: "x@y.test", Subject: "for a", Timestamp: "2024-01-01T10:00:00Z"})
	h.backend.AddMailbox("b@tmp.test")

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	resA := h.nextResult(t)

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "b@tmp.test"})
	m, _ = update(t, m, resA)

	assert.Equal(t, 0, m.inbox.Len())
	assert.Equal(t, "b@tmp.test", h.poller.Mailbox())
}

func TestForegroundFailureShowsToast(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.FailWith(http.StatusInternalServerError)

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	res := h.nextResult(t)
	require.Error(t, res.Err)
	require.NotNil(t, res.Toast)

	m, _ = update(t, m, res)
	require.NotNil(t, m.toast)
	assert.Equal(t, model.LevelError, m.toast.Level)
	assert.Contains(t, m.toast.Message, "Failed to fetch messages")
	assert.Equal(t, "error", m.syncLabel())
}

func TestQuitSavesLastMailbox(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.AddMailbox("b@tmp.test")

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "b@tmp.test"})
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	last, err := h.store.LastMailbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b@tmp.test", last)
	assert.False(t, h.poller.Active())
}

func TestDeleteCurrentMailbox(t *testing.T) {
	h, m := newHarness(t, nil, "a@tmp.test")
	h.backend.AddMailbox("a@tmp.test")
	ctx := context.Background()

	m, _ = update(t, m, m.restoreLastMailbox()())
	require.True(t, h.poller.Active())

	m, cmd := update(t, m, confirm.ResultMsg{Subject: "a@tmp.test", Confirmed: true})
	require.NotNil(t, cmd)
	deleted := cmd()
	require.IsType(t, mailboxDeletedMsg{}, deleted)
	require.NoError(t, deleted.(mailboxDeletedMsg).err)

	m, _ = update(t, m, deleted)
	assert.False(t, h.poller.Active())
	assert.Empty(t, h.poller.Mailbox())
	assert.Empty(t, h.poller.Messages())
	assert.Equal(t, 0, m.inbox.Len())

	last, err := h.store.LastMailbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, last)

	known, err := h.store.KnownMailboxes(ctx)
	require.NoError(t, err)
	assert.Empty(t, known)
}

func TestDeleteCancelledKeepsSession(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.AddMailbox("a@tmp.test")

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	_, cmd := update(t, m, confirm.ResultMsg{Subject: "a@tmp.test"})
	assert.Nil(t, cmd)
	assert.True(t, h.poller.Active())
}

func TestDeleteMailboxAlreadyGone(t *testing.T) {
	h, m := newHarness(t, nil, "ghost@tmp.test")

	msg := m.deleteMailbox("ghost@tmp.test")()
	require.NoError(t, msg.(mailboxDeletedMsg).err)

	known, err := h.store.KnownMailboxes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, known)
}

func TestCopyAddress(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.AddMailbox("a@tmp.test")

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	m, cmd := update(t, m, runes("c"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, []string{"a@tmp.test"}, h.copied)
	require.NotNil(t, m.toast)
	assert.Equal(t, "Copied address", m.toast.Message)
}

func TestCopyFailureShowsFallbackToast(t *testing.T) {
	h, m := newHarness(t, errors.New("no clipboard utility"))
	h.backend.AddMailbox("a@tmp.test")

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	m, cmd := update(t, m, runes("c"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.NotNil(t, m.toast)
	assert.Equal(t, model.LevelError, m.toast.Level)
	assert.Equal(t, "copy failed, select and copy manually", m.toast.Message)
}

func TestRefreshWithoutSession(t *testing.T) {
	_, m := newHarness(t, nil)

	m, _ = update(t, m, runes("r"))
	require.NotNil(t, m.toast)
	assert.Contains(t, m.toast.Message, "No mailbox yet")
}

func TestNewMailboxStartsSession(t *testing.T) {
	h, m := newHarness(t, nil)

	m, cmd := update(t, m, runes("g"))
	require.NotNil(t, cmd)
	created := cmd()
	require.IsType(t, mailboxCreatedMsg{}, created)

	m, _ = update(t, m, created)
	assert.Equal(t, "box1@tmp.test", h.poller.Mailbox())
	require.NotNil(t, m.toast)
	assert.Contains(t, m.toast.Message, "box1@tmp.test")
}

func TestToastExpiryMatchesID(t *testing.T) {
	_, m := newHarness(t, nil)

	m.showToast(model.Info("first"))
	firstID := m.toast.ID
	m.showToast(model.Info("second"))

	m, _ = update(t, m, toastExpiredMsg{id: firstID})
	require.NotNil(t, m.toast)
	assert.Equal(t, "second", m.toast.Message)

	m, _ = update(t, m, toastExpiredMsg{id: m.toast.ID})
	assert.Nil(t, m.toast)
}

func TestExportCommand(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.Deliver("a@tmp.test", testutil.FakeMessage{From: "x@y.test", Subject: "one", Body: "hello", Timestamp: "2024-01-01T10:00:00Z"})
	h.backend.Deliver("a@tmp.test", testutil.FakeMessage{From: "x@y.test", Subject: "two", Body: "again", Timestamp: "2024-01-01T11:00:00Z"})

	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})
	m, _ = update(t, m, h.nextResult(t))

	out := filepath.Join(t.TempDir(), "a.mbox")
	m, cmd := update(t, m, command.CommandMsg{Name: command.Export, Arg: out})
	require.NotNil(t, cmd)
	done := cmd()
	require.IsType(t, exportDoneMsg{}, done)
	assert.Equal(t, 2, done.(exportDoneMsg).count)

	m, _ = update(t, m, done)
	require.NotNil(t, m.toast)
	assert.Contains(t, m.toast.Message, "Exported 2 messages")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestUnknownCommandToast(t *testing.T) {
	_, m := newHarness(t, nil)

	m, _ = update(t, m, command.UnknownMsg("launch"))
	require.NotNil(t, m.toast)
	assert.Equal(t, model.LevelError, m.toast.Level)
}

func TestViewShowsMailbox(t *testing.T) {
	h, m := newHarness(t, nil)
	h.backend.AddMailbox("a@tmp.test")

	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, mailboxes.SelectedMsg{Address: "a@tmp.test"})

	view := m.View()
	assert.Contains(t, view, "tempmail")
	assert.Contains(t, view, "a@tmp.test")
}
