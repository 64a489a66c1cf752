package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source"
	"github.com/nhle/tempmail/internal/store"
	appsync "github.com/nhle/tempmail/internal/sync"
	"github.com/nhle/tempmail/internal/ui"
	"github.com/nhle/tempmail/internal/ui/command"
	"github.com/nhle/tempmail/internal/ui/confirm"
	"github.com/nhle/tempmail/internal/ui/detail"
	helpview "github.com/nhle/tempmail/internal/ui/help"
	"github.com/nhle/tempmail/internal/ui/inbox"
	"github.com/nhle/tempmail/internal/ui/mailboxes"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewMailboxes
	ViewHelp
	ViewCommand
	ViewConfirm
)

// Deps are the collaborators the root model drives.
type Deps struct {
	Config *model.AppConfig
	Store  store.Store
	Source source.Source
	Poller *appsync.Poller
	Vault  *credential.Vault
	Logger *zap.Logger

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// Model is the root Bubble Tea model that manages view routing,
// layout and the mailbox session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	logger       *zap.Logger
	keys         *keys.KeyMap
	inbox        inbox.Model
	detail       detail.Model
	mailboxes    mailboxes.Model
	helpView     helpview.Model
	commandView  command.Model
	confirm      confirm.Model
	toast        *model.Notification
	ready        bool
}

// New creates the root application model.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &model.AppConfig{}
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.WriteAll
	}

	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewInbox,
		layout:      ui.NewLayout(80, 24),
		deps:        deps,
		logger:      deps.Logger.Named("app"),
		keys:        k,
		inbox:       inbox.New(k, 80, 22),
		detail:      detail.New(k, 80, 22),
		helpView:    helpview.New(k, command.Usage, 80, 22),
		commandView: command.NewModel(80, 22),
	}
}

// Init restores the last-used mailbox and starts listening for fetch
// results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.restoreLastMailbox(),
		m.deps.Poller.WaitForNextResult(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.Width, m.layout.ContentHeight()
		m.inbox.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.mailboxes.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case lastMailboxMsg:
		if msg.err != nil {
			m.logger.Warn("loading last mailbox", zap.Error(msg.err))
			return m, nil
		}
		if msg.address == "" {
			return m, nil
		}
		cmd := m.startSession(msg.address)
		return m, cmd

	case appsync.FetchResultMsg:
		return m.handleFetchResult(msg)

	case mailboxCreatedMsg:
		if msg.err != nil {
			return m.withToast(model.Failure(fmt.Sprintf("Failed to create mailbox: %v", msg.err)))
		}
		cmd := tea.Batch(
			m.startSession(msg.address),
			m.showToast(model.Info("New mailbox "+msg.address)),
		)
		return m, cmd

	case mailboxDeletedMsg:
		return m.handleMailboxDeleted(msg)

	case copyResultMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard write failed", zap.String("what", msg.what), zap.Error(msg.err))
			return m.withToast(model.Failure("copy failed, select and copy manually"))
		}
		return m.withToast(model.Info("Copied " + msg.what))

	case exportDoneMsg:
		if msg.err != nil {
			return m.withToast(model.Failure(fmt.Sprintf("Export failed: %v", msg.err)))
		}
		return m.withToast(model.Info(fmt.Sprintf("Exported %d messages to %s", msg.count, msg.target)))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.id {
			m.toast = nil
		}
		return m, nil

	case inbox.SelectedMessageMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetMessage(msg.Message)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case mailboxes.SelectedMsg:
		m.currentView = ViewInbox
		cmd := m.startSession(msg.Address)
		return m, cmd

	case mailboxes.CloseMsg:
		m.currentView = ViewInbox
		return m, nil

	case mailboxes.DeleteRequestMsg:
		cmd := m.openConfirm(msg.Address)
		return m, cmd

	case confirm.ResultMsg:
		m.currentView = m.previousView
		if !msg.Confirmed {
			return m, nil
		}
		return m, m.deleteMailbox(msg.Subject)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case command.UnknownMsg:
		m.currentView = m.previousView
		return m.withToast(model.Failure(fmt.Sprintf("Unknown command %q", string(msg))))

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleFetchResult applies a poll outcome if it still belongs to the
// running session, then re-arms the result listener.
func (m Model) handleFetchResult(msg appsync.FetchResultMsg) (tea.Model, tea.Cmd) {
	wait := m.deps.Poller.WaitForNextResult()
	if msg.Stale || !m.deps.Poller.IsCurrent(msg.Generation) {
		return m, wait
	}

	cmds := []tea.Cmd{wait}
	if msg.Err == nil {
		cmds = append(cmds, m.inbox.SetMessages(msg.Mailbox, msg.Messages))
	}
	if msg.Toast != nil {
		cmds = append(cmds, m.showToast(*msg.Toast))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleMailboxDeleted(msg mailboxDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.withToast(model.Failure(fmt.Sprintf("Failed to delete mailbox: %v", msg.err)))
	}

	if msg.wasCurrent && m.deps.Poller.Mailbox() == msg.address {
		m.deps.Poller.Clear()
		m.inbox.SetMessages("", nil)
		if m.currentView == ViewDetail {
			m.currentView = ViewInbox
		}
	}

	cmds := []tea.Cmd{m.showToast(model.Info("Deleted " + msg.address))}
	if m.currentView == ViewMailboxes {
		cmds = append(cmds, m.mailboxes.Reload())
	}
	cmd := tea.Batch(cmds...)
	return m, cmd
}

// handleGlobalKey processes keys that are not owned by the active view.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m.quit(), true
	}

	// Text inputs own the keyboard.
	switch m.currentView {
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	case ViewConfirm:
		return nil, false
	case ViewInbox:
		if m.inbox.Filtering() {
			return nil, false
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	}

	if m.currentView == ViewHelp {
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	if m.currentView != ViewInbox && m.currentView != ViewDetail {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewInbox:
		return m.quit(), true

	case key.Matches(msg, m.keys.NewMailbox):
		return m.newMailbox(), true

	case key.Matches(msg, m.keys.Mailboxes):
		return m.openMailboxes(), true

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(), true

	case key.Matches(msg, m.keys.CopyAddress):
		return m.copyAddress(), true

	case key.Matches(msg, m.keys.CopyCode):
		return m.copyCode(), true

	case key.Matches(msg, m.keys.Delete):
		return m.openConfirm(m.deps.Poller.Mailbox()), true
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewMailboxes:
		m.mailboxes, cmd = m.mailboxes.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("tempmail", m.deps.Poller.Mailbox(), m.syncLabel())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewMailboxes:
		return m.mailboxes.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewConfirm:
		return m.confirm.View()
	default:
		return ""
	}
}

// syncLabel returns a short string describing the poll state.
func (m Model) syncLabel() string {
	if !m.deps.Poller.Active() {
		return "idle"
	}
	switch m.deps.Poller.Status().State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "error"
	default:
		return "live"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | y copy code | v expand | j/k scroll"
	case ViewMailboxes:
		return "enter open | D delete | esc back"
	case ViewConfirm:
		return "←/→ choose | enter confirm | ctrl+c quit"
	default:
		if m.deps.Poller.Mailbox() == "" {
			return "g new mailbox | m mailboxes | ? help | q quit"
		}
		return "enter open | g new | m mailboxes | r refresh | c copy address | y copy code | D delete | q quit"
	}
}

// showToast displays n in the status bar and schedules its removal.
// A newer toast replaces an older one, and an old expiry tick does not
// clear its successor.
func (m *Model) showToast(n model.Notification) tea.Cmd {
	m.toast = &n
	id := n.ID
	return tea.Tick(model.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// withToast is showToast for Update branches that only raise a toast.
func (m Model) withToast(n model.Notification) (tea.Model, tea.Cmd) {
	cmd := m.showToast(n)
	return m, cmd
}

// refresh asks the poller for a foreground fetch.
func (m *Model) refresh() tea.Cmd {
	if err := m.deps.Poller.Refresh(); err != nil {
		if errors.Is(err, appsync.ErrNoSession) {
			return m.showToast(model.Info("No mailbox yet, press g to generate one"))
		}
		return m.showToast(model.Failure(err.Error()))
	}
	return nil
}

func (m *Model) openMailboxes() tea.Cmd {
	m.mailboxes = mailboxes.New(
		m.deps.Store, m.deps.Source, m.keys,
		m.deps.Poller.Mailbox(),
		m.layout.Width, m.layout.ContentHeight(),
	)
	m.previousView = m.currentView
	m.currentView = ViewMailboxes
	return m.mailboxes.Init()
}

func (m *Model) openConfirm(address string) tea.Cmd {
	if address == "" {
		return m.showToast(model.Info("No mailbox to delete"))
	}
	desc := "The mailbox and its messages are removed from the server."
	if address == m.deps.Poller.Mailbox() {
		desc += " Polling stops."
	}
	m.confirm = confirm.New(
		fmt.Sprintf("Delete mailbox %s?", address), desc, address,
		m.layout.Width, m.layout.ContentHeight(),
	)
	m.previousView = m.currentView
	if m.previousView == ViewDetail {
		m.previousView = ViewInbox
	}
	m.currentView = ViewConfirm
	return m.confirm.Init()
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.CommandMsg) tea.Cmd {
	switch cmd.Name {
	case command.New:
		return m.newMailbox()
	case command.Open:
		m.currentView = ViewInbox
		return m.startSession(cmd.Arg)
	case command.Refresh:
		return m.refresh()
	case command.Delete:
		return m.openConfirm(m.deps.Poller.Mailbox())
	case command.Copy:
		return m.copyAddress()
	case command.Export:
		return m.exportMbox(cmd.Arg)
	case command.Archive:
		return m.archiveIMAP()
	case command.Quit:
		return m.quit()
	default:
		return nil
	}
}
