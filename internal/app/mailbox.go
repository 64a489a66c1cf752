package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/archive"
	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/normalize"
	"github.com/nhle/tempmail/internal/source/tempmail"
)

// storeTimeout bounds local store calls made from the UI goroutine.
const storeTimeout = 2 * time.Second

type lastMailboxMsg struct {
	address string
	err     error
}

type mailboxCreatedMsg struct {
	address string
	err     error
}

type mailboxDeletedMsg struct {
	address    string
	wasCurrent bool
	err        error
}

type copyResultMsg struct {
	what string
	err  error
}

type exportDoneMsg struct {
	target string
	count  int
	err    error
}

type toastExpiredMsg struct {
	id string
}

// restoreLastMailbox loads the mailbox saved at the previous teardown.
func (m Model) restoreLastMailbox() tea.Cmd {
	s := m.deps.Store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		addr, err := s.LastMailbox(ctx)
		return lastMailboxMsg{address: addr, err: err}
	}
}

// startSession switches polling to address and records it in the history.
func (m *Model) startSession(address string) tea.Cmd {
	if err := m.deps.Poller.StartSession(address); err != nil {
		return m.showToast(model.Failure(fmt.Sprintf("Cannot open mailbox: %v", err)))
	}

	s, logger := m.deps.Store, m.logger
	remember := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := s.RememberMailbox(ctx, address); err != nil {
			logger.Warn("remembering mailbox", zap.String("mailbox", address), zap.Error(err))
		}
		return nil
	}
	return tea.Batch(m.inbox.SetMessages(address, nil), remember)
}

// newMailbox asks the backend for a fresh address.
func (m Model) newMailbox() tea.Cmd {
	src, timeout := m.deps.Source, m.deps.Config.Backend.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		addr, err := src.NewMailbox(ctx)
		return mailboxCreatedMsg{address: addr, err: err}
	}
}

// deleteMailbox removes address on the backend and from the local
// history. A mailbox the backend no longer knows counts as deleted.
func (m Model) deleteMailbox(address string) tea.Cmd {
	src, s, logger := m.deps.Source, m.deps.Store, m.logger
	timeout := m.deps.Config.Backend.Timeout()
	wasCurrent := address == m.deps.Poller.Mailbox()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := src.DeleteMailbox(ctx, address); err != nil {
			if !tempmail.IsMailboxGone(err) {
				return mailboxDeletedMsg{address: address, wasCurrent: wasCurrent, err: err}
			}
			logger.Info("mailbox already gone on backend", zap.String("mailbox", address))
		}

		if err := s.ForgetMailbox(ctx, address); err != nil {
			logger.Warn("forgetting mailbox", zap.String("mailbox", address), zap.Error(err))
		}
		if wasCurrent {
			if err := s.ClearLastMailbox(ctx); err != nil {
				logger.Warn("clearing last mailbox", zap.Error(err))
			}
		}
		return mailboxDeletedMsg{address: address, wasCurrent: wasCurrent}
	}
}

// quit saves the current mailbox for the next launch, stops polling and
// exits.
func (m *Model) quit() tea.Cmd {
	if addr := m.deps.Poller.Mailbox(); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := m.deps.Store.SetLastMailbox(ctx, addr); err != nil {
			m.logger.Warn("saving last mailbox", zap.String("mailbox", addr), zap.Error(err))
		}
		cancel()
	}
	m.deps.Poller.StopSession()
	return tea.Quit
}

func (m *Model) copyAddress() tea.Cmd {
	addr := m.deps.Poller.Mailbox()
	if addr == "" {
		return m.showToast(model.Info("No mailbox yet, press g to generate one"))
	}
	return m.copyText("address", addr)
}

// copyCode copies the verification code of the open or selected message.
func (m *Model) copyCode() tea.Cmd {
	var code string
	if m.currentView == ViewDetail {
		code = m.detail.Code()
	} else if msg, ok := m.inbox.Selected(); ok {
		code = msg.Code
		if code == "" {
			code = normalize.ExtractCode(msg.DisplayBody())
		}
	}
	if code == "" {
		return m.showToast(model.Info("No code found in this message"))
	}
	return m.copyText("code "+code, code)
}

func (m Model) copyText(what, text string) tea.Cmd {
	write := m.deps.Clipboard
	return func() tea.Msg {
		return copyResultMsg{what: what, err: write(text)}
	}
}

// exportMbox writes the current messages to path as an mbox file.
func (m *Model) exportMbox(path string) tea.Cmd {
	mailbox := m.deps.Poller.Mailbox()
	if mailbox == "" {
		return m.showToast(model.Info("No mailbox to export"))
	}
	msgs := m.deps.Poller.Messages()

	return func() tea.Msg {
		n, err := writeMboxFile(path, mailbox, msgs)
		return exportDoneMsg{target: path, count: n, err: err}
	}
}

func writeMboxFile(path, mailbox string, msgs []model.Message) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return archive.WriteMbox(f, mailbox, msgs)
}

// archiveIMAP appends the current messages to the configured IMAP folder.
func (m *Model) archiveIMAP() tea.Cmd {
	mailbox := m.deps.Poller.Mailbox()
	if mailbox == "" {
		return m.showToast(model.Info("No mailbox to archive"))
	}
	msgs := m.deps.Poller.Messages()
	cfg := m.deps.Config.Archive
	vault := m.deps.Vault
	if vault == nil {
		vault = credential.NewVault()
	}
	logger := m.deps.Logger

	return func() tea.Msg {
		password, err := vault.IMAPPassword(cfg.IMAPUser, cfg.IMAPHost)
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("imap password: %w", err)}
		}
		archiver, err := archive.NewIMAPArchiver(archive.OptionsFromConfig(cfg, password), logger)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		n, err := archiver.Append(ctx, mailbox, msgs)
		return exportDoneMsg{target: cfg.IMAPHost + "/" + archiver.Folder(), count: n, err: err}
	}
}
