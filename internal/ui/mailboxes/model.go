// Package mailboxes implements the mailbox picker: the addresses the
// backend reports as active merged with the ones this client remembers.
package mailboxes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/source"
	"github.com/nhle/tempmail/internal/store"
	"github.com/nhle/tempmail/internal/theme"
)

// CloseMsg signals the parent to close the picker.
type CloseMsg struct{}

// SelectedMsg is sent when the user picks a mailbox.
type SelectedMsg struct {
	Address string
}

// DeleteRequestMsg asks the parent to confirm and delete Address.
type DeleteRequestMsg struct {
	Address string
}

// Entry is one row of the picker.
type Entry struct {
	Address    string
	Remote     bool
	Local      bool
	LastUsedAt time.Time
}

type loadedMsg struct {
	entries []Entry
	err     error
}

// Model is the Bubble Tea model for the mailbox picker.
type Model struct {
	store       store.Store
	source      source.Source
	keys        *keys.KeyMap
	current     string
	entries     []Entry
	selectedIdx int
	loading     bool
	statusMsg   string
	width       int
	height      int
}

// New creates a picker. current is highlighted as the active mailbox.
func New(s store.Store, src source.Source, k *keys.KeyMap, current string, width, height int) Model {
	return Model{
		store:   s,
		source:  src,
		keys:    k,
		current: current,
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init loads mailboxes.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refreshes the list, e.g. after a deletion.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load()
}

// Entries returns the loaded rows.
func (m Model) Entries() []Entry {
	return m.entries
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.statusMsg = ""
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Backend unavailable: %v", msg.err)
		}
		if m.selectedIdx >= len(m.entries) {
			m.selectedIdx = max(len(m.entries)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.entries) == 0 {
			return m, nil
		}
		addr := m.entries[m.selectedIdx].Address
		return m, func() tea.Msg { return SelectedMsg{Address: addr} }

	case key.Matches(msg, m.keys.Delete):
		if len(m.entries) == 0 {
			return m, nil
		}
		addr := m.entries[m.selectedIdx].Address
		return m, func() tea.Msg { return DeleteRequestMsg{Address: addr} }
	}
	return m, nil
}

// View renders the picker.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Mailboxes"))
	b.WriteString("\n\n")

	emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
	switch {
	case m.loading:
		b.WriteString(emptyStyle.Render("Loading…"))
	case len(m.entries) == 0:
		b.WriteString(emptyStyle.Render("No mailboxes yet. Press g in the inbox to generate one."))
	default:
		for i, e := range m.entries {
			label := e.Address
			if e.Address == m.current {
				label = "● " + label
			} else {
				label = "  " + label
			}
			if !e.Remote {
				label += theme.HelpStyle.Render("  (not on server)")
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | D delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	s, src := m.store, m.source
	return func() tea.Msg {
		entries, err := Load(context.Background(), s, src)
		return loadedMsg{entries: entries, err: err}
	}
}

// Load merges the backend's active mailboxes with the local history.
// Local entries come first, most recently used first, followed by
// remote-only addresses in the order the backend lists them. A backend
// failure still returns the local entries together with the error.
func Load(ctx context.Context, s store.Store, src source.Source) ([]Entry, error) {
	known, err := s.KnownMailboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading known mailboxes: %w", err)
	}

	byAddr := make(map[string]int, len(known))
	entries := make([]Entry, 0, len(known))
	for _, k := range known {
		byAddr[k.Address] = len(entries)
		entries = append(entries, Entry{Address: k.Address, Local: true, LastUsedAt: k.LastUsedAt})
	}

	remote, rerr := src.ListMailboxes(ctx)
	for _, addr := range remote {
		if i, ok := byAddr[addr]; ok {
			entries[i].Remote = true
			continue
		}
		byAddr[addr] = len(entries)
		entries = append(entries, Entry{Address: addr, Remote: true})
	}

	if rerr != nil {
		// Without the server's view every local entry is presumed live.
		for i := range entries {
			entries[i].Remote = true
		}
		return entries, fmt.Errorf("listing mailboxes: %w", rerr)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Local && !entries[j].Local
	})
	return entries, nil
}
