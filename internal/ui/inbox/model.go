package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// SelectedMessageMsg is sent when the user opens a message.
type SelectedMessageMsg struct {
	Message model.Message
}

// Model is the inbox list view.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	mailbox string
	width   int
	height  int
}

// New creates a new inbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("message", "messages")

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetMessages replaces the list content. msgs must already be sorted.
// The cursor stays on the same position when possible.
func (m *Model) SetMessages(mailbox string, msgs []model.Message) tea.Cmd {
	m.mailbox = mailbox
	items := make([]list.Item, len(msgs))
	for i, msg := range msgs {
		items[i] = NewMessageItem(msg)
	}
	return m.list.SetItems(items)
}

// Selected returns the message under the cursor.
func (m Model) Selected() (model.Message, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.Message{}, false
	}
	return item.Message, true
}

// Len returns the number of messages listed.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Filtering reports whether the list's filter input has focus, in which
// case global keys must not be intercepted.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		if key.Matches(msg, m.keys.Select) {
			sel, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedMessageMsg{Message: sel} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.mailbox == "" {
		return style.Render("No mailbox yet.\n\nPress g to generate one or m to pick an existing one.")
	}
	return style.Render("Waiting for mail at\n\n" +
		theme.MailboxStyle.Render(m.mailbox) +
		"\n\nPress c to copy the address.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
