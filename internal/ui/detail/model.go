package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/normalize"
	"github.com/nhle/tempmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// collapsedLines is how much of a long body is shown before expanding.
const collapsedLines = 12

// Model is the message detail view component.
type Model struct {
	msg      *model.Message
	subject  string
	body     string
	code     string
	long     bool
	expanded bool
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetMessage shows msg. Its subject is decoded and its body normalized
// and rendered as text.
func (m *Model) SetMessage(msg model.Message) {
	m.msg = &msg
	m.subject = normalize.DecodeSubject(msg.Subject)

	raw := msg.DisplayBody()
	m.long = normalize.IsLongContent(raw)
	m.expanded = false
	m.body = normalize.HTMLToText(normalize.HTML(raw))

	m.code = msg.Code
	if m.code == "" {
		m.code = normalize.ExtractCode(raw)
	}

	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Code returns the verification code of the shown message, if any.
func (m Model) Code() string {
	return m.code
}

// Message returns the shown message.
func (m Model) Message() (model.Message, bool) {
	if m.msg == nil {
		return model.Message{}, false
	}
	return *m.msg, true
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.ToggleRaw):
			if m.long {
				m.expanded = !m.expanded
				m.viewport.SetContent(m.renderContent())
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.msg == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.msg == nil {
		return ""
	}

	msg := m.msg
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := m.subject
	if subject == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render(subject), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	row := func(label, value string) {
		sections = append(sections, fmt.Sprintf("%s %s",
			metaStyle.Render(fmt.Sprintf("%-6s", label)),
			valStyle.Render(value),
		))
	}
	row("From:", msg.Sender)
	if msg.To != "" {
		row("To:", msg.To)
	}
	if !msg.Timestamp.IsZero() {
		row("Date:", msg.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	if m.code != "" {
		sections = append(sections, fmt.Sprintf("%s %s  %s",
			metaStyle.Render(fmt.Sprintf("%-6s", "Code:")),
			theme.CodeStyle.Render(m.code),
			theme.HelpStyle.Render("y to copy"),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	body := m.body
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Empty message")
	} else if m.long && !m.expanded {
		lines := strings.Split(body, "\n")
		if len(lines) > collapsedLines {
			body = strings.Join(lines[:collapsedLines], "\n") + "\n…"
		}
	}
	if m.width > 4 {
		body = lipgloss.NewStyle().Width(m.width - 4).Render(body)
	}
	sections = append(sections, body)

	if m.long {
		hint := "Long content collapsed. Press v to expand."
		if m.expanded {
			hint = "Press v to collapse."
		}
		sections = append(sections, "", theme.HelpStyle.Render(hint))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.msg != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
