package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/theme"
)

// Command names understood by the palette.
const (
	New     = "new"
	Open    = "open"
	Refresh = "refresh"
	Delete  = "delete"
	Copy    = "copy"
	Export  = "export"
	Archive = "archive"
	Quit    = "quit"
)

// Usage lists every command with its argument, for the help view.
var Usage = []string{
	"new              generate a new mailbox",
	"open <address>   switch to an existing mailbox",
	"refresh          fetch messages now",
	"delete           delete the current mailbox",
	"copy             copy the current address",
	"export <file>    write messages to an mbox file",
	"archive          copy messages to the IMAP archive",
	"quit             exit",
}

var aliases = map[string]string{
	"n": New, "o": Open, "r": Refresh, "d": Delete,
	"c": Copy, "e": Export, "a": Archive, "q": Quit,
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits palette input into a command and its argument. Single-letter
// aliases are expanded. ok is false for unknown commands.
func Parse(input string) (CommandMsg, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return CommandMsg{}, false
	}

	name := strings.ToLower(fields[0])
	if full, ok := aliases[name]; ok {
		name = full
	}
	cmd := CommandMsg{Name: name, Arg: strings.Join(fields[1:], " ")}

	switch name {
	case New, Refresh, Delete, Copy, Archive, Quit:
		return cmd, true
	case Open, Export:
		return cmd, cmd.Arg != ""
	}
	return cmd, false
}

// UnknownMsg is emitted for input that is not a command.
type UnknownMsg string

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// NewModel creates a new command palette model.
func NewModel(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions([]string{New, Open + " ", Refresh, Delete, Copy, Export + " ", Archive, Quit})
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if raw == "" {
				return m, nil
			}
			if cmd, ok := Parse(raw); ok {
				return m, func() tea.Msg { return cmd }
			}
			return m, func() tea.Msg { return UnknownMsg(raw) }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
