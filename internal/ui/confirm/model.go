// Package confirm wraps a huh yes/no form for destructive actions.
package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg reports how the dialog was closed. Subject is the value the
// dialog was opened for, such as a mailbox address.
type ResultMsg struct {
	Subject   string
	Confirmed bool
}

// Model is a single-question confirmation dialog.
type Model struct {
	form    *huh.Form
	subject string
	answer  *bool
	done    bool
	width   int
	height  int
}

// New builds a dialog asking title about subject.
func New(title, description, subject string, width, height int) Model {
	answer := new(bool)
	m := Model{subject: subject, answer: answer, width: width, height: height}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(answer),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Subject returns the value the dialog was opened for.
func (m Model) Subject() string {
	return m.subject
}

// Update forwards msg to the form and emits a ResultMsg once it closes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.done = true
		res := ResultMsg{Subject: m.subject, Confirmed: *m.answer}
		return m, func() tea.Msg { return res }
	case huh.StateAborted:
		m.done = true
		res := ResultMsg{Subject: m.subject}
		return m, func() tea.Msg { return res }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}
