package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/normalize"
	"github.com/nhle/tempmail/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
// The subject is decoded once when the item is built.
type MessageItem struct {
	Message model.Message
	Subject string
}

// NewMessageItem decodes msg's subject for display.
func NewMessageItem(msg model.Message) MessageItem {
	subject := normalize.DecodeSubject(msg.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	return MessageItem{Message: msg, Subject: subject}
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string { return i.Subject + " " + i.Message.Sender }

// Title returns the decoded subject.
func (i MessageItem) Title() string { return i.Subject }

// Description returns the sender and age.
func (i MessageItem) Description() string {
	return i.Message.Sender + " | " + relativeTime(i.Message.Timestamp)
}

// ItemDelegate implements list.ItemDelegate for rendering messages.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

var (
	senderStyle  = lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(28).MaxWidth(28)
	timeStyle    = lipgloss.NewStyle().Foreground(theme.ColorGray)
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	maxSubjectCh = 80
)

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	code := ""
	if c := mi.Message.Code; c != "" {
		code = " " + theme.CodeStyle.Render("["+c+"]")
	}

	subject := mi.Subject
	if r := []rune(subject); len(r) > maxSubjectCh {
		subject = string(r[:maxSubjectCh-1]) + "…"
	}

	line := fmt.Sprintf("%s %s%s  %s",
		senderStyle.Render(mi.Message.Sender),
		subject,
		code,
		timeStyle.Render(relativeTime(mi.Message.Timestamp)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = itemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("Jan 02")
	}
}
