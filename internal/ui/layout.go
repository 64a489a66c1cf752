package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar: title, current mailbox and the sync
// indicator on the right.
func (l Layout) RenderHeader(title, mailbox, syncLabel string) string {
	left := theme.HeaderStyle.Render(title)
	if mailbox != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top,
			left,
			theme.HeaderStyle.Render(theme.MailboxStyle.
				Background(theme.HeaderStyle.GetBackground()).
				Render(mailbox)),
		)
	}

	right := theme.HeaderStyle.Render(
		theme.SyncStyle(syncLabel).
			Background(theme.HeaderStyle.GetBackground()).
			Render(syncLabel),
	)

	return fill(l.Width, left, right, theme.HeaderStyle)
}

// RenderStatusBar renders the bottom bar. A toast, when present, replaces
// the keyboard hints.
func (l Layout) RenderStatusBar(hints string, toast *model.Notification) string {
	if toast != nil {
		style := theme.ToastStyle(toast.Level)
		return fill(l.Width, style.Render(toast.Message), "", style)
	}
	return fill(l.Width, theme.StatusBarStyle.Render(hints), "", theme.StatusBarStyle)
}

// fill pads the gap between left and right with style's background.
func fill(width int, left, right string, style lipgloss.Style) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
