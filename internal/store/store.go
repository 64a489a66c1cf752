package store

import (
	"context"

	"github.com/nhle/tempmail/internal/model"
)

// Store defines the local persistence the client needs: the last-used
// mailbox hint and the history of mailboxes this client has used.
type Store interface {
	// === Last-used mailbox ===

	// SetLastMailbox records address as the mailbox to resume on launch.
	SetLastMailbox(ctx context.Context, address string) error

	// LastMailbox returns the recorded mailbox, or "" when there is none.
	LastMailbox(ctx context.Context) (string, error)

	// ClearLastMailbox forgets the last-used hint.
	ClearLastMailbox(ctx context.Context) error

	// === Mailbox history ===

	// RememberMailbox adds address to the history or bumps its last-used
	// time if it is already known.
	RememberMailbox(ctx context.Context, address string) error

	// KnownMailboxes returns the history, most recently used first.
	KnownMailboxes(ctx context.Context) ([]model.KnownMailbox, error)

	// ForgetMailbox removes address from the history. Unknown addresses
	// are ignored.
	ForgetMailbox(ctx context.Context, address string) error

	Close() error
}
