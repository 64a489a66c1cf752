package source

import (
	"context"
	"errors"

	"github.com/nhle/tempmail/internal/model"
)

// ErrEmptyAddress is returned when an operation needs a mailbox address
// and none was given.
var ErrEmptyAddress = errors.New("mailbox address is empty")

// Source defines the contract of the disposable-mailbox backend.
type Source interface {
	// NewMailbox issues a fresh mailbox address.
	NewMailbox(ctx context.Context) (string, error)

	// Messages retrieves every message currently held for address.
	Messages(ctx context.Context, address string) ([]model.Message, error)

	// ListMailboxes returns the addresses the backend considers active.
	ListMailboxes(ctx context.Context) ([]string, error)

	// DeleteMailbox destroys address and its messages.
	DeleteMailbox(ctx context.Context, address string) error
}
