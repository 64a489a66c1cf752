package model

import (
	"strings"
	"time"
)

// KnownMailbox is a mailbox address this client has generated or used,
// kept in the local store so the picker can offer it again.
type KnownMailbox struct {
	ID         string    `json:"id" db:"id"`
	Address    string    `json:"address" db:"address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	LastUsedAt time.Time `json:"last_used_at" db:"last_used_at"`
}

// LocalPart returns the portion of a mailbox address before '@'.
// An address without '@' is returned unchanged.
func LocalPart(address string) string {
	if i := strings.IndexByte(address, '@'); i >= 0 {
		return address[:i]
	}
	return address
}
