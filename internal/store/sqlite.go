package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source"
)

// settingLastMailbox is the settings key holding the last-used mailbox.
const settingLastMailbox = "last_mailbox"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB

	// now is replaced in tests to get deterministic ordering.
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// SetLastMailbox records address as the mailbox to resume on launch.
func (s *SQLiteStore) SetLastMailbox(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return source.ErrEmptyAddress
	}
	const query = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, settingLastMailbox, address, s.now().UTC()); err != nil {
		return fmt.Errorf("saving last mailbox: %w", err)
	}
	return nil
}

// LastMailbox returns the recorded mailbox, or "" when there is none.
func (s *SQLiteStore) LastMailbox(ctx context.Context) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", settingLastMailbox)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading last mailbox: %w", err)
	}
	return value, nil
}

// ClearLastMailbox forgets the last-used hint.
func (s *SQLiteStore) ClearLastMailbox(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", settingLastMailbox); err != nil {
		return fmt.Errorf("clearing last mailbox: %w", err)
	}
	return nil
}

// RememberMailbox adds address to the history or bumps its last-used time.
func (s *SQLiteStore) RememberMailbox(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return source.ErrEmptyAddress
	}
	now := s.now().UTC()
	const query = `
		INSERT INTO mailboxes (id, address, created_at, last_used_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET last_used_at = excluded.last_used_at`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), address, now, now); err != nil {
		return fmt.Errorf("remembering mailbox %s: %w", address, err)
	}
	return nil
}

// KnownMailboxes returns the history, most recently used first.
func (s *SQLiteStore) KnownMailboxes(ctx context.Context) ([]model.KnownMailbox, error) {
	var boxes []model.KnownMailbox
	err := s.db.SelectContext(ctx, &boxes,
		"SELECT id, address, created_at, last_used_at FROM mailboxes ORDER BY last_used_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}
	return boxes, nil
}

// ForgetMailbox removes address from the history.
func (s *SQLiteStore) ForgetMailbox(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM mailboxes WHERE address = ?", address); err != nil {
		return fmt.Errorf("forgetting mailbox %s: %w", address, err)
	}
	return nil
}
