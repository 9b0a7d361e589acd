// ABOUTME: SQLite implementation of the Store interfaces using modernc.org/sqlite
// ABOUTME: Opens the database in WAL mode and applies versioned schema migrations

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout is how long a connection waits on a locked database file.
const DefaultBusyTimeout = 5 * time.Second

// Options tunes how the database is opened.
type Options struct {
	BusyTimeout time.Duration
}

// SQLiteStore implements AccountStore, BasketStore and OrderStore using SQLite.
//
// The pool is limited to a single connection, so every transaction runs
// serially. Methods must never touch s.db while holding a transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	ready  atomic.Bool
	now    func() time.Time
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	s, err := Open(path, Options{})
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Open opens the SQLite database at path without touching the schema.
// Parent directories are created if needed. Every data operation fails with
// ErrUninitialized until Initialize has run.
func Open(path string, opts Options) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	logger.Info("SQLite store opened", "path", path)
	return &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// migration is one forward step of the schema. Versions are tracked in
// PRAGMA user_version and each step runs in its own transaction.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "base tables",
		sql: `
			CREATE TABLE IF NOT EXISTS accounts (
				id                      INTEGER PRIMARY KEY AUTOINCREMENT,
				first_name              TEXT NOT NULL,
				last_name               TEXT NOT NULL DEFAULT '',
				email                   TEXT NOT NULL COLLATE NOCASE,
				password_hash           TEXT NOT NULL,
				phone                   TEXT NOT NULL DEFAULT '',
				avatar                  TEXT,
				notify_order_statuses   INTEGER NOT NULL DEFAULT 1,
				notify_password_changes INTEGER NOT NULL DEFAULT 1,
				notify_special_offers   INTEGER NOT NULL DEFAULT 1,
				notify_newsletter       INTEGER NOT NULL DEFAULT 1,
				created_at              TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),

				UNIQUE (email)
			);

			CREATE TABLE IF NOT EXISTS basket_lines (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id INTEGER NOT NULL REFERENCES accounts(id),
				product_id TEXT NOT NULL,
				name       TEXT NOT NULL,
				price      TEXT NOT NULL,
				glyph      TEXT NOT NULL DEFAULT '',
				quantity   INTEGER NOT NULL DEFAULT 1,

				UNIQUE (account_id, product_id)
			);

			CREATE TABLE IF NOT EXISTS orders (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id   INTEGER NOT NULL REFERENCES accounts(id),
				total_amount TEXT NOT NULL,
				status       TEXT NOT NULL DEFAULT 'placed',
				items        TEXT NOT NULL,
				created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE INDEX IF NOT EXISTS idx_orders_account_created ON orders(account_id, created_at);
		`,
	},
	{
		name: "order reference",
		sql: `
			ALTER TABLE orders ADD COLUMN reference TEXT;
			UPDATE orders SET reference = lower(hex(randomblob(16))) WHERE reference IS NULL;
			CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_reference ON orders(reference);
		`,
	},
}

// Initialize brings the schema up to the latest version. It is idempotent:
// applied migrations are skipped and existing rows are left untouched.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	for i, m := range migrations {
		version := i + 1
		applied, err := s.applyMigration(ctx, version, m)
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", version, m.name, err)
		}
		if applied {
			s.logger.Info("applied migration", "version", version, "name", m.name)
		}
	}

	s.ready.Store(true)
	s.logger.Info("schema ready", "version", len(migrations))
	return nil
}

func (s *SQLiteStore) applyMigration(ctx context.Context, version int, m migration) (applied bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fault("begin migration", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current int
	if err = tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return false, fault("reading schema version", err)
	}
	if current >= version {
		err = tx.Rollback()
		return false, err
	}

	if _, err = tx.ExecContext(ctx, m.sql); err != nil {
		return false, fault("applying migration", err)
	}
	// PRAGMA does not accept bound parameters
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return false, fault("recording schema version", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fault("commit migration", err)
	}
	return true, nil
}

// SchemaVersion reports the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fault("reading schema version", err)
	}
	return version, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// checkReady fails fast when Initialize has not run on this handle.
func (s *SQLiteStore) checkReady() error {
	if !s.ready.Load() {
		return ErrUninitialized
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on any error.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault("begin "+op, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("rollback failed", "op", op, "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fault("commit "+op, err)
	}
	return nil
}

// fault classifies a driver error. A missing table means the schema was never
// created; context errors pass through; everything else is a storage fault.
func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrUninitialized)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFault, err)
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if the error is a SQLite FOREIGN KEY constraint violation
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// timeFormat is fixed-width so that stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
