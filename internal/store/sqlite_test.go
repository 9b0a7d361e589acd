// ABOUTME: Tests for SQLite store opening, schema initialization and migrations
// ABOUTME: Covers idempotent Initialize, uninitialized handles, WAL mode and error classification

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created")
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created in nested directory")
}

func TestOpen_EnablesWAL(t *testing.T) {
	store := setupTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_UninitializedStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Register(ctx, &Registration{FirstName: "A", Email: "a@example.com", Secret: "x"})
	assert.ErrorIs(t, err, ErrUninitialized)

	_, err = store.ListBasket(ctx, 1)
	assert.ErrorIs(t, err, ErrUninitialized)

	_, err = store.AddToBasket(ctx, 1, testProduct("greek-salad", "Greek Salad", "12.99", "🥗"))
	assert.ErrorIs(t, err, ErrUninitialized)

	_, err = store.PlaceOrder(ctx, 1)
	assert.ErrorIs(t, err, ErrUninitialized)

	_, err = store.ListOrders(ctx, 1)
	assert.ErrorIs(t, err, ErrUninitialized)

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestInitialize_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id := registerTestAccount(t, store, "tilly@example.com")
	_, err := store.AddToBasket(ctx, id, testProduct("greek-salad", "Greek Salad", "12.99", "🥗"))
	require.NoError(t, err)

	// Running again must leave existing rows alone
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Initialize(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	account, err := store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tilly@example.com", account.Email)

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestInitialize_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	id := registerTestAccount(t, store, "tilly@example.com")
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	account, err := reopened.GetAccount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Tilly", account.FirstName)
}

func TestInitialize_MigratesVersionOneDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	// Build a database that only has the base tables and one legacy order
	legacy, err := Open(dbPath, Options{})
	require.NoError(t, err)
	_, err = legacy.db.Exec(migrations[0].sql)
	require.NoError(t, err)
	_, err = legacy.db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	_, err = legacy.db.Exec(`INSERT INTO accounts (first_name, email, password_hash) VALUES ('Old', 'old@example.com', 'x')`)
	require.NoError(t, err)
	_, err = legacy.db.Exec(`
		INSERT INTO orders (account_id, total_amount, items, created_at)
		VALUES (1, '4.50', '[{"product_id":"lemonade","name":"Lemonade","qty":1,"price":"4.50"}]', '2025-01-02T03:04:05.000000000Z')
	`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	orders, err := store.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.NotEmpty(t, orders[0].Reference, "legacy order should be backfilled with a reference")
	assert.Equal(t, OrderStatusPlaced, orders[0].Status)
	assert.Equal(t, "4.5", orders[0].Total.String())
}

func TestFault(t *testing.T) {
	driverErr := errors.New("disk I/O error")

	err := fault("inserting order", driverErr)
	assert.ErrorIs(t, err, ErrStorageFault)
	assert.ErrorIs(t, err, driverErr)

	err = fault("querying basket", errors.New("SQL logic error: no such table: basket_lines (1)"))
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.NotErrorIs(t, err, ErrStorageFault)

	err = fault("querying basket", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStorageFault)

	assert.NoError(t, fault("noop", nil))
}

func TestConstraintClassifiers(t *testing.T) {
	unique := errors.New("constraint failed: UNIQUE constraint failed: accounts.email (2067)")
	foreign := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")

	assert.True(t, isConstraintViolation(unique))
	assert.False(t, isConstraintViolation(foreign))
	assert.True(t, isForeignKeyViolation(foreign))
	assert.False(t, isForeignKeyViolation(unique))
	assert.False(t, isConstraintViolation(nil))
}
