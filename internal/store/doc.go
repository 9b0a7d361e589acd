// Package store provides persistent storage for accounts, baskets and orders using SQLite.
//
// # Architecture
//
// The store package exposes narrow interfaces that SQLiteStore implements in a
// single struct:
//
//   - AccountStore: registration, authentication, profile updates
//   - BasketStore: the mutable pre-checkout line collection of one account
//   - OrderStore: the append-only order ledger
//
// # Data Models
//
//   - Account: a registered user; email is unique ignoring case
//   - BasketLine: one product in an account's basket, unique per (account, product)
//   - Order: an immutable checkout record with a JSON item snapshot
//
// Prices and totals are shopspring decimals stored as TEXT so that arithmetic is exact.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode and full fsync so committed writes survive
// a crash:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA synchronous=FULL;
//	PRAGMA foreign_keys=ON;
//
// The connection pool holds exactly one connection. Every write, including the
// add-or-increment of AddToBasket and the read/insert/clear of PlaceOrder, runs
// in its own transaction on that connection, so concurrent callers are applied
// one after another.
//
// # Migrations
//
// Open does not touch the schema. Initialize applies the numbered migrations in
// this package, recording progress in PRAGMA user_version, and may be called any
// number of times. Until it has run on a handle, data methods return ErrUninitialized.
// NewSQLiteStore does both.
//
// # Error Handling
//
//   - ErrUninitialized: Initialize has not run, or the tables are missing
//   - ErrDuplicateContact: email already registered
//   - ErrNotFound: lookup miss, including failed authentication
//   - ErrEmptyBasket: checkout with nothing to charge
//   - ErrStorageFault: wraps driver failures; the driver error stays reachable with errors.As
//
// # Testing
//
// Use NewSQLiteStore on a path under t.TempDir() for tests with real SQLite.
package store
