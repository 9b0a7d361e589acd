// Package session remembers the signed-in account between runs.
//
// A Keeper stores the account id as a decimal string in a Slot. FileSlot keeps
// the value in a small TOML file:
//
//	value = "42"
//	saved_at = 2026-10-16T09:30:00Z
//
// The session is independent of the database. Setting it is not transactional
// with any store write, so a crash between sign-in and Set simply leaves the
// user signed out.
package session
