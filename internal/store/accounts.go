// ABOUTME: Account registration, authentication and profile persistence
// ABOUTME: Secrets are stored as bcrypt hashes; email uniqueness is enforced by the schema

package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Ensure SQLiteStore implements AccountStore.
var _ AccountStore = (*SQLiteStore)(nil)

// Register creates a new account and returns its id.
// Returns ErrDuplicateContact if the email (compared case-insensitively) is taken.
func (s *SQLiteStore) Register(ctx context.Context, reg *Registration) (int64, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	hash, err := hashSecret(reg.Secret, bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO accounts (first_name, last_name, email, password_hash, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		reg.FirstName,
		reg.LastName,
		strings.TrimSpace(reg.Email),
		hash,
		reg.Phone,
		formatTime(s.now()),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, ErrDuplicateContact
		}
		return 0, fault("inserting account", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fault("reading account id", err)
	}

	s.logger.Debug("created account", "id", id)
	return id, nil
}

// Authenticate looks up an account by email and verifies the secret.
// The email match ignores case; the secret match does not.
// Returns ErrNotFound for an unknown email or a wrong secret.
func (s *SQLiteStore) Authenticate(ctx context.Context, email, secret string) (*Account, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	account, err := s.scanAccount(s.db.QueryRowContext(ctx,
		accountSelect+` WHERE email = ?`, strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	if err := checkSecret(account.PasswordHash, secret); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by id.
// Returns ErrNotFound if the account doesn't exist.
func (s *SQLiteStore) GetAccount(ctx context.Context, id int64) (*Account, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.scanAccount(s.db.QueryRowContext(ctx, accountSelect+` WHERE id = ?`, id))
}

// UpdateAccount overwrites every mutable profile field.
// Returns ErrNotFound if the account doesn't exist and ErrDuplicateContact
// if the new email belongs to another account.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, id int64, update *ProfileUpdate) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	query := `
		UPDATE accounts
		SET first_name = ?, last_name = ?, email = ?, phone = ?, avatar = ?,
		    notify_order_statuses = ?, notify_password_changes = ?,
		    notify_special_offers = ?, notify_newsletter = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		update.FirstName,
		update.LastName,
		strings.TrimSpace(update.Email),
		update.Phone,
		nullString(update.Avatar),
		update.NotifyOrderStatuses,
		update.NotifyPasswordChanges,
		update.NotifySpecialOffers,
		update.NotifyNewsletter,
		id,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateContact
		}
		return fault("updating account", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fault("checking rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated account", "id", id)
	return nil
}

// ChangeSecret replaces the account's credential secret.
func (s *SQLiteStore) ChangeSecret(ctx context.Context, id int64, secret string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	hash, err := hashSecret(secret, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fault("updating secret", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fault("checking rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("changed secret", "id", id)
	return nil
}

// secretDigest reduces a secret of any length to 44 base64 bytes so bcrypt,
// which reads at most 72 bytes, sees all of it.
func secretDigest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func hashSecret(secret string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(secretDigest(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// checkSecret returns ErrNotFound when secret does not match hash.
func checkSecret(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), secretDigest(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("verifying secret: %w", err)
	}
	return nil
}

const accountSelect = `
	SELECT id, first_name, last_name, email, password_hash, phone, avatar,
	       notify_order_statuses, notify_password_changes, notify_special_offers, notify_newsletter,
	       created_at
	FROM accounts
`

func (s *SQLiteStore) scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var avatar sql.NullString
	var createdAt string

	err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.PasswordHash,
		&a.Phone,
		&avatar,
		&a.NotifyOrderStatuses,
		&a.NotifyPasswordChanges,
		&a.NotifySpecialOffers,
		&a.NotifyNewsletter,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fault("querying account", err)
	}

	if avatar.Valid {
		a.Avatar = &avatar.String
	}
	if parsed, err := parseTime(createdAt); err != nil {
		s.logger.Warn("failed to parse account created_at", "id", a.ID, "error", err)
	} else {
		a.CreatedAt = parsed
	}

	return &a, nil
}
