// ABOUTME: Basket line persistence: list, add-or-increment, quantity updates and removal
// ABOUTME: Add is an explicit insert-then-increment inside one transaction guarded by UNIQUE(account_id, product_id)

package store

import (
	"context"
	"database/sql"
	"errors"
)

// Ensure SQLiteStore implements BasketStore.
var _ BasketStore = (*SQLiteStore)(nil)

const lineSelect = `
	SELECT id, account_id, product_id, name, price, glyph, quantity
	FROM basket_lines
`

// ListBasket returns the account's basket lines in insertion order.
func (s *SQLiteStore) ListBasket(ctx context.Context, accountID int64) ([]*BasketLine, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, lineSelect+` WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fault("querying basket", err)
	}
	defer rows.Close()

	return scanLines(rows)
}

// GetBasketLine retrieves a single line.
// Returns ErrNotFound if the line doesn't exist.
func (s *SQLiteStore) GetBasketLine(ctx context.Context, lineID int64) (*BasketLine, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return scanLine(s.db.QueryRowContext(ctx, lineSelect+` WHERE id = ?`, lineID))
}

// BasketCount returns the total quantity across the account's lines.
func (s *SQLiteStore) BasketCount(ctx context.Context, accountID int64) (int, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM basket_lines WHERE account_id = ?`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fault("counting basket", err)
	}
	return count, nil
}

// AddToBasket inserts a line with quantity 1, or increments the existing line
// for the same product. An existing line keeps the name, price and glyph it was
// created with. Returns ErrNotFound if the account doesn't exist.
func (s *SQLiteStore) AddToBasket(ctx context.Context, accountID int64, product Product) (*BasketLine, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	var line *BasketLine
	err := s.inTx(ctx, "add to basket", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO basket_lines (account_id, product_id, name, price, glyph, quantity)
			VALUES (?, ?, ?, ?, ?, 1)
		`, accountID, product.ID, product.Name, product.Price.String(), product.Glyph)

		switch {
		case err == nil:
		case isConstraintViolation(err):
			// A line already exists; the failed insert left the transaction usable.
			if _, err := tx.ExecContext(ctx, `
				UPDATE basket_lines SET quantity = quantity + 1
				WHERE account_id = ? AND product_id = ?
			`, accountID, product.ID); err != nil {
				return fault("incrementing basket line", err)
			}
		case isForeignKeyViolation(err):
			return ErrNotFound
		default:
			return fault("inserting basket line", err)
		}

		line, err = scanLine(tx.QueryRowContext(ctx,
			lineSelect+` WHERE account_id = ? AND product_id = ?`, accountID, product.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("added to basket", "account_id", accountID, "product_id", product.ID, "quantity", line.Quantity)
	return line, nil
}

// SetQuantity overwrites a line's quantity. Values below 1 are stored as given;
// removing the line is the caller's decision.
// Returns ErrNotFound if the line doesn't exist.
func (s *SQLiteStore) SetQuantity(ctx context.Context, lineID int64, quantity int) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE basket_lines SET quantity = ? WHERE id = ?`, quantity, lineID)
	if err != nil {
		return fault("updating quantity", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fault("checking rows affected", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("set quantity", "line_id", lineID, "quantity", quantity)
	return nil
}

// IncrementLine adds one to a line's quantity in place.
// Returns ErrNotFound if the line doesn't exist; a removed line stays removed.
func (s *SQLiteStore) IncrementLine(ctx context.Context, lineID int64) (*BasketLine, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	var line *BasketLine
	err := s.inTx(ctx, "increment line", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE basket_lines SET quantity = quantity + 1 WHERE id = ?`, lineID)
		if err != nil {
			return fault("incrementing basket line", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fault("checking rows affected", err)
		}
		if rows == 0 {
			return ErrNotFound
		}

		line, err = scanLine(tx.QueryRowContext(ctx, lineSelect+` WHERE id = ?`, lineID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("incremented basket line", "line_id", lineID, "quantity", line.Quantity)
	return line, nil
}

// DecrementLine takes one off a line's quantity, deleting the line instead
// when its quantity is 1 or less. removed reports whether the line was deleted.
// Returns ErrNotFound if the line doesn't exist.
func (s *SQLiteStore) DecrementLine(ctx context.Context, lineID int64) (bool, error) {
	if err := s.checkReady(); err != nil {
		return false, err
	}

	var removed bool
	err := s.inTx(ctx, "decrement line", func(tx *sql.Tx) error {
		var quantity int
		err := tx.QueryRowContext(ctx, `SELECT quantity FROM basket_lines WHERE id = ?`, lineID).Scan(&quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fault("querying quantity", err)
		}

		if quantity <= 1 {
			removed = true
			_, err = tx.ExecContext(ctx, `DELETE FROM basket_lines WHERE id = ?`, lineID)
			return fault("deleting basket line", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE basket_lines SET quantity = quantity - 1 WHERE id = ?`, lineID)
		return fault("decrementing basket line", err)
	})
	if err != nil {
		return false, err
	}

	s.logger.Debug("decremented basket line", "line_id", lineID, "removed", removed)
	return removed, nil
}

// RemoveLine deletes a line. Removing a line that doesn't exist is a no-op.
func (s *SQLiteStore) RemoveLine(ctx context.Context, lineID int64) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM basket_lines WHERE id = ?`, lineID); err != nil {
		return fault("deleting basket line", err)
	}

	s.logger.Debug("removed basket line", "line_id", lineID)
	return nil
}

// ClearBasket deletes every line for the account.
func (s *SQLiteStore) ClearBasket(ctx context.Context, accountID int64) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM basket_lines WHERE account_id = ?`, accountID); err != nil {
		return fault("clearing basket", err)
	}

	s.logger.Debug("cleared basket", "account_id", accountID)
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(row rowScanner) (*BasketLine, error) {
	var l BasketLine
	err := row.Scan(&l.ID, &l.AccountID, &l.ProductID, &l.Name, &l.Price, &l.Glyph, &l.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fault("scanning basket line", err)
	}
	return &l, nil
}

func scanLines(rows *sql.Rows) ([]*BasketLine, error) {
	var lines []*BasketLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterating basket", err)
	}
	return lines, nil
}
