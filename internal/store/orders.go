// ABOUTME: Order ledger persistence: atomic checkout of a basket into an immutable order
// ABOUTME: Orders carry a JSON snapshot of their items so later catalog changes never alter history

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ensure SQLiteStore implements OrderStore.
var _ OrderStore = (*SQLiteStore)(nil)

const orderSelect = `
	SELECT id, reference, account_id, total_amount, status, items, created_at
	FROM orders
`

// PlaceOrder turns the account's basket into an order and clears the basket in
// a single transaction. Lines with a quantity below 1 are not charged, but a
// successful checkout still clears them with the rest of the basket.
// Returns ErrEmptyBasket, with nothing written, if no chargeable line exists;
// a basket holding only such lines is left as it was.
func (s *SQLiteStore) PlaceOrder(ctx context.Context, accountID int64) (*Order, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	order := &Order{
		Reference: uuid.NewString(),
		AccountID: accountID,
		Status:    OrderStatusPlaced,
		CreatedAt: s.now(),
	}

	err := s.inTx(ctx, "place order", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, lineSelect+` WHERE account_id = ? ORDER BY id`, accountID)
		if err != nil {
			return fault("querying basket", err)
		}
		lines, err := scanLines(rows)
		rows.Close()
		if err != nil {
			return err
		}

		order.Items, order.Total = snapshot(lines)
		if len(order.Items) == 0 {
			return ErrEmptyBasket
		}

		itemsJSON, err := json.Marshal(order.Items)
		if err != nil {
			return fmt.Errorf("encoding order items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO orders (reference, account_id, total_amount, status, items, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			order.Reference,
			accountID,
			order.Total.String(),
			order.Status,
			string(itemsJSON),
			formatTime(order.CreatedAt),
		)
		if err != nil {
			return fault("inserting order", err)
		}
		if order.ID, err = result.LastInsertId(); err != nil {
			return fault("reading order id", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM basket_lines WHERE account_id = ?`, accountID); err != nil {
			return fault("clearing basket", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("placed order",
		"id", order.ID,
		"reference", order.Reference,
		"account_id", accountID,
		"total", order.Total.StringFixed(2),
		"items", len(order.Items),
	)
	return order, nil
}

// snapshot freezes chargeable lines into order items and sums their subtotals.
func snapshot(lines []*BasketLine) ([]OrderItem, decimal.Decimal) {
	total := decimal.Zero
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
		total = total.Add(l.Subtotal())
	}
	return items, total
}

// GetOrder retrieves an order by id.
// Returns ErrNotFound if the order doesn't exist.
func (s *SQLiteStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.scanOrder(s.db.QueryRowContext(ctx, orderSelect+` WHERE id = ?`, id))
}

// ListOrders returns the account's orders, most recent first.
func (s *SQLiteStore) ListOrders(ctx context.Context, accountID int64) ([]*Order, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		orderSelect+` WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fault("querying orders", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("iterating orders", err)
	}
	return orders, nil
}

func (s *SQLiteStore) scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var reference sql.NullString
	var itemsJSON, createdAt string

	err := row.Scan(&o.ID, &reference, &o.AccountID, &o.Total, &o.Status, &itemsJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fault("scanning order", err)
	}

	o.Reference = reference.String
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items of order %d: %w: %w", o.ID, ErrStorageFault, err)
	}
	if parsed, err := parseTime(createdAt); err != nil {
		s.logger.Warn("failed to parse order created_at", "id", o.ID, "error", err)
	} else {
		o.CreatedAt = parsed
	}

	return &o, nil
}
