// ABOUTME: Session is the per-account handle for profile, basket and order operations
// ABOUTME: Line-level calls are checked against the handle's account before touching the store

package shop

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/2389/lemon-store/internal/store"
)

// Session is a signed-in account. Every call is scoped to that account.
type Session struct {
	shop      *Shop
	accountID int64
}

// Basket is a snapshot of an account's basket with derived totals.
type Basket struct {
	Lines []*store.BasketLine
	Count int             // sum of quantities
	Total decimal.Decimal // sum of line subtotals
}

// AccountID returns the account this handle acts for.
func (s *Session) AccountID() int64 {
	return s.accountID
}

// Profile returns the account record.
func (s *Session) Profile(ctx context.Context) (*store.Account, error) {
	return s.shop.store.GetAccount(ctx, s.accountID)
}

// UpdateProfile overwrites all profile fields.
func (s *Session) UpdateProfile(ctx context.Context, update *store.ProfileUpdate) error {
	return s.shop.store.UpdateAccount(ctx, s.accountID, update)
}

// ChangeSecret replaces the account's credential secret.
func (s *Session) ChangeSecret(ctx context.Context, secret string) error {
	return s.shop.store.ChangeSecret(ctx, s.accountID, secret)
}

// Basket returns the current lines in the order they were added.
func (s *Session) Basket(ctx context.Context) (*Basket, error) {
	lines, err := s.shop.store.ListBasket(ctx, s.accountID)
	if err != nil {
		return nil, err
	}

	b := &Basket{Lines: lines, Total: decimal.Zero}
	for _, l := range lines {
		b.Count += l.Quantity
		b.Total = b.Total.Add(l.Subtotal())
	}
	return b, nil
}

// Count returns the number of items in the basket.
func (s *Session) Count(ctx context.Context) (int, error) {
	return s.shop.store.BasketCount(ctx, s.accountID)
}

// Add puts one more of productID in the basket, using the catalog's current
// name, price and glyph if this is the first one.
func (s *Session) Add(ctx context.Context, productID string) (*store.BasketLine, error) {
	product, err := s.shop.product(productID)
	if err != nil {
		return nil, err
	}
	return s.shop.store.AddToBasket(ctx, s.accountID, product)
}

// SetQuantity overwrites the quantity of one of this account's lines.
func (s *Session) SetQuantity(ctx context.Context, lineID int64, quantity int) error {
	if _, err := s.line(ctx, lineID); err != nil {
		return err
	}
	return s.shop.store.SetQuantity(ctx, lineID, quantity)
}

// Increase adds one to a line in place. A line removed in the meantime is
// not brought back; the call returns store.ErrNotFound instead.
func (s *Session) Increase(ctx context.Context, lineID int64) (*store.BasketLine, error) {
	if _, err := s.line(ctx, lineID); err != nil {
		return nil, err
	}
	return s.shop.store.IncrementLine(ctx, lineID)
}

// Decrease takes one off a line, removing it instead when it would drop below 1.
// It reports whether the line was removed.
func (s *Session) Decrease(ctx context.Context, lineID int64) (removed bool, err error) {
	if _, err := s.line(ctx, lineID); err != nil {
		return false, err
	}
	return s.shop.store.DecrementLine(ctx, lineID)
}

// Remove deletes a line. A line that is absent, or belongs to someone else,
// is left alone and no error is returned.
func (s *Session) Remove(ctx context.Context, lineID int64) error {
	if _, err := s.line(ctx, lineID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.shop.store.RemoveLine(ctx, lineID)
}

// Clear empties the basket without placing an order.
func (s *Session) Clear(ctx context.Context) error {
	return s.shop.store.ClearBasket(ctx, s.accountID)
}

// Checkout places an order for the whole basket and empties it.
// Returns store.ErrEmptyBasket if there is nothing to order.
func (s *Session) Checkout(ctx context.Context) (*store.Order, error) {
	order, err := s.shop.store.PlaceOrder(ctx, s.accountID)
	if err != nil {
		return nil, err
	}
	s.shop.logger.Info("order placed",
		"account_id", s.accountID,
		"order_id", order.ID,
		"total", order.Total.StringFixed(2),
	)
	return order, nil
}

// Orders returns past orders, most recent first.
func (s *Session) Orders(ctx context.Context) ([]*store.Order, error) {
	return s.shop.store.ListOrders(ctx, s.accountID)
}

// Logout forgets the signed-in account. The handle must not be used afterwards.
func (s *Session) Logout() error {
	if err := s.shop.keeper.Clear(); err != nil {
		return err
	}
	s.shop.logger.Info("signed out", "account_id", s.accountID)
	return nil
}

// line fetches a basket line and checks it belongs to this account.
func (s *Session) line(ctx context.Context, lineID int64) (*store.BasketLine, error) {
	line, err := s.shop.store.GetBasketLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.AccountID != s.accountID {
		return nil, store.ErrNotFound
	}
	return line, nil
}
