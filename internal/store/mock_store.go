// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	accounts map[int64]*Account    // keyed by account ID
	emails   map[string]int64      // keyed by lowercased email -> account ID
	lines    map[int64]*BasketLine // keyed by line ID
	orders   map[int64]*Order      // keyed by order ID
	nextID   map[string]int64      // per-table autoincrement
	now      func() time.Time

	// Fault, when set, is returned wrapped in ErrStorageFault by every call.
	Fault error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[int64]*Account),
		emails:   make(map[string]int64),
		lines:    make(map[int64]*BasketLine),
		orders:   make(map[int64]*Order),
		nextID:   make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MockStore) id(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

func (m *MockStore) fault(op string) error {
	if m.Fault != nil {
		return fault(op, m.Fault)
	}
	return nil
}

// Register stores a new account.
func (m *MockStore) Register(ctx context.Context, reg *Registration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("inserting account"); err != nil {
		return 0, err
	}

	email := strings.TrimSpace(reg.Email)
	if _, taken := m.emails[strings.ToLower(email)]; taken {
		return 0, ErrDuplicateContact
	}

	// MinCost keeps tests fast; the hash is still a real bcrypt hash
	hash, err := hashSecret(reg.Secret, bcrypt.MinCost)
	if err != nil {
		return 0, err
	}

	a := &Account{
		ID:                    m.id("accounts"),
		FirstName:             reg.FirstName,
		LastName:              reg.LastName,
		Email:                 email,
		PasswordHash:          hash,
		Phone:                 reg.Phone,
		NotifyOrderStatuses:   true,
		NotifyPasswordChanges: true,
		NotifySpecialOffers:   true,
		NotifyNewsletter:      true,
		CreatedAt:             m.now(),
	}
	m.accounts[a.ID] = a
	m.emails[strings.ToLower(email)] = a.ID

	return a.ID, nil
}

// Authenticate verifies an email and secret.
func (m *MockStore) Authenticate(ctx context.Context, email, secret string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("querying account"); err != nil {
		return nil, err
	}

	id, ok := m.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	a := m.accounts[id]

	if err := checkSecret(a.PasswordHash, secret); err != nil {
		return nil, err
	}

	result := *a
	return &result, nil
}

// GetAccount retrieves an account by ID.
func (m *MockStore) GetAccount(ctx context.Context, id int64) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("querying account"); err != nil {
		return nil, err
	}

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *a
	return &result, nil
}

// UpdateAccount overwrites every profile field.
func (m *MockStore) UpdateAccount(ctx context.Context, id int64, update *ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("updating account"); err != nil {
		return err
	}

	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}

	email := strings.TrimSpace(update.Email)
	key := strings.ToLower(email)
	if owner, taken := m.emails[key]; taken && owner != id {
		return ErrDuplicateContact
	}
	delete(m.emails, strings.ToLower(a.Email))
	m.emails[key] = id

	a.FirstName = update.FirstName
	a.LastName = update.LastName
	a.Email = email
	a.Phone = update.Phone
	a.Avatar = nil
	if update.Avatar != nil {
		avatar := *update.Avatar
		a.Avatar = &avatar
	}
	a.NotifyOrderStatuses = update.NotifyOrderStatuses
	a.NotifyPasswordChanges = update.NotifyPasswordChanges
	a.NotifySpecialOffers = update.NotifySpecialOffers
	a.NotifyNewsletter = update.NotifyNewsletter

	return nil
}

// ChangeSecret replaces an account's secret.
func (m *MockStore) ChangeSecret(ctx context.Context, id int64, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("updating secret"); err != nil {
		return err
	}

	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}

	hash, err := hashSecret(secret, bcrypt.MinCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// accountLines returns an account's lines ordered by line ID. Caller holds the lock.
func (m *MockStore) accountLines(accountID int64) []*BasketLine {
	var out []*BasketLine
	for _, l := range m.lines {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBasket returns an account's lines in insertion order.
func (m *MockStore) ListBasket(ctx context.Context, accountID int64) ([]*BasketLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("listing basket"); err != nil {
		return nil, err
	}

	lines := m.accountLines(accountID)
	result := make([]*BasketLine, len(lines))
	for i, l := range lines {
		c := *l
		result[i] = &c
	}
	return result, nil
}

// GetBasketLine retrieves a line by ID.
func (m *MockStore) GetBasketLine(ctx context.Context, lineID int64) (*BasketLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("querying basket line"); err != nil {
		return nil, err
	}

	l, ok := m.lines[lineID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *l
	return &result, nil
}

// BasketCount sums an account's quantities.
func (m *MockStore) BasketCount(ctx context.Context, accountID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("counting basket"); err != nil {
		return 0, err
	}

	n := 0
	for _, l := range m.accountLines(accountID) {
		n += l.Quantity
	}
	return n, nil
}

// AddToBasket inserts a line or increments the existing one.
func (m *MockStore) AddToBasket(ctx context.Context, accountID int64, product Product) (*BasketLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("add to basket"); err != nil {
		return nil, err
	}
	if _, ok := m.accounts[accountID]; !ok {
		return nil, ErrNotFound
	}

	for _, l := range m.lines {
		if l.AccountID == accountID && l.ProductID == product.ID {
			l.Quantity++
			result := *l
			return &result, nil
		}
	}

	l := &BasketLine{
		ID:        m.id("basket_lines"),
		AccountID: accountID,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Glyph:     product.Glyph,
		Quantity:  1,
	}
	m.lines[l.ID] = l

	result := *l
	return &result, nil
}

// SetQuantity overwrites a line's quantity.
func (m *MockStore) SetQuantity(ctx context.Context, lineID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("setting quantity"); err != nil {
		return err
	}

	l, ok := m.lines[lineID]
	if !ok {
		return ErrNotFound
	}
	l.Quantity = quantity
	return nil
}

// IncrementLine adds one to a line's quantity.
func (m *MockStore) IncrementLine(ctx context.Context, lineID int64) (*BasketLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("incrementing line"); err != nil {
		return nil, err
	}

	l, ok := m.lines[lineID]
	if !ok {
		return nil, ErrNotFound
	}
	l.Quantity++
	result := *l
	return &result, nil
}

// DecrementLine takes one off a line's quantity, deleting it at 1 or less.
func (m *MockStore) DecrementLine(ctx context.Context, lineID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("decrementing line"); err != nil {
		return false, err
	}

	l, ok := m.lines[lineID]
	if !ok {
		return false, ErrNotFound
	}
	if l.Quantity <= 1 {
		delete(m.lines, lineID)
		return true, nil
	}
	l.Quantity--
	return false, nil
}

// RemoveLine deletes a line; a missing line is not an error.
func (m *MockStore) RemoveLine(ctx context.Context, lineID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("removing line"); err != nil {
		return err
	}

	delete(m.lines, lineID)
	return nil
}

// ClearBasket deletes all of an account's lines.
func (m *MockStore) ClearBasket(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("clearing basket"); err != nil {
		return err
	}

	for _, l := range m.accountLines(accountID) {
		delete(m.lines, l.ID)
	}
	return nil
}

// PlaceOrder snapshots the chargeable lines into an order and clears the basket.
func (m *MockStore) PlaceOrder(ctx context.Context, accountID int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fault("place order"); err != nil {
		return nil, err
	}

	lines := m.accountLines(accountID)
	items, total := snapshot(lines)
	if len(items) == 0 {
		return nil, ErrEmptyBasket
	}

	o := &Order{
		ID:        m.id("orders"),
		Reference: uuid.NewString(),
		AccountID: accountID,
		Total:     total,
		Status:    OrderStatusPlaced,
		Items:     items,
		CreatedAt: m.now(),
	}
	m.orders[o.ID] = o

	for _, l := range lines {
		delete(m.lines, l.ID)
	}

	return copyOrder(o), nil
}

// GetOrder retrieves an order by ID.
func (m *MockStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("querying order"); err != nil {
		return nil, err
	}

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

// ListOrders returns an account's orders, newest first.
func (m *MockStore) ListOrders(ctx context.Context, accountID int64) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fault("listing orders"); err != nil {
		return nil, err
	}

	var out []*Order
	for _, o := range m.orders {
		if o.AccountID == accountID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

func copyOrder(o *Order) *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)
