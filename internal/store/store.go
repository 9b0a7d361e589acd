// ABOUTME: Store interfaces and data types for lemon-store persistence
// ABOUTME: Defines Account, BasketLine, Order structs and the sentinel errors callers match on

package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested entity does not exist.
// Authentication with wrong credentials also reports ErrNotFound.
var ErrNotFound = errors.New("not found")

// ErrUninitialized is returned when the schema has not been prepared with Initialize.
var ErrUninitialized = errors.New("store not initialized")

// ErrDuplicateContact is returned when an email address is already taken by another account.
var ErrDuplicateContact = errors.New("contact address already registered")

// ErrEmptyBasket is returned when placing an order for an account with no basket lines.
var ErrEmptyBasket = errors.New("basket is empty")

// ErrStorageFault wraps failures of the underlying database (I/O, corruption, disk full).
var ErrStorageFault = errors.New("storage fault")

// OrderStatusPlaced is the status every new order starts with.
const OrderStatusPlaced = "placed"

// Account is a registered user of the shop.
type Account struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string // bcrypt hash of the credential secret
	Phone        string
	Avatar       *string // nil when no avatar has been chosen

	NotifyOrderStatuses   bool
	NotifyPasswordChanges bool
	NotifySpecialOffers   bool
	NotifyNewsletter      bool

	CreatedAt time.Time
}

// Registration holds the inputs for creating an account.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Secret    string
	Phone     string
}

// ProfileUpdate is the complete set of mutable profile fields.
// Every field is written; there are no partial updates.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Avatar    *string

	NotifyOrderStatuses   bool
	NotifyPasswordChanges bool
	NotifySpecialOffers   bool
	NotifyNewsletter      bool
}

// Product is the catalog snapshot copied onto a basket line at first add.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Glyph string
}

// BasketLine is one (account, product) entry in a basket.
type BasketLine struct {
	ID        int64
	AccountID int64
	ProductID string
	Name      string
	Price     decimal.Decimal
	Glyph     string
	Quantity  int
}

// Subtotal returns price times quantity.
func (l *BasketLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderItem is the frozen copy of a basket line inside an order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// Order is an immutable record of a checkout.
type Order struct {
	ID        int64
	Reference string // public receipt code
	AccountID int64
	Total     decimal.Decimal
	Status    string
	Items     []OrderItem
	CreatedAt time.Time
}

// AccountStore defines account persistence.
type AccountStore interface {
	Register(ctx context.Context, reg *Registration) (int64, error)
	Authenticate(ctx context.Context, email, secret string) (*Account, error)
	GetAccount(ctx context.Context, id int64) (*Account, error)
	UpdateAccount(ctx context.Context, id int64, update *ProfileUpdate) error
	ChangeSecret(ctx context.Context, id int64, secret string) error
}

// BasketStore defines basket persistence. All mutations are serialized.
type BasketStore interface {
	ListBasket(ctx context.Context, accountID int64) ([]*BasketLine, error)
	GetBasketLine(ctx context.Context, lineID int64) (*BasketLine, error)
	BasketCount(ctx context.Context, accountID int64) (int, error)
	AddToBasket(ctx context.Context, accountID int64, product Product) (*BasketLine, error)
	SetQuantity(ctx context.Context, lineID int64, quantity int) error
	IncrementLine(ctx context.Context, lineID int64) (*BasketLine, error)
	DecrementLine(ctx context.Context, lineID int64) (removed bool, err error)
	RemoveLine(ctx context.Context, lineID int64) error
	ClearBasket(ctx context.Context, accountID int64) error
}

// OrderStore defines the append-only order ledger.
type OrderStore interface {
	PlaceOrder(ctx context.Context, accountID int64) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, accountID int64) ([]*Order, error)
}

// Store is everything the shop layer needs from persistence.
type Store interface {
	AccountStore
	BasketStore
	OrderStore

	// Close releases any resources held by the store
	Close() error
}
