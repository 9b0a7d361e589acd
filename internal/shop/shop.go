// ABOUTME: Shop ties the store, the session keeper and the catalog together
// ABOUTME: Sign-in returns an explicit Session handle instead of a global current account

package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/lemon-store/internal/catalog"
	"github.com/2389/lemon-store/internal/session"
	"github.com/2389/lemon-store/internal/store"
)

// ErrNoSession is returned by Resume when nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// Shop is the entry point for callers. It holds no per-account state.
type Shop struct {
	store   store.Store
	keeper  *session.Keeper
	catalog catalog.Catalog
	logger  *slog.Logger
}

// New creates a Shop. The store must already be initialized.
func New(st store.Store, keeper *session.Keeper, cat catalog.Catalog) *Shop {
	return &Shop{
		store:   st,
		keeper:  keeper,
		catalog: cat,
		logger:  slog.Default().With("component", "shop"),
	}
}

// Register creates an account and signs it in.
func (s *Shop) Register(ctx context.Context, reg *store.Registration) (*Session, error) {
	id, err := s.store.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := s.keeper.Set(id); err != nil {
		return nil, err
	}

	s.logger.Info("registered account", "account_id", id)
	return s.Session(id), nil
}

// Login checks credentials and signs the account in.
// Returns store.ErrNotFound for an unknown email or wrong secret.
func (s *Shop) Login(ctx context.Context, email, secret string) (*Session, error) {
	account, err := s.store.Authenticate(ctx, email, secret)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("login rejected")
		}
		return nil, err
	}
	if err := s.keeper.Set(account.ID); err != nil {
		return nil, err
	}

	s.logger.Info("signed in", "account_id", account.ID)
	return s.Session(account.ID), nil
}

// Resume returns a handle for the account remembered by the session keeper.
// The id is not checked against the store.
func (s *Shop) Resume(ctx context.Context) (*Session, error) {
	id, ok, err := s.keeper.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}
	return s.Session(id), nil
}

// Session returns a handle scoped to accountID without touching the keeper.
func (s *Shop) Session(accountID int64) *Session {
	return &Session{shop: s, accountID: accountID}
}

// Menu returns the catalog the shop adds products from.
func (s *Shop) Menu() catalog.Catalog {
	return s.catalog
}

// product resolves a catalog entry into the snapshot stored on a basket line.
func (s *Shop) product(id string) (store.Product, error) {
	p, err := s.catalog.Product(id)
	if err != nil {
		return store.Product{}, fmt.Errorf("looking up product: %w", err)
	}
	return store.Product{ID: p.ID, Name: p.Name, Price: p.Price, Glyph: p.Glyph}, nil
}
