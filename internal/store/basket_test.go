// ABOUTME: Tests for basket persistence: add-or-increment, quantity changes and removal
// ABOUTME: Includes concurrent adds and steps that must never lose or resurrect a line

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAddToBasket_InsertsThenIncrements(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	salad := testProduct("greek-salad", "Greek Salad", "12.99", "🥗")

	line, err := store.AddToBasket(ctx, id, salad)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	line, err = store.AddToBasket(ctx, id, salad)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	require.Len(t, lines, 1, "repeat add must not create a second line")
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Greek Salad", lines[0].Name)
	assert.Equal(t, "🥗", lines[0].Glyph)
	assert.Equal(t, "12.99", lines[0].Price.String())
}

func TestAddToBasket_KeepsFirstSnapshot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")

	_, err := store.AddToBasket(ctx, id, testProduct("bruschetta", "Bruschetta", "6.50", "🍞"))
	require.NoError(t, err)

	// Catalog price and name changed since the first add
	line, err := store.AddToBasket(ctx, id, testProduct("bruschetta", "Bruschetta Deluxe", "8.00", "🥖"))
	require.NoError(t, err)

	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Bruschetta", line.Name)
	assert.Equal(t, "6.5", line.Price.String())
	assert.Equal(t, "🍞", line.Glyph)
}

func TestAddToBasket_UnknownAccount(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.AddToBasket(context.Background(), 404, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddToBasket_ConcurrentSameProduct(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	salad := testProduct("greek-salad", "Greek Salad", "12.99", "🥗")

	const adds = 20
	var g errgroup.Group
	for i := 0; i < adds; i++ {
		g.Go(func() error {
			_, err := store.AddToBasket(ctx, id, salad)
			return err
		})
	}
	require.NoError(t, g.Wait())

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, adds, lines[0].Quantity)
}

func TestAddToBasket_TwoNearSimultaneousAdds(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	product := testProduct("A", "A", "1.00", "")

	var g errgroup.Group
	g.Go(func() error { _, err := store.AddToBasket(ctx, id, product); return err })
	g.Go(func() error { _, err := store.AddToBasket(ctx, id, product); return err })
	require.NoError(t, g.Wait())

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestListBasket_InsertionOrderAndIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tilly := registerTestAccount(t, store, "tilly@example.com")
	otto := registerTestAccount(t, store, "otto@example.com")

	for _, p := range []Product{
		testProduct("lemonade", "Lemonade", "4.50", "🍋"),
		testProduct("greek-salad", "Greek Salad", "12.99", "🥗"),
		testProduct("bruschetta", "Bruschetta", "6.50", "🍞"),
	} {
		_, err := store.AddToBasket(ctx, tilly, p)
		require.NoError(t, err)
	}
	_, err := store.AddToBasket(ctx, otto, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	lines, err := store.ListBasket(ctx, tilly)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "lemonade", lines[0].ProductID)
	assert.Equal(t, "greek-salad", lines[1].ProductID)
	assert.Equal(t, "bruschetta", lines[2].ProductID)

	empty, err := store.ListBasket(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSetQuantity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	require.NoError(t, store.SetQuantity(ctx, line.ID, 5))
	got, err := store.GetBasketLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	// Zero is stored, not turned into a delete
	require.NoError(t, store.SetQuantity(ctx, line.ID, 0))
	got, err = store.GetBasketLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	assert.ErrorIs(t, store.SetQuantity(ctx, 9999, 3), ErrNotFound)
}

func TestRemoveLine(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveLine(ctx, line.ID))

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Removing again is a no-op
	assert.NoError(t, store.RemoveLine(ctx, line.ID))

	_, err = store.GetBasketLine(ctx, line.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementLine(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	line, err = store.IncrementLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Lemonade", line.Name)

	require.NoError(t, store.RemoveLine(ctx, line.ID))

	_, err = store.IncrementLine(ctx, line.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, lines, "a removed line must not come back")
}

func TestDecrementLine(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)
	require.NoError(t, store.SetQuantity(ctx, line.ID, 2))

	removed, err := store.DecrementLine(ctx, line.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := store.GetBasketLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	removed, err = store.DecrementLine(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.GetBasketLine(ctx, line.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.DecrementLine(ctx, line.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecrementLine_ConcurrentDecrements(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)
	require.NoError(t, store.SetQuantity(ctx, line.ID, 10))

	const decrements = 5
	var g errgroup.Group
	for i := 0; i < decrements; i++ {
		g.Go(func() error {
			_, err := store.DecrementLine(ctx, line.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := store.GetBasketLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 10-decrements, got.Quantity)
}

func TestIncrementLine_RacingRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")
	line, err := store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error { return store.RemoveLine(ctx, line.ID) })
	g.Go(func() error {
		_, err := store.IncrementLine(ctx, line.ID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	})
	require.NoError(t, g.Wait())

	lines, err := store.ListBasket(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, lines, "remove wins regardless of ordering")
}

func TestClearBasket(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tilly := registerTestAccount(t, store, "tilly@example.com")
	otto := registerTestAccount(t, store, "otto@example.com")

	for _, acct := range []int64{tilly, otto} {
		_, err := store.AddToBasket(ctx, acct, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
		require.NoError(t, err)
		_, err = store.AddToBasket(ctx, acct, testProduct("greek-salad", "Greek Salad", "12.99", "🥗"))
		require.NoError(t, err)
	}

	require.NoError(t, store.ClearBasket(ctx, tilly))

	lines, err := store.ListBasket(ctx, tilly)
	require.NoError(t, err)
	assert.Empty(t, lines)

	others, err := store.ListBasket(ctx, otto)
	require.NoError(t, err)
	assert.Len(t, others, 2, "clearing one basket must not touch another account")

	// Clearing an empty basket is a no-op
	assert.NoError(t, store.ClearBasket(ctx, tilly))
}

func TestBasketCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")

	count, err := store.BasketCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	salad := testProduct("greek-salad", "Greek Salad", "12.99", "🥗")
	_, err = store.AddToBasket(ctx, id, salad)
	require.NoError(t, err)
	_, err = store.AddToBasket(ctx, id, salad)
	require.NoError(t, err)
	_, err = store.AddToBasket(ctx, id, testProduct("lemonade", "Lemonade", "4.50", "🍋"))
	require.NoError(t, err)

	count, err = store.BasketCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
