// ABOUTME: Tests for account registration, authentication and profile updates
// ABOUTME: Covers case-insensitive email uniqueness and exact secret matching

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Register(ctx, &Registration{
		FirstName: "Tilly",
		LastName:  "Lemon",
		Email:     "  tilly@example.com ",
		Secret:    "s3cret",
		Phone:     "555-0100",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	account, err := store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tilly", account.FirstName)
	assert.Equal(t, "Lemon", account.LastName)
	assert.Equal(t, "tilly@example.com", account.Email)
	assert.Equal(t, "555-0100", account.Phone)
	assert.Nil(t, account.Avatar)
	assert.NotEqual(t, "s3cret", account.PasswordHash, "secret must not be stored in plain text")
	assert.False(t, account.CreatedAt.IsZero())

	// Notification preferences default to on
	assert.True(t, account.NotifyOrderStatuses)
	assert.True(t, account.NotifyPasswordChanges)
	assert.True(t, account.NotifySpecialOffers)
	assert.True(t, account.NotifyNewsletter)
}

func TestRegister_DuplicateContactIgnoresCase(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	registerTestAccount(t, store, "tilly@example.com")

	_, err := store.Register(ctx, &Registration{FirstName: "Other", Email: "Tilly@Example.COM", Secret: "x"})
	assert.ErrorIs(t, err, ErrDuplicateContact)
}

func TestAuthenticate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")

	tests := []struct {
		name    string
		email   string
		secret  string
		wantErr error
	}{
		{name: "exact match", email: "tilly@example.com", secret: "lemon-secret"},
		{name: "email ignores case", email: "TILLY@example.com", secret: "lemon-secret"},
		{name: "email is trimmed", email: " tilly@example.com ", secret: "lemon-secret"},
		{name: "secret is case sensitive", email: "tilly@example.com", secret: "LEMON-SECRET", wantErr: ErrNotFound},
		{name: "wrong secret", email: "tilly@example.com", secret: "nope", wantErr: ErrNotFound},
		{name: "unknown email", email: "nobody@example.com", secret: "lemon-secret", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := store.Authenticate(ctx, tt.email, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, account.ID)
		})
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetAccount(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAccount_OverwritesAllFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")

	avatar := "file:///avatars/tilly.png"
	err := store.UpdateAccount(ctx, id, &ProfileUpdate{
		FirstName:             "Matilda",
		LastName:              "Lemon",
		Email:                 "matilda@example.com",
		Phone:                 "555-0199",
		Avatar:                &avatar,
		NotifyOrderStatuses:   true,
		NotifyPasswordChanges: false,
		NotifySpecialOffers:   false,
		NotifyNewsletter:      true,
	})
	require.NoError(t, err)

	account, err := store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Matilda", account.FirstName)
	assert.Equal(t, "Lemon", account.LastName)
	assert.Equal(t, "matilda@example.com", account.Email)
	assert.Equal(t, "555-0199", account.Phone)
	require.NotNil(t, account.Avatar)
	assert.Equal(t, avatar, *account.Avatar)
	assert.True(t, account.NotifyOrderStatuses)
	assert.False(t, account.NotifyPasswordChanges)
	assert.False(t, account.NotifySpecialOffers)
	assert.True(t, account.NotifyNewsletter)

	// Omitted values are written as zero values, not preserved
	require.NoError(t, store.UpdateAccount(ctx, id, &ProfileUpdate{FirstName: "Matilda", Email: "matilda@example.com"}))
	account, err = store.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, account.Avatar)
	assert.Empty(t, account.Phone)
	assert.False(t, account.NotifyOrderStatuses)
	assert.False(t, account.NotifyNewsletter)

	// The secret is untouched by profile updates
	_, err = store.Authenticate(ctx, "matilda@example.com", "lemon-secret")
	assert.NoError(t, err)
}

func TestUpdateAccount_DuplicateContact(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	registerTestAccount(t, store, "tilly@example.com")
	other := registerTestAccount(t, store, "otto@example.com")

	err := store.UpdateAccount(ctx, other, &ProfileUpdate{FirstName: "Otto", Email: "TILLY@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateContact)

	// Changing only the case of one's own address is allowed
	err = store.UpdateAccount(ctx, other, &ProfileUpdate{FirstName: "Otto", Email: "Otto@Example.com"})
	assert.NoError(t, err)
}

func TestUpdateAccount_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateAccount(context.Background(), 99, &ProfileUpdate{FirstName: "Ghost", Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeSecret(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := registerTestAccount(t, store, "tilly@example.com")

	require.NoError(t, store.ChangeSecret(ctx, id, "new-secret"))

	_, err := store.Authenticate(ctx, "tilly@example.com", "lemon-secret")
	assert.ErrorIs(t, err, ErrNotFound)

	account, err := store.Authenticate(ctx, "tilly@example.com", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)

	assert.ErrorIs(t, store.ChangeSecret(ctx, 99, "x"), ErrNotFound)
}

func TestAuthenticate_SecretsLongerThan72Bytes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("x", 80)
	id, err := store.Register(ctx, &Registration{FirstName: "Tilly", Email: "tilly@example.com", Secret: long})
	require.NoError(t, err, "secrets past bcrypt's input limit are accepted")

	account, err := store.Authenticate(ctx, "tilly@example.com", long)
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)

	// Same first 72 bytes, different tail
	_, err = store.Authenticate(ctx, "tilly@example.com", strings.Repeat("x", 72)+"EXTRA")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Authenticate(ctx, "tilly@example.com", long[:72])
	assert.ErrorIs(t, err, ErrNotFound)

	exact := strings.Repeat("y", 72)
	require.NoError(t, store.ChangeSecret(ctx, id, exact))
	_, err = store.Authenticate(ctx, "tilly@example.com", exact+"EXTRA")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Authenticate(ctx, "tilly@example.com", exact)
	assert.NoError(t, err)
}
