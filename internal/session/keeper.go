// ABOUTME: Session keeper remembering which account is signed in across restarts
// ABOUTME: Converts account ids to and from the string value of a durable Slot

package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// ErrCorrupt is returned when the slot holds something other than an account id.
var ErrCorrupt = errors.New("session value is not an account id")

// Keeper holds the id of the signed-in account. It never consults the account
// store; a stale id is the caller's concern.
type Keeper struct {
	slot   Slot
	logger *slog.Logger
}

// NewKeeper creates a Keeper over slot.
func NewKeeper(slot Slot) *Keeper {
	return &Keeper{
		slot:   slot,
		logger: slog.Default().With("component", "session"),
	}
}

// Set records accountID as the signed-in account.
func (k *Keeper) Set(accountID int64) error {
	if err := k.slot.Set(strconv.FormatInt(accountID, 10)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	k.logger.Debug("session set", "account_id", accountID)
	return nil
}

// Get returns the signed-in account id; ok is false when nobody is signed in.
func (k *Keeper) Get() (accountID int64, ok bool, err error) {
	value, ok, err := k.slot.Get()
	if err != nil {
		return 0, false, fmt.Errorf("loading session: %w", err)
	}
	if !ok {
		return 0, false, nil
	}

	accountID, err = strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrCorrupt, value)
	}
	return accountID, true, nil
}

// Clear signs the current account out.
func (k *Keeper) Clear() error {
	if err := k.slot.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	k.logger.Debug("session cleared")
	return nil
}
