package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// SlotRangeError reports a toggle outside the progress grid.
type SlotRangeError struct {
	Index int
	Size  int
}

func (e SlotRangeError) Error() string {
	return fmt.Sprintf("slot %d out of range (grid has %d slots)", e.Index, e.Size)
}

// InsufficientCoinsError is returned by RedeemReward. The balance is left untouched.
type InsufficientCoinsError struct {
	Cost    int
	Balance int
}

func (e InsufficientCoinsError) Error() string {
	return fmt.Sprintf("not enough coins: need %d, have %d", e.Cost, e.Balance)
}

// ValidationError rejects user input before any entity is built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
