// Package user holds the buyer model consumed by order placement.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Tier classifies a user for member pricing. Unknown tiers receive no
// member discount.
type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierVIP      Tier = "VIP"
	TierSVIP     Tier = "SVIP"
)

// Status is the account state.
type Status string

const (
	StatusEnabled  Status = "ENABLED"
	StatusDisabled Status = "DISABLED"
)

var (
	// ErrNotFound is returned when the requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDisabled is returned when a disabled account attempts to order.
	ErrDisabled = errors.New("user is disabled")
)

// User is a buyer account.
type User struct {
	ID       string
	Username string
	Status   Status
	Tier     Tier
}

// Repository defines read operations for user accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
