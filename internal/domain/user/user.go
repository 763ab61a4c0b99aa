package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors for user lookups and registration.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Cart is the per-user cart mapping from product ID to quantity. It is stored
// server-side and mirrored transiently on the client; order placement reads
// the client-declared copy, not this one.
type Cart map[string]int

// User is a registered storefront customer.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Cart         Cart
}

// Repository defines persistence operations for users and their carts.
// SetCart and ClearCart are absolute writes: applying either twice leaves the
// same state, which the webhook reconciliation path relies on.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetCart(ctx context.Context, userID string, cart Cart) error
	ClearCart(ctx context.Context, userID string) error
}
