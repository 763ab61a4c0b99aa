package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshcart/storefront/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (id, name, email, password_hash, cart)
		VALUES ($1, $2, $3, $4, $5)`

	getUserByIDSQL = `SELECT id, name, email, password_hash, cart
		FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT id, name, email, password_hash, cart
		FROM users WHERE email = $1`

	setUserCartSQL = `UPDATE users SET cart = $2 WHERE id = $1`

	clearUserCartSQL = `UPDATE users SET cart = '{}'::jsonb WHERE id = $1`
)

// Postgres unique_violation.
const uniqueViolationCode = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL. The cart
// mapping lives in a JSONB column on the users row, so cart writes are
// single-document atomic replacements.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user. A duplicate email maps to user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	cart := u.Cart
	if cart == nil {
		cart = user.Cart{}
	}
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}

	_, err = r.pool.Exec(ctx, createUserSQL, u.ID, u.Name, u.Email, u.PasswordHash, cartJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// SetCart replaces the user's cart mapping wholesale.
func (r *UserRepository) SetCart(ctx context.Context, userID string, cart user.Cart) error {
	if cart == nil {
		cart = user.Cart{}
	}
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}
	if _, err := r.pool.Exec(ctx, setUserCartSQL, userID, cartJSON); err != nil {
		return fmt.Errorf("setting cart for user %q: %w", userID, err)
	}
	return nil
}

// ClearCart resets the cart to empty. Clearing an already-empty cart, or the
// cart of a missing user, is a no-op.
func (r *UserRepository) ClearCart(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearUserCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u        user.User
		cartJSON []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &cartJSON); err != nil {
		return user.User{}, err
	}
	if err := json.Unmarshal(cartJSON, &u.Cart); err != nil {
		return user.User{}, fmt.Errorf("unmarshaling cart: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
