// Package users resolves callers to owner ids: registration and login against hashed
// passwords, and opaque session tokens handed out on login
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrLoginTaken      = errors.New("user with same login already exists")
	ErrBadCredentials  = errors.New("login-password pair is incorrect")
	ErrInvalidLogin    = errors.New("login and password must not be empty")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	ErrUnknownLogin    = errors.New("no user with this login")
)

// User is a registered account. Owners of key pairs are identified by User.ID
type User struct {
	ID           uuid.UUID
	Login        string
	passwordHash []byte
}

// Store persists user accounts. Create reports ErrLoginTaken for a login already in use,
// FindByLogin reports ErrUnknownLogin for one that is not
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByLogin(ctx context.Context, login string) (*User, error)
}

// Registry registers and authenticates users over a Store
type Registry struct {
	store Store
	cost  int
}

// NewRegistry returns a registry over s hashing passwords at the given bcrypt cost.
// A cost of 0 selects bcrypt.DefaultCost
func NewRegistry(s Store, cost int) *Registry {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Registry{store: s, cost: cost}
}

// Register creates an account under a login that is not yet taken
func (r *Registry) Register(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidLogin
	}
	// bcrypt ignores everything past 72 bytes, refuse rather than silently truncate
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, err
	}

	u := &User{ID: uuid.New(), Login: login, passwordHash: hash}
	if err := r.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks a login-password pair
func (r *Registry) Login(ctx context.Context, login, password string) (*User, error) {
	u, err := r.store.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUnknownLogin) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}
