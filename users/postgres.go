package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	login         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL
);
`

// Postgres is a Store backed by a PostgreSQL table. It shares the database handle of the
// key pair store, so owners and their key pairs live side by side
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("database is nil")
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the users table if it does not exist
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

func (r *Postgres) Create(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (login) DO NOTHING
	`, u.ID, u.Login, u.passwordHash)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if n == 0 {
		return ErrLoginTaken
	}
	return nil
}

func (r *Postgres) FindByLogin(ctx context.Context, login string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, login, password_hash
		FROM users
		WHERE login = $1
	`, login)

	var u User
	if err := row.Scan(&u.ID, &u.Login, &u.passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownLogin
		}
		return nil, fmt.Errorf("FindByLogin: %w", err)
	}
	return &u, nil
}
