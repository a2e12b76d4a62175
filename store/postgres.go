package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bastionzero/toysign"
	"github.com/google/uuid"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS key_pairs (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	owner_id    UUID NOT NULL,
	public_key  BYTEA NOT NULL,
	private_key BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS key_pairs_owner_id ON key_pairs (owner_id);
`

// Postgres is a Store backed by a PostgreSQL table. Key material is stored in the same
// fixed-width binary layout used for export
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects through the pgx driver and checks the connection
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgres(db)
}

func NewPostgres(db *sql.DB) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("database is nil")
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the key_pairs table if it does not exist
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

// DB is the underlying handle, for other tables kept in the same database
func (r *Postgres) DB() *sql.DB {
	return r.db
}

func (r *Postgres) Close() error {
	return r.db.Close()
}

func (r *Postgres) Create(ctx context.Context, kp *toysign.KeyPair) error {
	pub, _ := kp.PublicKey.MarshalBinary()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO key_pairs (id, name, owner_id, public_key, private_key)
		VALUES ($1, $2, $3, $4, $5)
	`, kp.ID, kp.Name, kp.OwnerID, pub, kp.MarshalPrivate())
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*toysign.KeyPair, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, public_key, private_key
		FROM key_pairs
		WHERE id = $1
	`, id)

	var kp toysign.KeyPair
	var pub, priv []byte
	err := row.Scan(&kp.ID, &kp.Name, &kp.OwnerID, &pub, &priv)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, toysign.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID: %w", err)
	}

	if kp.PublicKey, err = toysign.ParsePublicKey(pub); err != nil {
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	if kp.D, err = toysign.ParsePrivate(priv); err != nil {
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	return &kp, nil
}

func (r *Postgres) ListByOwner(ctx context.Context, owner uuid.UUID) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM key_pairs
		WHERE owner_id = $1
		ORDER BY name, id::text
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("ListByOwner: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *Postgres) Rename(ctx context.Context, id uuid.UUID, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE key_pairs SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("Rename: %w", err)
	}
	return expectOneRow(res)
}

func (r *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM key_pairs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res)
}

// a single-row UPDATE or DELETE that touched nothing means the id is gone
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return toysign.ErrNotFound
	}
	return nil
}
