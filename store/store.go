// Package store persists key pairs. Owner scoping is left to callers: a store answers
// for any id it holds
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/bastionzero/toysign"
	"github.com/google/uuid"
)

// ErrDuplicateID is returned when creating a key pair under an id that is already taken
var ErrDuplicateID = errors.New("key pair id already exists")

// Summary is the listing view of a key pair
type Summary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Store is the persistence contract for key pairs.
//
// Implementations must give read-after-write consistency per id and serialize rename and
// delete on the same id: a rename that lands after a delete reports toysign.ErrNotFound
type Store interface {
	Create(ctx context.Context, kp *toysign.KeyPair) error
	FindByID(ctx context.Context, id uuid.UUID) (*toysign.KeyPair, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]Summary, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// listings are ordered by name, then id
func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Name != s[j].Name {
			return s[i].Name < s[j].Name
		}
		return s[i].ID.String() < s[j].ID.String()
	})
}
