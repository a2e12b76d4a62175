package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bastionzero/toysign"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const keyringVersion = 1

// File is a Store kept in a single CBOR-encoded keyring file, for local command line use.
// Every write replaces the file atomically
type File struct {
	mu   sync.Mutex
	path string
}

// used exclusively as a placeholder for encoding-decoding
type keyring struct {
	Version  int             `cbor:"1,keyasint"`
	KeyPairs []keyringRecord `cbor:"2,keyasint"`
}

type keyringRecord struct {
	ID         uuid.UUID `cbor:"1,keyasint"`
	Name       string    `cbor:"2,keyasint"`
	OwnerID    uuid.UUID `cbor:"3,keyasint"`
	PublicKey  []byte    `cbor:"4,keyasint"`
	PrivateKey []byte    `cbor:"5,keyasint"`
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Create(_ context.Context, kp *toysign.KeyPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ring, err := f.load()
	if err != nil {
		return err
	}
	if ring.find(kp.ID) >= 0 {
		return ErrDuplicateID
	}

	pub, _ := kp.PublicKey.MarshalBinary()
	ring.KeyPairs = append(ring.KeyPairs, keyringRecord{
		ID:         kp.ID,
		Name:       kp.Name,
		OwnerID:    kp.OwnerID,
		PublicKey:  pub,
		PrivateKey: kp.MarshalPrivate(),
	})
	return f.save(ring)
}

func (f *File) FindByID(_ context.Context, id uuid.UUID) (*toysign.KeyPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ring, err := f.load()
	if err != nil {
		return nil, err
	}
	i := ring.find(id)
	if i < 0 {
		return nil, toysign.ErrNotFound
	}
	return ring.KeyPairs[i].keyPair()
}

func (f *File) ListByOwner(_ context.Context, owner uuid.UUID) ([]Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ring, err := f.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0)
	for _, rec := range ring.KeyPairs {
		if rec.OwnerID == owner {
			summaries = append(summaries, Summary{ID: rec.ID, Name: rec.Name})
		}
	}
	sortSummaries(summaries)
	return summaries, nil
}

func (f *File) Rename(_ context.Context, id uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ring, err := f.load()
	if err != nil {
		return err
	}
	i := ring.find(id)
	if i < 0 {
		return toysign.ErrNotFound
	}
	ring.KeyPairs[i].Name = name
	return f.save(ring)
}

func (f *File) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ring, err := f.load()
	if err != nil {
		return err
	}
	i := ring.find(id)
	if i < 0 {
		return toysign.ErrNotFound
	}
	ring.KeyPairs = append(ring.KeyPairs[:i], ring.KeyPairs[i+1:]...)
	return f.save(ring)
}

// a missing file is an empty keyring
func (f *File) load() (*keyring, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &keyring{Version: keyringVersion}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var ring keyring
	if err := cbor.Unmarshal(data, &ring); err != nil {
		return nil, fmt.Errorf("failed to decode keyring %s: %w", f.path, err)
	}
	if ring.Version != keyringVersion {
		return nil, fmt.Errorf("unsupported keyring version %d", ring.Version)
	}
	return &ring, nil
}

func (f *File) save(ring *keyring) error {
	data, err := cbor.Marshal(ring)
	if err != nil {
		return fmt.Errorf("failed to encode keyring: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".keyring-*")
	if err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (r *keyring) find(id uuid.UUID) int {
	for i, rec := range r.KeyPairs {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (rec keyringRecord) keyPair() (*toysign.KeyPair, error) {
	pub, err := toysign.ParsePublicKey(rec.PublicKey)
	if err != nil {
		return nil, err
	}
	d, err := toysign.ParsePrivate(rec.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &toysign.KeyPair{
		ID:      rec.ID,
		Name:    rec.Name,
		OwnerID: rec.OwnerID,
		Secret:  toysign.Secret{PublicKey: pub, D: d},
	}, nil
}
