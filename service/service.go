// Package service exposes key pair operations on behalf of a caller. Every owner-scoped
// operation treats a key pair that belongs to someone else exactly like one that does not exist
package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"

	"github.com/bastionzero/toysign"
	"github.com/bastionzero/toysign/primes"
	"github.com/bastionzero/toysign/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidName is returned for empty key pair names on rename
var ErrInvalidName = errors.New("key pair name must not be empty")

const DefaultPrimeLimit = 1000

type Config struct {
	// primes are drawn from [2, PrimeLimit)
	PrimeLimit  uint32
	MaxAttempts int
	Reducer     toysign.Reducer

	// NewRand returns the random source for one generation. Defaults to a PCG
	// generator seeded from crypto/rand
	NewRand func() primes.Rand
}

// KeyPairs implements the key pair operations over a store
type KeyPairs struct {
	store store.Store
	pool  []uint64
	cfg   Config
	log   zerolog.Logger
}

func New(s store.Store, cfg Config, log zerolog.Logger) *KeyPairs {
	if cfg.PrimeLimit == 0 {
		cfg.PrimeLimit = DefaultPrimeLimit
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = toysign.DefaultMaxAttempts
	}
	if cfg.NewRand == nil {
		cfg.NewRand = seededRand
	}

	return &KeyPairs{
		store: s,
		pool:  primes.Sieve(cfg.PrimeLimit),
		cfg:   cfg,
		log:   log.With().Str("component", "keypairs").Logger(),
	}
}

func seededRand() primes.Rand {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("service: " + err.Error())
	}
	return primes.NewRand(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// Create generates a new key pair for owner. Nothing is stored unless generation succeeds
func (s *KeyPairs) Create(ctx context.Context, owner uuid.UUID, name string) (*toysign.KeyPair, error) {
	gen := &toysign.Generator{Rand: s.cfg.NewRand(), MaxAttempts: s.cfg.MaxAttempts}
	secret, err := gen.GenerateFromPool(s.pool)
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.String()).Msg("key generation failed")
		return nil, err
	}

	kp := toysign.NewKeyPair(owner, name, secret)
	if err := s.store.Create(ctx, kp); err != nil {
		return nil, err
	}

	s.log.Info().Str("key_pair", kp.ID.String()).Str("owner", owner.String()).Uint64("n", kp.N).Msg("generated key pair")
	return kp, nil
}

// Import stores externally supplied key material for owner after checking that e and d match
func (s *KeyPairs) Import(ctx context.Context, owner uuid.UUID, name string, pub toysign.PublicKey, d uint64) (*toysign.KeyPair, error) {
	kp, err := toysign.Import(owner, name, pub, d)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, kp); err != nil {
		return nil, err
	}

	s.log.Info().Str("key_pair", kp.ID.String()).Str("owner", owner.String()).Msg("imported key pair")
	return kp, nil
}

func (s *KeyPairs) List(ctx context.Context, owner uuid.UUID) ([]store.Summary, error) {
	return s.store.ListByOwner(ctx, owner)
}

func (s *KeyPairs) Rename(ctx context.Context, owner, id uuid.UUID, name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Rename(ctx, id, name)
}

func (s *KeyPairs) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("key_pair", id.String()).Str("owner", owner.String()).Msg("deleted key pair")
	return nil
}

// PrivateKey returns the raw private exponent of one of owner's key pairs
func (s *KeyPairs) PrivateKey(ctx context.Context, owner, id uuid.UUID) (*toysign.Secret, error) {
	kp, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return &kp.Secret, nil
}

// PublicKey is available to anyone who knows the id
func (s *KeyPairs) PublicKey(ctx context.Context, id uuid.UUID) (toysign.PublicKey, error) {
	kp, err := s.store.FindByID(ctx, id)
	if err != nil {
		return toysign.PublicKey{}, err
	}
	return kp.PublicKey, nil
}

// Sign signs message with one of owner's key pairs
func (s *KeyPairs) Sign(ctx context.Context, owner, id uuid.UUID, message []byte) ([]byte, error) {
	kp, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return toysign.Sign(&kp.Secret, s.cfg.Reducer, message)
}

// Verify checks a signature against the public half of any key pair
func (s *KeyPairs) Verify(ctx context.Context, id uuid.UUID, message, sig []byte) (bool, error) {
	pub, err := s.PublicKey(ctx, id)
	if err != nil {
		return false, err
	}
	return toysign.Verify(pub, s.cfg.Reducer, message, sig)
}

// key pairs owned by someone else are reported as not found
func (s *KeyPairs) owned(ctx context.Context, owner, id uuid.UUID) (*toysign.KeyPair, error) {
	kp, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if kp.OwnerID != owner {
		s.log.Debug().Str("key_pair", id.String()).Str("caller", owner.String()).Msg("key pair belongs to another owner")
		return nil, toysign.ErrNotFound
	}
	return kp, nil
}
