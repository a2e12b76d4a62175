package toysign

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/bastionzero/toysign/modmath"
	"github.com/bastionzero/toysign/primes"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds the number of public exponents drawn before generation gives up
const DefaultMaxAttempts = 1000

// small primes used to check that an imported e and d undo each other
var consistencyProbes = []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

// PublicKey is the disclosable half of a key pair
type PublicKey struct {
	E uint64 // public exponent
	N uint64 // modulus
}

// Secret is complete key material: the public key plus the private exponent
type Secret struct {
	PublicKey
	D uint64 // private exponent
}

// A KeyPair is key material stored under an id, with a display name and an owner.
// Only the name may change after creation
type KeyPair struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
	Secret
}

// Generator produces key material from pairs of primes. It holds no state other than its
// random source, so each caller should construct its own
type Generator struct {
	Rand        primes.Rand
	MaxAttempts int
}

// NewGenerator returns a Generator drawing from r with the default attempt bound
func NewGenerator(r primes.Rand) *Generator {
	return &Generator{Rand: r, MaxAttempts: DefaultMaxAttempts}
}

// GenerateFromPool picks two distinct primes from pool and generates key material from them.
// A pair that yields no usable exponent is replaced by a fresh draw, up to MaxAttempts pairs
func (g *Generator) GenerateFromPool(pool []uint64) (*Secret, error) {
	var err error
	for i := 0; i < g.attempts(); i++ {
		var p, q uint64
		if p, q, err = primes.PickPair(g.Rand, pool); err != nil {
			return nil, err
		}

		var secret *Secret
		secret, err = g.Generate(p, q)
		if !errors.Is(err, ErrGenerationFailure) {
			return secret, err
		}
	}
	return nil, err
}

func (g *Generator) attempts() int {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

// Generate builds key material from the distinct primes p and q.
//
// The returned secret always satisfies gcd(e, φ) = 1 and e * d ≡ 1 (mod φ), with 0 <= d < φ.
// If no such e turns up within g.MaxAttempts draws, ErrGenerationFailure is returned
func (g *Generator) Generate(p, q uint64) (*Secret, error) {
	if p == q {
		return nil, fmt.Errorf("%w: p and q must be distinct", ErrInvalidPrimes)
	}
	if !primes.IsPrime(p) || !primes.IsPrime(q) {
		return nil, fmt.Errorf("%w: %d and %d must both be prime", ErrInvalidPrimes, p, q)
	}

	hi, n := bits.Mul64(p, q)
	if hi != 0 {
		return nil, fmt.Errorf("%w: modulus %d * %d does not fit in 64 bits", ErrInvalidPrimes, p, q)
	}
	phi := totient(p, q)

	// e is drawn from [3, φ-1], which is empty below φ = 4
	if phi < 4 {
		return nil, fmt.Errorf("%w: totient %d leaves no room for a public exponent", ErrGenerationFailure, phi)
	}

	attempts := g.attempts()
	for i := 0; i < attempts; i++ {
		e := 3 + g.Rand.Uint64N(phi-3)
		if modmath.GCD(e, phi) != 1 {
			continue
		}

		// gcd(e, φ) = 1 guarantees an inverse; ErrNoInverse would only mean another draw
		d, err := modmath.ModInverse(e, phi)
		if err != nil {
			continue
		}

		return &Secret{
			PublicKey: PublicKey{E: e, N: n},
			D:         d,
		}, nil
	}

	return nil, fmt.Errorf("%w: no exponent coprime to %d after %d attempts", ErrGenerationFailure, phi, attempts)
}

// Euler totient of n = p * q
func totient(p, q uint64) uint64 {
	return (p - 1) * (q - 1)
}

// NewKeyPair assigns an id to freshly generated key material. An empty name is replaced
// with a timestamped default
func NewKeyPair(owner uuid.UUID, name string, secret *Secret) *KeyPair {
	if name == "" {
		name = DefaultName(time.Now())
	}
	return &KeyPair{
		ID:      uuid.New(),
		Name:    name,
		OwnerID: owner,
		Secret:  *secret,
	}
}

// DefaultName is the name given to generated key pairs that were not named by their owner
func DefaultName(t time.Time) string {
	return "New key pair." + t.UTC().Format(time.RFC3339)
}

// Import checks externally supplied key material and wraps it in a new key pair.
//
// The factors of n are not known here, so consistency is checked by confirming that
// x^(e*d) ≡ x (mod n) for a handful of small probes
func Import(owner uuid.UUID, name string, pub PublicKey, d uint64) (*KeyPair, error) {
	secret := &Secret{PublicKey: pub, D: d}
	if err := secret.Validate(); err != nil {
		return nil, err
	}
	return NewKeyPair(owner, name, secret), nil
}

// Validate checks that s holds a usable, self-consistent key
func (s *Secret) Validate() error {
	if err := s.PublicKey.Validate(); err != nil {
		return err
	}
	if s.D == 0 || s.D >= s.N {
		return fmt.Errorf("%w: private exponent must lie in (0, n)", ErrInconsistentKeyPair)
	}

	for _, x := range consistencyProbes {
		x %= s.N
		if modmath.ModPow(modmath.ModPow(x, s.E, s.N), s.D, s.N) != x {
			return ErrInconsistentKeyPair
		}
	}
	return nil
}

// Validate checks the shape of a public key: 1 < e < n
func (k PublicKey) Validate() error {
	if k.N < 6 {
		return fmt.Errorf("%w: modulus %d is too small", ErrInvalidKeyEncoding, k.N)
	}
	if k.E <= 1 || k.E >= k.N {
		return fmt.Errorf("%w: public exponent must lie in (1, n)", ErrInvalidKeyEncoding)
	}
	return nil
}
