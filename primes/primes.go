// Package primes provides the pool of small primes that toy key pairs are built from.
package primes

import (
	"errors"
	"math/big"
	"math/rand/v2"
)

// ErrInsufficientPrimes is returned when a pool holds fewer than two primes
var ErrInsufficientPrimes = errors.New("fewer than 2 primes available")

// Rand is the random source used to draw primes and exponents.
// *rand.Rand from math/rand/v2 satisfies it; tests may script their own sequence
type Rand interface {
	IntN(n int) int
	Uint64N(n uint64) uint64
}

// NewRand returns a PCG-backed generator owned by the caller. Each generation
// should draw from its own instance rather than a shared global one
func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// Sieve returns every prime p with 2 <= p < limit, in ascending order.
//
// Composites are marked in a separate table while walking multiples; the candidate
// list itself is never modified during the walk
func Sieve(limit uint32) []uint64 {
	if limit < 3 {
		return nil
	}

	composite := make([]bool, limit)
	for i := uint64(2); i*i < uint64(limit); i++ {
		if composite[i] {
			continue
		}
		for j := i * i; j < uint64(limit); j += i {
			composite[j] = true
		}
	}

	primes := make([]uint64, 0)
	for i := uint64(2); i < uint64(limit); i++ {
		if !composite[i] {
			primes = append(primes, i)
		}
	}
	return primes
}

// PickPair draws two distinct primes uniformly from the pool, resampling q until q != p
func PickPair(r Rand, primes []uint64) (p uint64, q uint64, err error) {
	if len(primes) < 2 {
		return 0, 0, ErrInsufficientPrimes
	}

	i := r.IntN(len(primes))
	j := r.IntN(len(primes))
	for j == i {
		j = r.IntN(len(primes))
	}
	return primes[i], primes[j], nil
}

// IsPrime reports whether x is prime. ProbablyPrime is exact for inputs below 2^64
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}
