/*
Package modmath implements the modular arithmetic behind toy RSA keys: exponentiation,
inverses, and gcd over uint64 residues.

Every product of two residues is formed as a 128-bit value with math/bits and reduced
back below the modulus, so no intermediate result ever wraps around, whatever the
width of the modulus.
*/
package modmath

import (
	"errors"
	"math/bits"
)

// ErrNoInverse is returned when a value has no multiplicative inverse modulo m
var ErrNoInverse = errors.New("value is not invertible modulo m")

// MulMod returns a * b (mod m). It panics if m is zero
func MulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	// Rem64 panics when hi >= m, so bring hi below the modulus first
	if hi >= m {
		hi %= m
	}
	return bits.Rem64(hi, lo, m)
}

// ModPow returns base^exp (mod m) by iterative square-and-multiply.
//
// ModPow(a, 0, m) is 1 mod m, so every result is 0 when m is 1. It panics if m is zero
func ModPow(base, exp, m uint64) uint64 {
	if m == 0 {
		panic("modmath: zero modulus")
	}

	result := 1 % m
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = MulMod(result, base, m)
		}
		base = MulMod(base, base, m)
		exp >>= 1
	}
	return result
}

// GCD returns the greatest common divisor of a and b. GCD(a, 0) is a
func GCD(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ModInverse returns d in [0, m) such that a * d ≡ 1 (mod m).
//
// This is the extended Euclidean algorithm, but the Bézout coefficient of a is carried as a
// residue mod m rather than as a signed integer. The usual normalization ((t mod m) + m) mod m
// is therefore applied at every step, and the coefficient never needs more than 64 bits
func ModInverse(a, m uint64) (uint64, error) {
	if m == 0 {
		return 0, ErrNoInverse
	}

	// invariant: a * oldT ≡ oldR and a * t ≡ r (mod m)
	oldR, r := m, a%m
	oldT, t := uint64(0), uint64(1)%m
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldT, t = t, subMod(oldT, MulMod(q%m, t, m), m)
	}

	if oldR != 1 {
		return 0, ErrNoInverse
	}
	return oldT, nil
}

// a - b (mod m) for a, b already in [0, m)
func subMod(a, b, m uint64) uint64 {
	if a >= b {
		return a - b
	}
	return m - (b - a)
}

// CongruentModN checks that n divides (a - b)
func CongruentModN(a, b, n uint64) bool {
	return a%n == b%n
}
