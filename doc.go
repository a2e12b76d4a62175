/*
Package toysign implements named RSA-style key pairs over 64-bit moduli, along with
signing and verification of arbitrary messages

# Overview

This is an instructional cipher. The primes are small, there is no padding scheme, and the
keys are nowhere near large enough to resist factoring. What it does guarantee is that the
arithmetic is exact: every intermediate product is formed at twice the width of the modulus
(see package modmath), so a key pair either satisfies e * d ≡ 1 (mod φ) or is never produced.

# Generating a key pair

A key pair is built from two distinct primes drawn from a sieved pool. The generator draws
from a random source that the caller owns, which keeps tests deterministic:

	gen := toysign.NewGenerator(primes.NewRand(seed1, seed2))
	secret, err := gen.GenerateFromPool(primes.Sieve(1000))

Given p and q, the modulus is n = p * q and the totient is φ = (p - 1)(q - 1). The public
exponent e is drawn uniformly from [3, φ - 1] until it is coprime to φ, and the private
exponent is d = e⁻¹ (mod φ). If no exponent is found within [Generator].MaxAttempts draws,
generation fails with [ErrGenerationFailure] instead of returning a half-built key.

# Signing and verifying

Messages are first reduced into [0, n) by a [Reducer]: the full hash of the message, read as a
big-endian integer, modulo n. The signature is then

	s = h^d (mod n)

encoded big-endian in exactly ceil(bitlen(n) / 8) bytes. Verification recomputes h from the
message and checks that s^e ≡ h (mod n). A mismatch is a false result, not an error; only a
signature that cannot be decoded into [0, n) is reported as [ErrInvalidSignatureEncoding].

# Key material on the wire

Public keys travel as e || n and private keys as d, every field [FieldSize] bytes wide and
big-endian. The same layout backs every store and every export, optionally wrapped in PEM.
*/
package toysign
