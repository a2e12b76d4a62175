package toysign

import (
	"errors"

	"github.com/bastionzero/toysign/modmath"
	"github.com/bastionzero/toysign/primes"
)

var (
	// ErrNotFound means the key pair does not exist, or is not owned by the caller
	ErrNotFound = errors.New("key pair not found")

	ErrInsufficientPrimes = primes.ErrInsufficientPrimes
	ErrNoInverse          = modmath.ErrNoInverse

	// ErrGenerationFailure means no valid public exponent was found within the attempt bound
	ErrGenerationFailure = errors.New("failed to generate key pair")

	ErrInvalidSignatureEncoding = errors.New("invalid signature encoding")
	ErrInvalidPrimes            = errors.New("invalid primes")
	ErrInconsistentKeyPair      = errors.New("public and private exponents do not match")
	ErrInvalidKeyEncoding       = errors.New("invalid key encoding")
)
