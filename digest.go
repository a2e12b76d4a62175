package toysign

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"math/big"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hash names the digest algorithm a Reducer applies before reducing into [0, n)
type Hash string

const (
	SHA256     Hash = "sha256"
	SHA512     Hash = "sha512"
	BLAKE2b256 Hash = "blake2b-256"
	SHA3_256   Hash = "sha3-256"
)

// ParseHash maps a configured algorithm name onto a Hash
func ParseHash(name string) (Hash, error) {
	switch h := Hash(name); h {
	case SHA256, SHA512, BLAKE2b256, SHA3_256:
		return h, nil
	case "":
		return SHA256, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %q", name)
	}
}

// New returns a fresh hash.Hash for the algorithm. The zero Hash is SHA-256
func (h Hash) New() hash.Hash {
	switch h {
	case SHA512:
		return sha512.New()
	case BLAKE2b256:
		// only fails for keys longer than 64 bytes
		hh, _ := blake2b.New256(nil)
		return hh
	case SHA3_256:
		return sha3.New256()
	default:
		return sha256.New()
	}
}

// Reducer maps messages of any length onto integers strictly below a modulus
type Reducer struct {
	Hash Hash
}

// Reduce hashes message and returns the digest, read as one big-endian integer, modulo n.
// Every bit of the digest takes part in the reduction
func (r Reducer) Reduce(message []byte, n uint64) uint64 {
	hh := r.Hash.New()
	hh.Write(message)
	return reduceDigest(hh.Sum(nil), n)
}

// ReduceReader is Reduce over a stream, for messages that arrive as files
func (r Reducer) ReduceReader(message io.Reader, n uint64) (uint64, error) {
	hh := r.Hash.New()
	if _, err := io.Copy(hh, message); err != nil {
		return 0, fmt.Errorf("failed to hash message: %w", err)
	}
	return reduceDigest(hh.Sum(nil), n), nil
}

func reduceDigest(sum []byte, n uint64) uint64 {
	h := new(big.Int).SetBytes(sum)
	h.Mod(h, new(big.Int).SetUint64(n))
	return h.Uint64()
}
