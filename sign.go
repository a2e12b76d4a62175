package toysign

import (
	"encoding/binary"
	"math/bits"

	"github.com/bastionzero/toysign/modmath"
)

// SignatureSize is the width in bytes of every signature made under modulus n: ceil(bitlen(n) / 8)
func SignatureSize(n uint64) int {
	return (bits.Len64(n) + 7) / 8
}

// Sign reduces message into [0, n) and signs the result with the private exponent.
//
// The signature is always exactly SignatureSize(n) bytes, big-endian. Ownership of the key
// is the caller's concern; Sign itself has no side effects
func Sign(secret *Secret, reducer Reducer, message []byte) ([]byte, error) {
	if err := secret.PublicKey.Validate(); err != nil {
		return nil, err
	}
	h := reducer.Reduce(message, secret.N)
	return encodeSignature(SignDigest(secret, h), secret.N), nil
}

// SignDigest computes s = h^d (mod n) for a digest already reduced below n
func SignDigest(secret *Secret, h uint64) uint64 {
	return modmath.ModPow(h, secret.D, secret.N)
}

// Verify checks sig against message under pub.
//
// A signature that does not match is reported as false with a nil error. An error is
// returned only when sig is not SignatureSize(n) bytes or decodes to a value >= n
func Verify(pub PublicKey, reducer Reducer, message []byte, sig []byte) (bool, error) {
	if err := pub.Validate(); err != nil {
		return false, err
	}
	s, err := decodeSignature(sig, pub.N)
	if err != nil {
		return false, err
	}
	h := reducer.Reduce(message, pub.N)
	return VerifyDigest(pub, h, s), nil
}

// VerifyDigest checks that s^e ≡ h (mod n)
func VerifyDigest(pub PublicKey, h, s uint64) bool {
	return modmath.ModPow(s, pub.E, pub.N) == h
}

func encodeSignature(s, n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s)
	return append([]byte(nil), buf[8-SignatureSize(n):]...)
}

func decodeSignature(sig []byte, n uint64) (uint64, error) {
	if len(sig) != SignatureSize(n) {
		return 0, ErrInvalidSignatureEncoding
	}

	var buf [8]byte
	copy(buf[8-len(sig):], sig)
	s := binary.BigEndian.Uint64(buf[:])
	if s >= n {
		return 0, ErrInvalidSignatureEncoding
	}
	return s, nil
}
