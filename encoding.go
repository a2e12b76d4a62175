package toysign

import (
	"bytes"
	"encoding/binary"
	"encoding/pem"
	"fmt"
)

// FieldSize is the width in bytes of every exported key field. It is used by every
// store and every export path
const FieldSize = 8

const (
	// PublicKeySize is the size of a raw public key. Format: e (8 bytes) || n (8 bytes)
	PublicKeySize = 2 * FieldSize

	// PrivateKeySize is the size of a raw private key. Format: d (8 bytes)
	PrivateKeySize = FieldSize
)

const (
	publicPEMType  = "TOY RSA PUBLIC KEY"
	privatePEMType = "TOY RSA PRIVATE KEY"
)

// MarshalBinary serializes the public key as e || n, both big-endian
func (k PublicKey) MarshalBinary() ([]byte, error) {
	out := make([]byte, PublicKeySize)
	binary.BigEndian.PutUint64(out[0:FieldSize], k.E)
	binary.BigEndian.PutUint64(out[FieldSize:PublicKeySize], k.N)
	return out, nil
}

// ParsePublicKey parses a raw e || n public key
func ParsePublicKey(b []byte) (PublicKey, error) {
	if len(b) != PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKeyEncoding, PublicKeySize, len(b))
	}
	k := PublicKey{
		E: binary.BigEndian.Uint64(b[0:FieldSize]),
		N: binary.BigEndian.Uint64(b[FieldSize:PublicKeySize]),
	}
	if err := k.Validate(); err != nil {
		return PublicKey{}, err
	}
	return k, nil
}

// MarshalPrivate serializes the private exponent d, big-endian
func (s *Secret) MarshalPrivate() []byte {
	out := make([]byte, PrivateKeySize)
	binary.BigEndian.PutUint64(out, s.D)
	return out
}

// ParsePrivate parses a raw private exponent
func ParsePrivate(b []byte) (uint64, error) {
	if len(b) != PrivateKeySize {
		return 0, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKeyEncoding, PrivateKeySize, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodePEM returns the raw public key wrapped in a PEM block
func (k PublicKey) EncodePEM() (string, error) {
	b, _ := k.MarshalBinary()
	return encodePEM(publicPEMType, b)
}

// EncodePrivatePEM returns the raw private key wrapped in a PEM block
func (s *Secret) EncodePrivatePEM() (string, error) {
	return encodePEM(privatePEMType, s.MarshalPrivate())
}

// DecodePublicPEM reverses [PublicKey.EncodePEM]
func DecodePublicPEM(encoded string) (PublicKey, error) {
	b, err := decodePEM(publicPEMType, encoded)
	if err != nil {
		return PublicKey{}, err
	}
	return ParsePublicKey(b)
}

// DecodePrivatePEM reverses [Secret.EncodePrivatePEM]
func DecodePrivatePEM(encoded string) (uint64, error) {
	b, err := decodePEM(privatePEMType, encoded)
	if err != nil {
		return 0, err
	}
	return ParsePrivate(b)
}

func encodePEM(kind string, b []byte) (string, error) {
	keyPEM := new(bytes.Buffer)
	err := pem.Encode(keyPEM, &pem.Block{
		Type:  kind,
		Bytes: b,
	})
	if err != nil {
		return "", fmt.Errorf("failed to PEM-encode: %s", err)
	}

	return keyPEM.String(), nil
}

func decodePEM(kind string, encoded string) ([]byte, error) {
	block, rest := pem.Decode([]byte(encoded))
	if block == nil || block.Type != kind || len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("%w: failed to decode PEM block containing %s", ErrInvalidKeyEncoding, kind)
	}
	return block.Bytes, nil
}
