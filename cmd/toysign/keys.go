package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/bastionzero/toysign"
	"github.com/bastionzero/toysign/service"
	"github.com/bastionzero/toysign/store"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var errInvalidSignature = errors.New("signature is INVALID")

// keys in a local keyring all belong to the nil owner
var localOwner = uuid.Nil

// keyring opens the service over the file named by --keyring
func keyring(cCtx *cli.Context) (*service.KeyPairs, error) {
	reducer, err := newReducer(cCtx.String("hash"))
	if err != nil {
		return nil, err
	}

	limit := cCtx.Uint("prime-limit")
	if limit > math.MaxUint32 {
		return nil, fmt.Errorf("prime limit %d exceeds 2^32", limit)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: cCtx.App.ErrWriter}).Level(zerolog.WarnLevel)
	return service.New(store.NewFile(cCtx.String("keyring")), service.Config{
		PrimeLimit: uint32(limit),
		Reducer:    reducer,
	}, log), nil
}

func keyID(cCtx *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(cCtx.String("key"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid key id %q: %w", cCtx.String("key"), err)
	}
	return id, nil
}

func Keygen(cCtx *cli.Context) error {
	svc, err := keyring(cCtx)
	if err != nil {
		return err
	}

	kp, err := svc.Create(cCtx.Context, localOwner, cCtx.String("name"))
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", kp.ID, kp.Name)
	return nil
}

func List(cCtx *cli.Context) error {
	svc, err := keyring(cCtx)
	if err != nil {
		return err
	}

	summaries, err := svc.List(cCtx.Context, localOwner)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", s.ID, s.Name)
	}
	return nil
}

func SignFile(cCtx *cli.Context) error {
	svc, err := keyring(cCtx)
	if err != nil {
		return err
	}
	id, err := keyID(cCtx)
	if err != nil {
		return err
	}

	in := cCtx.String("in")
	message, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	sig, err := svc.Sign(cCtx.Context, localOwner, id, message)
	if err != nil {
		return fmt.Errorf("failed to sign %s: %w", in, err)
	}

	out := cCtx.String("output")
	if out == "" {
		out = in + ".sig"
	}
	if err := os.WriteFile(out, sig, 0o644); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}

	fmt.Fprintf(cCtx.App.Writer, "Signature written to %s\n", out)
	return nil
}

func VerifyFile(cCtx *cli.Context) error {
	in, sigPath := cCtx.String("in"), cCtx.String("sig")
	message, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sigPath, err)
	}

	var valid bool
	switch {
	case cCtx.String("pub") != "":
		pub, err := readPublicKey(cCtx.String("pub"))
		if err != nil {
			return err
		}
		reducer, err := newReducer(cCtx.String("hash"))
		if err != nil {
			return err
		}
		valid, err = toysign.Verify(pub, reducer, message, sig)
		if err != nil {
			return fmt.Errorf("failed to verify: %w", err)
		}
	case cCtx.String("key") != "":
		svc, err := keyring(cCtx)
		if err != nil {
			return err
		}
		id, err := keyID(cCtx)
		if err != nil {
			return err
		}
		valid, err = svc.Verify(cCtx.Context, id, message, sig)
		if err != nil {
			return fmt.Errorf("failed to verify: %w", err)
		}
	default:
		return errors.New("one of --key or --pub is required")
	}

	if !valid {
		return errInvalidSignature
	}
	fmt.Fprintln(cCtx.App.Writer, "Signature is valid")
	return nil
}

// readPublicKey accepts either the raw 16-byte encoding or its PEM armor
func readPublicKey(path string) (toysign.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return toysign.PublicKey{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte("-----BEGIN")) {
		return toysign.DecodePublicPEM(string(b))
	}
	return toysign.ParsePublicKey(b)
}

func Export(cCtx *cli.Context) error {
	svc, err := keyring(cCtx)
	if err != nil {
		return err
	}
	id, err := keyID(cCtx)
	if err != nil {
		return err
	}

	var (
		out  []byte
		mode os.FileMode = 0o644
	)
	if cCtx.Bool("private") {
		mode = 0o600
		secret, err := svc.PrivateKey(cCtx.Context, localOwner, id)
		if err != nil {
			return err
		}
		if cCtx.Bool("pem") {
			s, err := secret.EncodePrivatePEM()
			if err != nil {
				return err
			}
			out = []byte(s)
		} else {
			out = secret.MarshalPrivate()
		}
	} else {
		pub, err := svc.PublicKey(cCtx.Context, id)
		if err != nil {
			return err
		}
		if cCtx.Bool("pem") {
			s, err := pub.EncodePEM()
			if err != nil {
				return err
			}
			out = []byte(s)
		} else {
			out, _ = pub.MarshalBinary()
		}
	}

	path := cCtx.String("output")
	if err := os.WriteFile(path, out, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cCtx.App.Writer, "Key written to %s\n", path)
	return nil
}

// keyInfo is what inspect prints. It never carries the private exponent
type keyInfo struct {
	ID            uuid.UUID
	Name          string
	E             uint64
	N             uint64
	SignatureSize int
}

func Inspect(cCtx *cli.Context) error {
	svc, err := keyring(cCtx)
	if err != nil {
		return err
	}
	id, err := keyID(cCtx)
	if err != nil {
		return err
	}

	summaries, err := svc.List(cCtx.Context, localOwner)
	if err != nil {
		return err
	}
	pub, err := svc.PublicKey(cCtx.Context, id)
	if err != nil {
		return err
	}

	info := keyInfo{ID: id, E: pub.E, N: pub.N, SignatureSize: toysign.SignatureSize(pub.N)}
	for _, s := range summaries {
		if s.ID == id {
			info.Name = s.Name
		}
	}
	spew.Fdump(cCtx.App.Writer, info)
	return nil
}
