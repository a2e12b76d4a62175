package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var keyringFlag = &cli.StringFlag{
	Name:    "keyring",
	Aliases: []string{"k"},
	Usage:   "Path to the local keyring file",
	Value:   "toysign.keyring",
	EnvVars: []string{"TOYSIGN_KEYRING"},
}

var hashFlag = &cli.StringFlag{
	Name:  "hash",
	Usage: "Digest algorithm: sha256, sha512, blake2b-256 or sha3-256",
	Value: "sha256",
}

var keyFlag = &cli.StringFlag{
	Name:     "key",
	Usage:    "Id of the key pair in the keyring",
	Required: true,
}

var commands = []*cli.Command{
	{
		Name:  "serve",
		Usage: "Run the HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "insecure-cookies",
				Usage: "Send the session cookie over plain HTTP",
			},
		},
		Action: Serve,
	},
	{
		Name:  "keygen",
		Usage: "Generate a key pair into the keyring",
		Flags: []cli.Flag{
			keyringFlag,
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name for the key pair",
			},
			&cli.UintFlag{
				Name:  "prime-limit",
				Usage: "Primes are drawn below this bound (at most 2^32)",
				Value: 1000,
			},
		},
		Action: Keygen,
	},
	{
		Name:   "list",
		Usage:  "List the key pairs in the keyring",
		Flags:  []cli.Flag{keyringFlag},
		Action: List,
	},
	{
		Name:  "sign",
		Usage: "Sign a file",
		Flags: []cli.Flag{
			keyringFlag,
			hashFlag,
			keyFlag,
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "File to sign",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for the signature (default: <in>.sig)",
			},
		},
		Action: SignFile,
	},
	{
		Name:  "verify",
		Usage: "Verify a file's signature against a keyring entry or a public key file",
		Flags: []cli.Flag{
			keyringFlag,
			hashFlag,
			&cli.StringFlag{
				Name:  "key",
				Usage: "Id of the key pair in the keyring",
			},
			&cli.StringFlag{
				Name:  "pub",
				Usage: "Path to a raw or PEM public key, instead of --key",
			},
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "Signed file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "sig",
				Aliases:  []string{"s"},
				Usage:    "Signature file",
				Required: true,
			},
		},
		Action: VerifyFile,
	},
	{
		Name:  "export",
		Usage: "Export the public or private half of a key pair",
		Flags: []cli.Flag{
			keyringFlag,
			keyFlag,
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Export the private exponent instead of the public key",
			},
			&cli.BoolFlag{
				Name:  "pem",
				Usage: "Wrap the key in PEM",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output path for the key",
				Required: true,
			},
		},
		Action: Export,
	},
	{
		Name:   "inspect",
		Usage:  "Dump the public metadata of a key pair",
		Flags:  []cli.Flag{keyringFlag, keyFlag},
		Action: Inspect,
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "toysign",
		Usage:    "Toy RSA key pairs, signatures and verification",
		Commands: commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
