package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastionzero/toysign"
	"github.com/bastionzero/toysign/config"
	"github.com/bastionzero/toysign/store"
	"github.com/bastionzero/toysign/users"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"toysign"}, args...))
	return out.String(), err
}

var _ = Describe("Toysign CLI", func() {
	var dir, ring, doc string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		ring = filepath.Join(dir, "test.keyring")
		doc = filepath.Join(dir, "document.txt")
		Expect(os.WriteFile(doc, []byte("pay bob 10 coins"), 0o644)).To(Succeed())
	})

	keygen := func(name string) string {
		out, err := run("keygen", "--keyring", ring, "--name", name)
		Expect(err).To(BeNil())
		fields := strings.Fields(out)
		Expect(fields).To(HaveLen(2))
		Expect(fields[1]).To(Equal(name))
		return fields[0]
	}

	It("Lists generated key pairs by name", func() {
		bravo := keygen("bravo")
		alpha := keygen("alpha")

		out, err := run("list", "--keyring", ring)
		Expect(err).To(BeNil())
		Expect(out).To(Equal(alpha + "\talpha\n" + bravo + "\tbravo\n"))
	})

	It("Signs and verifies a file against the keyring", func() {
		id := keygen("signing")

		_, err := run("sign", "--keyring", ring, "--key", id, "--in", doc)
		Expect(err).To(BeNil())
		Expect(doc + ".sig").To(BeAnExistingFile())

		out, err := run("verify", "--keyring", ring, "--key", id, "--in", doc, "--sig", doc+".sig")
		Expect(err).To(BeNil())
		Expect(out).To(ContainSubstring("valid"))
	})

	It("Verifies against an exported public key", func() {
		id := keygen("signing")
		sig := filepath.Join(dir, "document.sig")
		_, err := run("sign", "--keyring", ring, "--key", id, "--in", doc, "--output", sig)
		Expect(err).To(BeNil())

		for _, pem := range []bool{false, true} {
			pub := filepath.Join(dir, "public.key")
			args := []string{"export", "--keyring", ring, "--key", id, "--output", pub}
			if pem {
				args = append(args, "--pem")
			}
			_, err := run(args...)
			Expect(err).To(BeNil())

			_, err = run("verify", "--pub", pub, "--in", doc, "--sig", sig)
			Expect(err).To(BeNil())
		}
	})

	It("Rejects a signature over a different file", func() {
		id := keygen("signing")
		_, err := run("sign", "--keyring", ring, "--key", id, "--in", doc)
		Expect(err).To(BeNil())

		other := filepath.Join(dir, "other.txt")
		Expect(os.WriteFile(other, []byte("pay bob 1000 coins"), 0o644)).To(Succeed())

		_, err = run("verify", "--keyring", ring, "--key", id, "--in", other, "--sig", doc+".sig")
		Expect(err).NotTo(BeNil())
	})

	It("Exports the private exponent with owner-only permissions", func() {
		id := keygen("signing")
		priv := filepath.Join(dir, "private.pem")

		_, err := run("export", "--keyring", ring, "--key", id, "--private", "--pem", "--output", priv)
		Expect(err).To(BeNil())

		info, err := os.Stat(priv)
		Expect(err).To(BeNil())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

		b, err := os.ReadFile(priv)
		Expect(err).To(BeNil())
		_, err = toysign.DecodePrivatePEM(string(b))
		Expect(err).To(BeNil())
	})

	It("Inspects public metadata only", func() {
		id := keygen("signing")

		out, err := run("inspect", "--keyring", ring, "--key", id)
		Expect(err).To(BeNil())
		Expect(out).To(ContainSubstring("signing"))
		Expect(out).To(ContainSubstring("SignatureSize"))
		Expect(out).NotTo(ContainSubstring(" D:"))
	})

	It("Fails cleanly on unknown or malformed ids", func() {
		_, err := run("sign", "--keyring", ring, "--key", "not-a-uuid", "--in", doc)
		Expect(err).To(MatchError(ContainSubstring("invalid key id")))

		_, err = run("sign", "--keyring", ring, "--key", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "--in", doc)
		Expect(err).To(MatchError(toysign.ErrNotFound))
	})

	It("Requires a key source to verify", func() {
		Expect(os.WriteFile(doc+".sig", []byte{1}, 0o644)).To(Succeed())
		_, err := run("verify", "--in", doc, "--sig", doc+".sig")
		Expect(err).To(MatchError(ContainSubstring("--key or --pub")))
	})

	It("Opens key pair and user stores side by side", func() {
		keyPairs, accounts, closeStore, err := openStore(context.Background(), config.StoreConfig{Driver: "memory"})
		Expect(err).To(BeNil())
		defer closeStore()
		Expect(keyPairs).To(BeAssignableToTypeOf(&store.Memory{}))
		Expect(accounts).To(BeAssignableToTypeOf(&users.Memory{}))

		dsn := os.Getenv("TOYSIGN_TEST_DSN")
		if dsn == "" {
			Skip("TOYSIGN_TEST_DSN not set")
		}
		keyPairs, accounts, closeStore, err = openStore(context.Background(), config.StoreConfig{Driver: "postgres", DSN: dsn})
		Expect(err).To(BeNil())
		defer closeStore()
		Expect(keyPairs).To(BeAssignableToTypeOf(&store.Postgres{}))
		Expect(accounts).To(BeAssignableToTypeOf(&users.Postgres{}))
	})
})
