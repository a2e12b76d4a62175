package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {

	It("Falls back to defaults when the file is missing", func() {
		cfg, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(BeNil())
		Expect(cfg.Server.Addr).To(Equal(":8080"))
		Expect(cfg.Keys.PrimeLimit).To(Equal(uint32(1000)))
		Expect(cfg.Keys.Hash).To(Equal("sha256"))
		Expect(cfg.Store.Driver).To(Equal("memory"))
	})

	It("Reads a YAML file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte(`
keys:
  prime_limit: 65536
  hash: blake2b-256
store:
  driver: postgres
  dsn: postgres://localhost/toysign
`), 0o600)).To(Succeed())

		cfg, err := LoadConfig(path)
		Expect(err).To(BeNil())
		Expect(cfg.Keys.PrimeLimit).To(Equal(uint32(65536)))
		Expect(cfg.Keys.Hash).To(Equal("blake2b-256"))
		Expect(cfg.Store.DSN).To(Equal("postgres://localhost/toysign"))
	})

	It("Lets the environment override the file", func() {
		GinkgoT().Setenv("TOYSIGN_SERVER_ADDR", ":9090")
		cfg, err := LoadConfig("")
		Expect(err).To(BeNil())
		Expect(cfg.Server.Addr).To(Equal(":9090"))
	})

	It("Rejects a postgres store without a DSN", func() {
		GinkgoT().Setenv("TOYSIGN_STORE_DRIVER", "postgres")
		_, err := LoadConfig("")
		Expect(err).To(MatchError(ContainSubstring("store.dsn")))
	})

	It("Rejects a prime limit too small to generate from", func() {
		for _, limit := range []string{"2", "3", "4", "5"} {
			GinkgoT().Setenv("TOYSIGN_KEYS_PRIME_LIMIT", limit)
			_, err := LoadConfig("")
			Expect(err).To(MatchError(ContainSubstring("at least 6")), limit)
		}

		GinkgoT().Setenv("TOYSIGN_KEYS_PRIME_LIMIT", "6")
		cfg, err := LoadConfig("")
		Expect(err).To(BeNil())
		Expect(cfg.Keys.PrimeLimit).To(Equal(uint32(6)))
	})
})
