package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Keys   KeysConfig
	Store  StoreConfig
	Log    LogConfig
}

type ServerConfig struct {
	Addr string
}

type KeysConfig struct {
	PrimeLimit  uint32 // primes are drawn below this bound
	MaxAttempts int    // public exponent draws before generation fails
	Hash        string // digest algorithm for signing
}

type StoreConfig struct {
	Driver string // "memory" or "postgres"
	DSN    string // Data Source Name for PostgreSQL
}

type LogConfig struct {
	Level string
}

// LoadConfig reads path if it exists, then applies TOYSIGN_* environment overrides,
// e.g. TOYSIGN_STORE_DSN for store.dsn
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("keys.prime_limit", 1000)
	v.SetDefault("keys.max_attempts", 1000)
	v.SetDefault("keys.hash", "sha256")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("toysign")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Keys: KeysConfig{
			PrimeLimit:  v.GetUint32("keys.prime_limit"),
			MaxAttempts: v.GetInt("keys.max_attempts"),
			Hash:        v.GetString("keys.hash"),
		},
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			DSN:    v.GetString("store.dsn"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	// below 6 the pool is {2} or {2, 3}, neither of which yields a key pair
	if c.Keys.PrimeLimit < 6 {
		return fmt.Errorf("keys.prime_limit must be at least 6, got %d", c.Keys.PrimeLimit)
	}
	if c.Keys.MaxAttempts <= 0 {
		return fmt.Errorf("keys.max_attempts must be positive, got %d", c.Keys.MaxAttempts)
	}
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
