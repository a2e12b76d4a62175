package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastionzero/toysign"
	"github.com/bastionzero/toysign/api"
	"github.com/bastionzero/toysign/config"
	"github.com/bastionzero/toysign/service"
	"github.com/bastionzero/toysign/store"
	"github.com/bastionzero/toysign/users"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func Serve(cCtx *cli.Context) error {
	cfg, err := config.LoadConfig(cCtx.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	reducer, err := newReducer(cfg.Keys.Hash)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, accounts, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	keyPairs := service.New(s, service.Config{
		PrimeLimit:  cfg.Keys.PrimeLimit,
		MaxAttempts: cfg.Keys.MaxAttempts,
		Reducer:     reducer,
	}, log)

	gin.SetMode(gin.ReleaseMode)
	a := api.New(keyPairs, users.NewRegistry(accounts, 0), users.NewSessions(), log)
	a.SecureCookies = !cCtx.Bool("insecure-cookies")

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}

func newReducer(hash string) (toysign.Reducer, error) {
	h, err := toysign.ParseHash(hash)
	if err != nil {
		return toysign.Reducer{}, err
	}
	return toysign.Reducer{Hash: h}, nil
}

// openStore returns the key pair and user stores for the configured driver. With postgres
// both live in the same database
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, users.Store, func(), error) {
	if cfg.Driver != "postgres" {
		return store.NewMemory(), users.NewMemory(), func() {}, nil
	}

	pg, err := store.OpenPostgres(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	accounts, err := users.NewPostgres(pg.DB())
	if err != nil {
		pg.Close()
		return nil, nil, nil, err
	}
	if err := accounts.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return pg, accounts, func() { pg.Close() }, nil
}
