// rentwatch keeps a local, prioritized notification store in sync
// with the rental management server over its realtime channel.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/rentwatch/internal/credential"
	"github.com/nhle/rentwatch/internal/model"
	"github.com/nhle/rentwatch/internal/store"
	"github.com/nhle/rentwatch/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	setToken := flag.String("set-token", "", "store the server token in the system keyring and exit")
	deleteToken := flag.Bool("delete-token", false, "remove the server token from the system keyring and exit")
	flag.Parse()

	if *setToken != "" {
		if err := credential.Set(credential.KeyServerToken, *setToken); err != nil {
			fmt.Fprintf(os.Stderr, "storing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("token stored")
		return
	}

	if *deleteToken {
		if err := credential.Delete(credential.KeyServerToken); err != nil {
			fmt.Fprintf(os.Stderr, "removing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("token removed")
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "rentwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	repo, err := store.NewSQLiteRepository(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	notifications, err := store.New(repo, logger)
	if err != nil {
		return err
	}

	// A missing token is fine; the server may allow anonymous reads.
	token, err := credential.Get(credential.KeyServerToken)
	if err != nil {
		logger.Debug().Err(err).Msg("no server token in keyring")
	}

	transport := sync.NewWebsocketTransport(cfg.Server.URL, token, logger)
	service := sync.New(notifications, transport, sync.Config{
		ReconcileInterval:  secondsToDuration(cfg.Sync.ReconcileIntervalSec),
		SweepCheckInterval: secondsToDuration(cfg.Sync.SweepCheckIntervalSec),
	}, logger)

	if err := service.Init(); err != nil {
		return err
	}

	logger.Info().
		Str("server", cfg.Server.URL).
		Str("db", cfg.Storage.DatabasePath).
		Msg("rentwatch started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	service.Disconnect()
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// secondsToDuration converts a config interval in seconds.
func secondsToDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
