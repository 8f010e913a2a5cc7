// Command coordinator runs the ceremony coordinator as a standalone
// process: it wires configuration, logging and a storage backend together
// and drives the Update() reconciliation loop on a timer. It contains no
// ceremony logic of its own (spec.md §1 keeps the REST/WebSocket transport,
// CLI entry points and S3/summary upload out of the core's scope) — this is
// the thin shell a real deployment would put a transport layer in front of.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trusted-setup/coordinator/common/crypto/hash"
	"github.com/trusted-setup/coordinator/common/logging"
	"github.com/trusted-setup/coordinator/config"
	"github.com/trusted-setup/coordinator/coordinator"
	"github.com/trusted-setup/coordinator/storage"
)

var (
	cfgLogLevel string

	logger = logging.GetLogger("cmd/coordinator")

	rootCmd = &cobra.Command{
		Use:   "coordinator",
		Short: "ceremony coordinator",
		RunE:  doRun,
	}
)

func doRun(cmd *cobra.Command, args []string) error {
	logging.SetLevel(cfgLogLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("coordinator: failed to load configuration: %w", err)
	}

	backend, err := storage.New("")
	if err != nil {
		return fmt.Errorf("coordinator: failed to open storage backend: %w", err)
	}
	defer backend.Close()

	collab := coordinator.DefaultCollaborators(hash.Sum)
	c, err := coordinator.New(cfg, backend, collab)
	if err != nil {
		return fmt.Errorf("coordinator: failed to construct coordinator: %w", err)
	}

	if c.CurrentRound() == nil {
		logger.Info("no persisted round found, running initialization")
		if err := c.Initialize(); err != nil {
			return fmt.Errorf("coordinator: initialization failed: %w", err)
		}
	}

	ticker := time.NewTicker(time.Duration(cfg.UpdateIntervalSeconds) * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("coordinator started", "round_height", c.CurrentRoundHeight())
	for {
		select {
		case <-ticker.C:
			if err := c.Update(); err != nil {
				logger.Error("update tick reported errors", "err", err)
			}
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig.String())
			return nil
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgLogLevel, "log.level", "info", "logging level (debug, info, warn, error)")

	config.RegisterFlags(rootCmd)
	storage.RegisterFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
