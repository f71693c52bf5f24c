// Package main provides the CLI entry point for the SimBlock update core.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/simblock-app/simblock/internal/config"
	"github.com/simblock-app/simblock/internal/update"
	"github.com/simblock-app/simblock/pkg/config"
	"github.com/simblock-app/simblock/pkg/logger"
)

// UpdateLogFile is the log file for update pipeline activity, relative to
// the global config directory.
const UpdateLogFile = "update.log"

var debugMode bool

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

var rootCmd = &cobra.Command{
	Use:   "simblock",
	Short: "SimBlock update core",
	Long: `SimBlock update core - keeps the SimBlock input blocker current.

Checks the release channel, downloads matching binaries, and swaps them
in with automatic backup and rollback.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkVersionFlag()
		finishPendingSwap()
	},
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// setupLogger opens the update log under the global config directory.
// Falls back to a no-op logger when the directory cannot be created, so
// logging problems never block an update.
func setupLogger() logger.Logger {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return logger.NewNoOpLogger()
	}

	logDir := filepath.Join(homeDir, internalconfig.GlobalConfigDir)
	if mkErr := os.MkdirAll(logDir, internalconfig.ConfigDirMode); mkErr != nil {
		return logger.NewNoOpLogger()
	}

	log, err := logger.NewFileLogger(filepath.Join(logDir, UpdateLogFile), debugMode)
	if err != nil {
		return logger.NewNoOpLogger()
	}

	return log
}

// finishPendingSwap applies a binary a previous run staged but could not
// swap in, e.g. when the file was locked until process exit.
func finishPendingSwap() {
	live, err := update.CurrentBinaryPath()
	if err != nil {
		return
	}

	applied, err := update.ApplyStaged(live)
	if err != nil {
		setupLogger().Error("failed to apply staged update", "error", err)

		return
	}

	if applied {
		setupLogger().Info("staged update applied", "target", live)
	}
}

// loadConfig loads configuration from all sources with precedence.
// flags carries CLI overrides as dotted config keys.
func loadConfig(log logger.Logger, flags map[string]any) (*config.Config, error) {
	loader, err := internalconfig.NewKoanfLoader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config loader")
	}

	cfg, err := loader.Load(flags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	log.Debug("configuration loaded")

	return cfg, nil
}
