package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/simblock-app/simblock/internal/release"
	"github.com/simblock-app/simblock/internal/update"
	"github.com/simblock-app/simblock/pkg/config"
	"github.com/simblock-app/simblock/pkg/logger"
)

const (
	updateTimeout        = 5 * time.Minute
	durationDisplayUnits = 2
)

var (
	updateCheckOnly bool
	updateYes       bool
	updateWatch     bool
	updateOwner     string
	updateRepo      string
	updateProduct   string
	updateInterval  time.Duration
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and install SimBlock updates",
	Long: `Check the release channel for a newer SimBlock and install it.

Downloads the matching release asset, backs up the current binary,
and atomically replaces it. A failed install is rolled back from
the backup.

Examples:
  simblock update            # Check and install if newer
  simblock update --check    # Check only, don't install
  simblock update --watch    # Keep checking on the configured interval`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(
		&updateCheckOnly,
		"check",
		false,
		"Only check for updates, don't install",
	)
	updateCmd.Flags().BoolVarP(
		&updateYes,
		"yes",
		"y",
		false,
		"Install even when the config is notify-only",
	)
	updateCmd.Flags().BoolVar(
		&updateWatch,
		"watch",
		false,
		"Keep checking on the configured interval until interrupted",
	)
	updateCmd.Flags().StringVar(
		&updateOwner,
		"owner",
		"",
		"Release channel owner (overrides config)",
	)
	updateCmd.Flags().StringVar(
		&updateRepo,
		"repo",
		"",
		"Release channel repository (overrides config)",
	)
	updateCmd.Flags().StringVar(
		&updateProduct,
		"product",
		"",
		"Product name token assets must carry (overrides config)",
	)
	updateCmd.Flags().DurationVar(
		&updateInterval,
		"interval",
		0,
		"Check interval for --watch (overrides config)",
	)
}

func runUpdate(_ *cobra.Command, _ []string) error {
	log := setupLogger()

	cfg, err := loadConfig(log, buildUpdateFlagsMap())
	if err != nil {
		return err
	}

	updateCfg := cfg.GetUpdate()

	if updateWatch {
		return runWatch(updateCfg, log)
	}

	return runOnce(buildScheduler(updateCfg, log), updateCfg)
}

// buildUpdateFlagsMap converts CLI flags to a map for the config provider.
func buildUpdateFlagsMap() map[string]any {
	flags := make(map[string]any)

	if updateOwner != "" {
		flags["update.owner"] = updateOwner
	}

	if updateRepo != "" {
		flags["update.repo"] = updateRepo
	}

	if updateProduct != "" {
		flags["update.product"] = updateProduct
	}

	if updateInterval > 0 {
		flags["update.interval"] = updateInterval.String()
	}

	return flags
}

func buildScheduler(
	updateCfg *config.UpdateConfig,
	log logger.Logger,
	opts ...update.SchedulerOption,
) *update.Scheduler {
	source := release.NewGitHubSource(updateCfg.GetOwner(), updateCfg.GetRepo())

	pipeline := update.NewPipeline(
		source,
		updateCfg.GetProduct(),
		update.WithLogger(log),
	)

	opts = append([]update.SchedulerOption{update.WithSchedulerLogger(log)}, opts...)

	return update.NewScheduler(pipeline, version, opts...)
}

// runOnce performs a single check and, unless the run is check-only or the
// config is notify-only, installs the update.
func runOnce(scheduler *update.Scheduler, updateCfg *config.UpdateConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	info, err := scheduler.CheckNow(ctx, false)
	if err != nil {
		if errors.Is(err, release.ErrNoReleases) || errors.Is(err, release.ErrNoAsset) {
			fmt.Printf("No update available (version %s)\n", version)

			return nil
		}

		return errors.Wrap(err, "checking for updates")
	}

	if info == nil {
		fmt.Printf("Already up to date (version %s)\n", version)

		return nil
	}

	renderUpdateTable(info)

	if updateCheckOnly {
		fmt.Printf("\nRun 'simblock update' to install\n")

		return nil
	}

	if updateCfg.IsNotifyOnly() && !updateYes {
		fmt.Printf("\nConfig is notify-only; run with --yes to install\n")

		return nil
	}

	return performInstall(ctx, scheduler, info)
}

func performInstall(
	ctx context.Context,
	scheduler *update.Scheduler,
	info *update.UpdateInfo,
) error {
	fmt.Printf("\nDownloading %s...\n", info.Asset.Name)

	err := scheduler.Install(ctx, info, func(percent float64, received, total int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r  %.0f%% (%s / %s)",
				percent,
				humanize.Bytes(uint64(received)), //nolint:gosec // received is non-negative
				humanize.Bytes(uint64(total)),    //nolint:gosec // total is positive
			)
		} else {
			fmt.Fprintf(os.Stderr, "\r  %s", humanize.Bytes(uint64(received))) //nolint:gosec // received is non-negative
		}
	})

	// Clear progress line
	fmt.Fprintf(os.Stderr, "\r%60s\r", "")

	if err != nil {
		if errors.Is(err, update.ErrRollbackFailed) {
			return errors.Wrap(err, "install failed and rollback failed; restore the .backup file manually")
		}

		return errors.Wrap(err, "update failed")
	}

	fmt.Printf("Updated %s -> %s\n", version, info.Version.String())

	return nil
}

// runWatch keeps the scheduler checking on the configured interval until
// the process is interrupted. Outcomes are reported as they arrive.
func runWatch(updateCfg *config.UpdateConfig, log logger.Logger) error {
	if !updateCfg.IsEnabled() {
		return errors.New("automatic updates are disabled in the config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *update.Scheduler

	scheduler = buildScheduler(updateCfg, log,
		update.WithResultFunc(func(outcome update.Outcome) {
			handleWatchOutcome(scheduler, updateCfg, outcome)
		}),
	)

	interval := updateCfg.GetInterval()
	scheduler.Start(interval)

	defer scheduler.Stop()

	fmt.Printf("Checking every %s, press Ctrl+C to stop\n",
		durafmt.Parse(interval).LimitFirstN(durationDisplayUnits).String())

	<-ctx.Done()
	fmt.Printf("\nStopped\n")

	return nil
}

func handleWatchOutcome(
	scheduler *update.Scheduler,
	updateCfg *config.UpdateConfig,
	outcome update.Outcome,
) {
	switch outcome.Kind {
	case update.OutcomeUpdateAvailable:
		fmt.Printf("\nUpdate available: %s\n", outcome.Info.Version.String())

		if updateCfg.IsNotifyOnly() {
			fmt.Printf("Config is notify-only; run 'simblock update --yes' to install\n")

			return
		}

		go installFromWatch(scheduler, outcome.Info)
	case update.OutcomeCompleted:
		fmt.Printf("Update installed; restart SimBlock to use the new version\n")
	case update.OutcomeRollbackFailure:
		fmt.Fprintf(os.Stderr,
			"\nInstall and rollback both failed: %v\nRestore the .backup file manually\n",
			outcome.Err,
		)
	case update.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "\nUpdate check failed: %v\n", outcome.Err)
	case update.OutcomeNoUpdate:
	}
}

func installFromWatch(scheduler *update.Scheduler, info *update.UpdateInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	if err := scheduler.Install(ctx, info, nil); err != nil && !errors.Is(err, update.ErrBusy) {
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
	}
}

// renderUpdateTable prints the available update as a bordered table.
func renderUpdateTable(info *update.UpdateInfo) {
	t := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
	)

	t.Header([]string{"", "Version"})

	_ = t.Append([]string{"Current", version})
	_ = t.Append([]string{"Latest", info.Version.String()})
	_ = t.Append([]string{"Asset", info.Asset.Name})
	_ = t.Append([]string{"Size", humanize.Bytes(uint64(info.Asset.Size))}) //nolint:gosec // size is non-negative

	_ = t.Render()
}
