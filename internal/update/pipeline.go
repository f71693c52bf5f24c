// Package update implements the SimBlock self-update pipeline: check,
// download, backup, install, rollback, and cleanup run as a state machine
// whose stages communicate exclusively through return values, so one bad
// cycle can never crash the host process.
package update

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/simblock-app/simblock/internal/release"
	"github.com/simblock-app/simblock/internal/version"
	"github.com/simblock-app/simblock/pkg/logger"
)

// Pipeline orchestrates one update cycle against a single live binary path.
// At most one instance may be active system-wide; the Scheduler enforces
// that with its single-flight guard.
type Pipeline struct {
	source   release.Source
	platform release.Platform
	product  string
	target   string
	client   *http.Client
	log      logger.Logger

	replace         ReplaceFunc
	replaceAttempts int
	replaceBackoff  time.Duration

	mu    sync.Mutex
	state State
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for pipeline status events.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithHTTPClient sets the HTTP client used for asset downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) {
		p.client = client
	}
}

// WithTargetPath overrides the live binary path. The default is the
// resolved path of the running executable.
func WithTargetPath(path string) Option {
	return func(p *Pipeline) {
		p.target = path
	}
}

// WithPlatform overrides the platform used for asset selection.
func WithPlatform(platform release.Platform) Option {
	return func(p *Pipeline) {
		p.platform = platform
	}
}

// WithReplaceFunc overrides the staged-to-live swap (for testing).
func WithReplaceFunc(replace ReplaceFunc) Option {
	return func(p *Pipeline) {
		p.replace = replace
	}
}

// WithReplaceRetry tunes the bounded retry against transient file locks.
func WithReplaceRetry(attempts int, backoff time.Duration) Option {
	return func(p *Pipeline) {
		p.replaceAttempts = attempts
		p.replaceBackoff = backoff
	}
}

// NewPipeline creates a Pipeline reading releases from source and matching
// assets against the product name token.
func NewPipeline(source release.Source, product string, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:          source,
		platform:        release.CurrentPlatform(),
		product:         product,
		client:          http.DefaultClient,
		log:             logger.NewNoOpLogger(),
		replace:         atomicReplace,
		replaceAttempts: defaultReplaceAttempts,
		replaceBackoff:  defaultReplaceBackoff,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *Pipeline) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	p.log.Debug("pipeline state", "state", state)
}

// Check fetches the latest release and compares it against the caller's
// current version. Returns a non-nil UpdateInfo only when the remote version
// is strictly greater; nil on equal or older. Source errors pass through
// untouched so the caller can distinguish "no update" from "could not
// determine".
func (p *Pipeline) Check(ctx context.Context, current string) (*UpdateInfo, error) {
	p.setState(StateChecking)
	defer p.setState(StateIdle)

	cur, err := version.Parse(current)
	if err != nil {
		return nil, errors.Wrap(err, "parsing current version")
	}

	info, err := p.source.FetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := version.Parse(info.Tag)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing release tag %q", info.Tag)
	}

	if remote.Compare(cur) != version.Greater {
		p.log.Info("no update available",
			"current", cur.String(),
			"remote", remote.String(),
		)

		return nil, nil
	}

	asset, err := release.SelectAsset(p.platform, p.product, info.Assets)
	if err != nil {
		return nil, err
	}

	p.log.Info("update available",
		"current", cur.String(),
		"remote", remote.String(),
		"asset", asset.Name,
		"size", asset.Size,
	)

	return &UpdateInfo{
		Version: remote,
		Asset:   asset,
		Notes:   info.Notes,
	}, nil
}

// DownloadAndInstall drives Downloading -> BackingUp -> Installing ->
// Completed for a previously checked update. Any failure after the backup
// exists triggers RollingBack. Installing is never entered without a
// verified backup, and cancellation is honored only between stages.
func (p *Pipeline) DownloadAndInstall(
	ctx context.Context,
	info *UpdateInfo,
	progress ProgressFunc,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.setState(StateFailed)

			err = errors.Wrapf(ErrInstallFailed, "unexpected fault: %v", r)
		}
	}()

	target, err := p.targetPath()
	if err != nil {
		p.setState(StateFailed)

		return err
	}

	p.setState(StateDownloading)

	tmpPath, err := p.download(ctx, info.Asset, progress)
	if err != nil {
		// The live binary has not been touched; no rollback is needed.
		p.setState(StateFailed)

		return err
	}

	defer removeFile(tmpPath)

	// Cancellation is refused once installing begins staging changes, so
	// check it here, between stages.
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.setState(StateFailed)

		return errors.Wrap(ctxErr, "canceled before backup")
	}

	p.setState(StateBackingUp)

	bak, err := createBackup(target)
	if err != nil {
		// Backup is the only recovery path: abort before any destructive
		// step. Failed, not RollingBack, since nothing was modified.
		p.setState(StateFailed)

		return errors.Wrapf(ErrBackupFailed, "%v", err)
	}

	p.setState(StateInstalling)

	if installErr := p.install(tmpPath, target); installErr != nil {
		return p.rollback(bak, target, installErr)
	}

	bak.Remove()
	p.setState(StateCompleted)
	p.log.Info("update installed",
		"version", info.Version.String(),
		"target", target,
	)

	return nil
}

// install stages the downloaded artifact beside the live path, then swaps
// it in with bounded retry.
func (p *Pipeline) install(tmpPath, target string) error {
	staged, err := stage(tmpPath, target)
	if err != nil {
		return errors.Wrapf(ErrInstallFailed, "staging binary: %v", err)
	}

	if swapErr := p.swap(staged, target); swapErr != nil {
		removeFile(staged)

		return errors.Wrapf(ErrInstallFailed, "%v", swapErr)
	}

	return nil
}

// rollback restores the live binary from the backup. A verified restore
// reports the original install failure; a failed restore is escalated to
// ErrRollbackFailed, which callers must surface loudly.
func (p *Pipeline) rollback(bak *backup, target string, installErr error) error {
	p.setState(StateRollingBack)
	p.log.Error("install failed, rolling back", "error", installErr)

	if rbErr := bak.Restore(target); rbErr != nil {
		// Keep the backup file around: it is the only recovery artifact.
		p.setState(StateFailed)

		return errors.Wrapf(
			ErrRollbackFailed,
			"%v (after install failure: %v)", rbErr, installErr,
		)
	}

	bak.Remove()
	p.setState(StateFailed)
	p.log.Info("rollback complete, installation intact")

	return installErr
}

// targetPath resolves the live binary path.
func (p *Pipeline) targetPath() (string, error) {
	if p.target != "" {
		return p.target, nil
	}

	return CurrentBinaryPath()
}

// CurrentBinaryPath returns the resolved path to the currently running
// binary. Symlinks are resolved so the swap targets the real file.
func CurrentBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "getting executable path")
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", errors.Wrap(err, "resolving symlinks")
	}

	return resolved, nil
}
