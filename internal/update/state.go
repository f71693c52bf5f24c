package update

import (
	"github.com/simblock-app/simblock/internal/release"
	"github.com/simblock-app/simblock/internal/version"
)

// State identifies the pipeline's position in one update cycle.
type State int

const (
	// StateIdle means no cycle is running.
	StateIdle State = iota

	// StateChecking means release metadata is being fetched and compared.
	StateChecking

	// StateDownloading means the asset is streaming to a temporary path.
	StateDownloading

	// StateBackingUp means the live binary is being copied aside.
	StateBackingUp

	// StateInstalling means the staged binary is being swapped into place.
	StateInstalling

	// StateRollingBack means the backup is being restored after an install failure.
	StateRollingBack

	// StateCompleted means the swap was confirmed and cleanup finished.
	StateCompleted

	// StateFailed means the cycle ended without installing.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateDownloading:
		return "downloading"
	case StateBackingUp:
		return "backing-up"
	case StateInstalling:
		return "installing"
	case StateRollingBack:
		return "rolling-back"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// UpdateInfo is the result of a successful check: the newer remote version
// and the asset that delivers it. The caller owns it until passing it back
// into DownloadAndInstall.
type UpdateInfo struct {
	Version version.Version
	Asset   release.Asset
	Notes   string
}

// ProgressFunc receives download progress. Percent is clamped to [0,100]
// even when received and total disagree; total is the declared asset size.
type ProgressFunc func(percent float64, received, total int64)

// OutcomeKind enumerates the terminal results of one pipeline invocation.
type OutcomeKind int

const (
	// OutcomeNoUpdate means the channel holds nothing newer.
	OutcomeNoUpdate OutcomeKind = iota

	// OutcomeUpdateAvailable means a newer release was found; installing it
	// is a separate, explicit decision.
	OutcomeUpdateAvailable

	// OutcomeCompleted means a new binary was installed.
	OutcomeCompleted

	// OutcomeFailed means the cycle failed but the installation is intact.
	OutcomeFailed

	// OutcomeRollbackFailure means the install failed AND restoring the
	// backup failed: the installation may be inconsistent.
	OutcomeRollbackFailure
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUpdateAvailable:
		return "update-available"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeRollbackFailure:
		return "rollback-failure"
	default:
		return "no-update"
	}
}

// Outcome is the terminal result surface delivered once per invocation.
type Outcome struct {
	Kind OutcomeKind

	// Info is set for OutcomeUpdateAvailable.
	Info *UpdateInfo

	// Err is set for OutcomeFailed and OutcomeRollbackFailure.
	Err error
}

// ResultFunc consumes terminal outcomes; the presentation layer owns any
// thread or UI affinity.
type ResultFunc func(Outcome)
