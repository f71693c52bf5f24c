package update

import "github.com/cockroachdb/errors"

var (
	// ErrDownloadIncomplete is returned when the downloaded byte count does
	// not match the size declared by the release asset.
	ErrDownloadIncomplete = errors.New("download incomplete")

	// ErrBackupFailed is returned when the pre-install backup cannot be
	// created or verified. The live binary has not been touched.
	ErrBackupFailed = errors.New("backup failed")

	// ErrInstallFailed is returned when the staged binary cannot be swapped
	// into the live path after bounded retries.
	ErrInstallFailed = errors.New("install failed")

	// ErrRollbackFailed is returned when restoring the backup itself fails.
	// The installation may be in an inconsistent state; callers must not
	// treat this as a normal failure.
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrBusy is returned when a check or install is already in flight.
	ErrBusy = errors.New("update cycle already in flight")
)
