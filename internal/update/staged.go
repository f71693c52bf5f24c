package update

import (
	"os"

	"github.com/cockroachdb/errors"
)

// stagedSuffix names the staging slot beside the live binary. Staging in the
// same directory keeps the final rename atomic.
const stagedSuffix = ".staged"

// fallbackBinaryMode is used when the live binary's mode cannot be read.
const fallbackBinaryMode = os.FileMode(0o755)

// StagedPath returns the staging slot for a live binary path.
func StagedPath(livePath string) string {
	return livePath + stagedSuffix
}

// stage copies the verified download into the staging slot beside the live
// binary, carrying over the live file's permissions.
//
//nolint:gosec // G304: both paths are pipeline-owned
func stage(tmpPath, livePath string) (string, error) {
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", errors.Wrap(err, "reading downloaded binary")
	}

	mode := fallbackBinaryMode
	if info, statErr := os.Stat(livePath); statErr == nil {
		mode = info.Mode()
	}

	stagedPath := StagedPath(livePath)

	if writeErr := os.WriteFile(stagedPath, data, mode); writeErr != nil {
		return "", errors.Wrap(writeErr, "writing staged binary")
	}

	return stagedPath, nil
}

// ApplyStaged finishes a swap that a previous run staged but could not
// complete, e.g. when the platform defers the rename to the next launch.
// Called at process start; returns true if a staged binary was applied.
func ApplyStaged(livePath string) (bool, error) {
	stagedPath := StagedPath(livePath)

	if _, err := os.Stat(stagedPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, errors.Wrap(err, "checking staging slot")
	}

	if err := atomicReplace(stagedPath, livePath); err != nil {
		return false, errors.Wrap(err, "applying staged binary")
	}

	return true, nil
}
