//go:build windows

package update

import "os"

// atomicReplace on Windows handles the fact that a running .exe cannot be
// overwritten. Windows allows renaming a locked file but not deleting it:
// move the live binary aside, then move the staged binary into place.
func atomicReplace(stagedPath, livePath string) error {
	oldPath := livePath + ".old"

	// Remove any leftover from a previous update.
	_ = os.Remove(oldPath)

	if err := os.Rename(livePath, oldPath); err != nil {
		return err
	}

	if err := os.Rename(stagedPath, livePath); err != nil {
		// Put the original back so the failure is non-destructive.
		_ = os.Rename(oldPath, livePath)

		return err
	}

	// Best-effort: the old binary stays locked until the process exits.
	_ = os.Remove(oldPath)

	return nil
}
