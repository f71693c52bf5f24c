//go:build !windows

package update

import "os"

// atomicReplace swaps the staged binary into the live path. POSIX rename
// replaces a running executable atomically; the old inode stays alive for
// the running process.
func atomicReplace(stagedPath, livePath string) error {
	return os.Rename(stagedPath, livePath)
}
