package update

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// backupSuffix names the backup slot beside the live binary.
const backupSuffix = ".backup"

// backup is the saved pre-update copy of the live binary, the sole basis for
// rollback. It is owned exclusively by the pipeline for the duration of one
// install attempt.
type backup struct {
	// Path is the on-disk location of the copy.
	Path string

	// Size is the byte count of the original live binary.
	Size int64

	// Checksum is the SHA-256 hex digest of the original content.
	Checksum string
}

// createBackup copies the live binary into the backup slot and verifies the
// copy is readable and complete. It must succeed before any destructive
// replace step begins; a failure here aborts the cycle with the live binary
// untouched.
//
//nolint:gosec // G304: livePath is the resolved running executable
func createBackup(livePath string) (*backup, error) {
	src, err := os.Open(livePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening live binary")
	}
	defer src.Close() //nolint:errcheck // read-only file

	info, err := src.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat live binary")
	}

	backupPath := livePath + backupSuffix

	out, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return nil, errors.Wrap(err, "creating backup file")
	}

	hasher := sha256.New()

	written, copyErr := io.Copy(io.MultiWriter(out, hasher), src)

	if closeErr := out.Close(); closeErr != nil && copyErr == nil {
		copyErr = closeErr
	}

	if copyErr != nil {
		removeFile(backupPath)

		return nil, errors.Wrap(copyErr, "writing backup")
	}

	// Read back and compare size as a sanity check.
	copied, err := os.Stat(backupPath)
	if err != nil {
		removeFile(backupPath)

		return nil, errors.Wrap(err, "stat backup file")
	}

	if copied.Size() != info.Size() || written != info.Size() {
		removeFile(backupPath)

		return nil, errors.Errorf(
			"backup size mismatch: live %d bytes, backup %d bytes",
			info.Size(), copied.Size(),
		)
	}

	return &backup{
		Path:     backupPath,
		Size:     written,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Restore puts the live path back to the backed-up content and verifies the
// restored file by size and checksum. When the failed install never modified
// the live binary the restore is a verified no-op.
func (b *backup) Restore(livePath string) error {
	current, err := fileChecksum(livePath)
	if err == nil && current == b.Checksum {
		return nil
	}

	if copyErr := replaceFileWith(livePath, b.Path); copyErr != nil {
		return errors.Wrap(copyErr, "restoring backup")
	}

	restored, err := os.Stat(livePath)
	if err != nil {
		return errors.Wrap(err, "stat restored binary")
	}

	if restored.Size() != b.Size {
		return errors.Errorf(
			"restored size mismatch: want %d bytes, got %d",
			b.Size, restored.Size(),
		)
	}

	sum, err := fileChecksum(livePath)
	if err != nil {
		return errors.Wrap(err, "verifying restored binary")
	}

	if sum != b.Checksum {
		return errors.Errorf("restored checksum mismatch: want %s, got %s", b.Checksum, sum)
	}

	return nil
}

// Remove deletes the backup file, ignoring errors.
func (b *backup) Remove() {
	removeFile(b.Path)
}

// replaceFileWith atomically replaces the file at targetPath with the content
// of srcPath: write to a temp file in the same directory, then rename.
//
//nolint:gosec // G304: both paths are pipeline-owned
func replaceFileWith(targetPath, srcPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.Wrap(err, "reading source file")
	}

	mode := os.FileMode(0o755)
	if info, statErr := os.Stat(targetPath); statErr == nil {
		mode = info.Mode()
	}

	dir := filepath.Dir(targetPath)
	tmpFile := filepath.Join(dir, ".simblock-restore-tmp")

	if writeErr := os.WriteFile(tmpFile, data, mode); writeErr != nil {
		return errors.Wrap(writeErr, "writing temporary file")
	}

	if renameErr := os.Rename(tmpFile, targetPath); renameErr != nil {
		removeFile(tmpFile)

		return errors.Wrap(renameErr, "replacing file")
	}

	return nil
}

// fileChecksum computes the SHA-256 hex digest of a file.
//
//nolint:gosec // G304: path is pipeline-owned
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file for checksum")
	}
	defer f.Close() //nolint:errcheck // read-only file

	h := sha256.New()

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "computing checksum")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
