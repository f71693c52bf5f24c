package release

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// SelectAsset picks the downloadable asset for a platform from a release's
// asset list. Priority: first asset named like a bare executable carrying the
// product token, then first archive carrying the token. Ties break on channel
// order, so selection is deterministic.
func SelectAsset(platform Platform, product string, assets []Asset) (Asset, error) {
	for _, a := range assets {
		if strings.Contains(a.Name, product) && isExecutableName(platform, a.Name) {
			return a, nil
		}
	}

	for _, a := range assets {
		if strings.Contains(a.Name, product) && strings.HasSuffix(a.Name, platform.ArchiveExt()) {
			return a, nil
		}
	}

	return Asset{}, errors.Wrapf(
		ErrNoAsset,
		"product %q on %s/%s among %d assets",
		product, platform.OS, platform.Arch, len(assets),
	)
}

// isExecutableName reports whether name looks like the platform's bare
// executable: the ".exe" suffix on Windows, an extension-free name elsewhere.
func isExecutableName(platform Platform, name string) bool {
	if ext := platform.ExecutableExt(); ext != "" {
		return strings.HasSuffix(name, ext)
	}

	return filepath.Ext(name) == ""
}
