// Package release fetches SimBlock release metadata from the remote channel
// and selects the downloadable asset for the running platform.
package release

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoReleases is returned when the release channel has no published releases.
	ErrNoReleases = errors.New("no releases found")

	// ErrNoAsset is returned when no release asset matches the selection rule.
	ErrNoAsset = errors.New("no matching release asset")

	// ErrRateLimited is returned when the release API rate limit is exceeded.
	ErrRateLimited = errors.New("release API rate limit exceeded")

	// ErrMalformedRelease is returned when release metadata is missing required fields.
	ErrMalformedRelease = errors.New("malformed release metadata")
)

// Asset is one downloadable file attached to a release. It is produced by
// a Source and consumed once by the update pipeline.
type Asset struct {
	// Name is the asset filename as published.
	Name string

	// DownloadURL is the direct download location.
	DownloadURL string

	// Size is the declared size in bytes, used to verify the download.
	Size int64
}

// Info describes one published release. It is fetched fresh per check and
// never cached across calls.
type Info struct {
	// Tag is the release tag, e.g. "v1.0.1".
	Tag string

	// Prerelease marks the release as unstable on the channel.
	Prerelease bool

	// Assets lists downloadable files in channel order.
	Assets []Asset

	// Notes is the free-text release description.
	Notes string
}

// Source loads release metadata from a remote channel.
type Source interface {
	// FetchLatest retrieves the latest published release.
	// Returns ErrNoReleases when the channel is empty.
	FetchLatest(ctx context.Context) (*Info, error)
}
