// Package version parses release version strings and defines a total order
// over them, so "is the remote build newer" is always a well-defined question.
package version

import (
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// ErrInvalidVersion is returned when a version string cannot be parsed.
var ErrInvalidVersion = errors.New("invalid version")

// Ordering is the result of comparing two versions.
type Ordering int

const (
	// Less means the receiver orders strictly before the argument.
	Less Ordering = iota - 1

	// Equal means both versions have identical precedence.
	Equal

	// Greater means the receiver orders strictly after the argument.
	Greater
)

// String returns a human-readable name for the ordering.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Version is an immutable parsed release version.
// The zero value is not a valid version; obtain one via Parse.
type Version struct {
	sv *semver.Version
}

// Parse parses a version string of the form ["v"] major.minor.patch
// ["-" prerelease]. A single leading "v" or "V" is stripped; the numeric
// triple is mandatory. Malformed input returns ErrInvalidVersion rather
// than defaulting any component to zero.
func Parse(text string) (Version, error) {
	trimmed := text
	if len(trimmed) > 0 && (trimmed[0] == 'v' || trimmed[0] == 'V') {
		trimmed = trimmed[1:]
	}

	sv, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: %v", text, err)
	}

	// The release tag grammar has no build-metadata suffix.
	if sv.Metadata() != "" {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: unexpected build metadata", text)
	}

	return Version{sv: sv}, nil
}

// MustParse parses a version string and panics on failure. For tests and
// compile-time-constant versions only.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return v
}

// Major returns the major component.
func (v Version) Major() uint64 {
	return v.sv.Major()
}

// Minor returns the minor component.
func (v Version) Minor() uint64 {
	return v.sv.Minor()
}

// Patch returns the patch component.
func (v Version) Patch() uint64 {
	return v.sv.Patch()
}

// Prerelease returns the dot-separated prerelease label, or "" for a
// stable version.
func (v Version) Prerelease() string {
	return v.sv.Prerelease()
}

// IsPrerelease reports whether the version carries a prerelease label.
func (v Version) IsPrerelease() bool {
	return v.sv.Prerelease() != ""
}

// Compare orders v against other. The order is total: numeric triple first,
// then a stable version beats a prerelease at the same triple, then
// prerelease identifiers compare left-to-right (numeric identifiers
// numerically and before alphanumeric ones, a strict prefix sequence first).
func (v Version) Compare(other Version) Ordering {
	switch c := v.sv.Compare(other.sv); {
	case c < 0:
		return Less
	case c > 0:
		return Greater
	default:
		return Equal
	}
}

// String returns the canonical version string without the "v" prefix.
func (v Version) String() string {
	if v.sv == nil {
		return ""
	}

	return v.sv.String()
}
