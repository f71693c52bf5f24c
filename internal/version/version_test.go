package version_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/simblock-app/simblock/internal/version"
)

var _ = Describe("Parse", func() {
	It("parses a bare numeric triple", func() {
		v, err := version.Parse("1.2.3")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Major()).To(Equal(uint64(1)))
		Expect(v.Minor()).To(Equal(uint64(2)))
		Expect(v.Patch()).To(Equal(uint64(3)))
		Expect(v.IsPrerelease()).To(BeFalse())
	})

	It("strips a single leading v", func() {
		v, err := version.Parse("v1.2.3")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.String()).To(Equal("1.2.3"))
	})

	It("strips a single leading V", func() {
		v, err := version.Parse("V1.2.3")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.String()).To(Equal("1.2.3"))
	})

	It("parses a prerelease label", func() {
		v, err := version.Parse("1.2.3-beta.2")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.IsPrerelease()).To(BeTrue())
		Expect(v.Prerelease()).To(Equal("beta.2"))
	})

	It("rejects a missing patch component", func() {
		_, err := version.Parse("1.2")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects a missing minor component", func() {
		_, err := version.Parse("1")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects empty input", func() {
		_, err := version.Parse("")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects a bare v", func() {
		_, err := version.Parse("v")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects a double v prefix", func() {
		_, err := version.Parse("vv1.2.3")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects non-numeric components", func() {
		_, err := version.Parse("1.x.3")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects build metadata", func() {
		_, err := version.Parse("1.2.3+build.5")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects leading zeros in numeric components", func() {
		_, err := version.Parse("01.2.3")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})

	It("rejects surrounding whitespace", func() {
		_, err := version.Parse(" 1.2.3")
		Expect(err).To(MatchError(version.ErrInvalidVersion))
	})
})

var _ = Describe("Compare", func() {
	compare := func(a, b string) version.Ordering {
		return version.MustParse(a).Compare(version.MustParse(b))
	}

	It("ignores the v prefix for equality", func() {
		Expect(compare("v1.2.3", "1.2.3")).To(Equal(version.Equal))
	})

	It("orders by major first", func() {
		Expect(compare("2.0.0", "1.9.9")).To(Equal(version.Greater))
		Expect(compare("1.9.9", "2.0.0")).To(Equal(version.Less))
	})

	It("orders by minor when major matches", func() {
		Expect(compare("1.3.0", "1.2.9")).To(Equal(version.Greater))
	})

	It("orders by patch when major and minor match", func() {
		Expect(compare("1.2.4", "1.2.3")).To(Equal(version.Greater))
	})

	It("orders a stable version after its prerelease", func() {
		Expect(compare("1.0.0", "1.0.0-rc.1")).To(Equal(version.Greater))
		Expect(compare("1.0.0-rc.1", "1.0.0")).To(Equal(version.Less))
	})

	It("orders numeric prerelease identifiers numerically", func() {
		Expect(compare("1.0.0-alpha.10", "1.0.0-alpha.2")).To(Equal(version.Greater))
	})

	It("orders numeric identifiers before alphanumeric ones", func() {
		Expect(compare("1.0.0-1", "1.0.0-alpha")).To(Equal(version.Less))
	})

	It("orders alphanumeric identifiers lexically", func() {
		Expect(compare("1.0.0-alpha", "1.0.0-beta")).To(Equal(version.Less))
	})

	It("orders a prefix prerelease sequence first", func() {
		Expect(compare("1.0.0-alpha", "1.0.0-alpha.1")).To(Equal(version.Less))
	})

	It("treats identical prereleases as equal", func() {
		Expect(compare("1.0.0-beta.2", "v1.0.0-beta.2")).To(Equal(version.Equal))
	})

	It("orders the canonical chain", func() {
		chain := []string{
			"1.0.0-alpha",
			"1.0.0-alpha.1",
			"1.0.0-alpha.beta",
			"1.0.0-beta",
			"1.0.0-beta.2",
			"1.0.0-beta.11",
			"1.0.0-rc.1",
			"1.0.0",
		}

		for i := 1; i < len(chain); i++ {
			prev := version.MustParse(chain[i-1])
			next := version.MustParse(chain[i])
			Expect(next.Compare(prev)).To(Equal(version.Greater),
				"%s should order after %s", chain[i], chain[i-1])
		}
	})
})

var _ = Describe("Ordering", func() {
	It("names all values", func() {
		Expect(version.Less.String()).To(Equal("less"))
		Expect(version.Equal.String()).To(Equal("equal"))
		Expect(version.Greater.String()).To(Equal("greater"))
	})
})
