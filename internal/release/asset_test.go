package release_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/simblock-app/simblock/internal/release"
)

var _ = Describe("SelectAsset", func() {
	windows := release.Platform{OS: "windows", Arch: "amd64"}
	linux := release.Platform{OS: "linux", Arch: "amd64"}

	It("prefers the bare executable over the archive on Windows", func() {
		assets := []release.Asset{
			{Name: "SimBlock.zip", Size: 2048},
			{Name: "SimBlock.exe", Size: 1024},
			{Name: "README.md", Size: 10},
		}

		got, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("SimBlock.exe"))
	})

	It("falls back to the archive when no executable matches", func() {
		assets := []release.Asset{
			{Name: "SimBlock.zip", Size: 2048},
			{Name: "checksums.txt", Size: 10},
		}

		got, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("SimBlock.zip"))
	})

	It("returns ErrNoAsset when nothing carries the product token", func() {
		assets := []release.Asset{
			{Name: "OtherTool.exe", Size: 1024},
			{Name: "OtherTool.zip", Size: 2048},
		}

		_, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).To(MatchError(release.ErrNoAsset))
	})

	It("returns ErrNoAsset for an empty asset list", func() {
		_, err := release.SelectAsset(windows, "SimBlock", nil)
		Expect(err).To(MatchError(release.ErrNoAsset))
	})

	It("requires the product token even for matching extensions", func() {
		assets := []release.Asset{
			{Name: "installer.exe", Size: 1024},
		}

		_, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).To(MatchError(release.ErrNoAsset))
	})

	It("breaks ties on channel order", func() {
		assets := []release.Asset{
			{Name: "SimBlock-x64.exe", Size: 1024},
			{Name: "SimBlock-arm64.exe", Size: 1024},
		}

		got, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("SimBlock-x64.exe"))
	})

	It("matches the token case-sensitively", func() {
		assets := []release.Asset{
			{Name: "simblock.exe", Size: 1024},
		}

		_, err := release.SelectAsset(windows, "SimBlock", assets)
		Expect(err).To(MatchError(release.ErrNoAsset))
	})

	It("selects an extension-free name as the executable on Linux", func() {
		assets := []release.Asset{
			{Name: "SimBlock.tar.gz", Size: 2048},
			{Name: "SimBlock", Size: 1024},
		}

		got, err := release.SelectAsset(linux, "SimBlock", assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("SimBlock"))
	})

	It("falls back to the tarball on Linux", func() {
		assets := []release.Asset{
			{Name: "SimBlock.tar.gz", Size: 2048},
			{Name: "SimBlock.zip", Size: 2048},
		}

		got, err := release.SelectAsset(linux, "SimBlock", assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("SimBlock.tar.gz"))
	})

	It("does not pick the Windows executable on Linux", func() {
		assets := []release.Asset{
			{Name: "SimBlock.exe", Size: 1024},
		}

		_, err := release.SelectAsset(linux, "SimBlock", assets)
		Expect(err).To(MatchError(release.ErrNoAsset))
	})
})

var _ = Describe("Platform", func() {
	It("reports Windows extensions", func() {
		p := release.Platform{OS: "windows", Arch: "amd64"}
		Expect(p.IsWindows()).To(BeTrue())
		Expect(p.ExecutableExt()).To(Equal(".exe"))
		Expect(p.ArchiveExt()).To(Equal(".zip"))
	})

	It("reports Unix extensions", func() {
		p := release.Platform{OS: "darwin", Arch: "arm64"}
		Expect(p.IsWindows()).To(BeFalse())
		Expect(p.ExecutableExt()).To(Equal(""))
		Expect(p.ArchiveExt()).To(Equal(".tar.gz"))
	})

	It("describes the running process", func() {
		p := release.CurrentPlatform()
		Expect(p.OS).NotTo(BeEmpty())
		Expect(p.Arch).NotTo(BeEmpty())
	})
})
