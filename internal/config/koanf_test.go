package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/simblock-app/simblock/internal/config"
)

// writeGlobalConfig writes a config.toml under homeDir/.simblock.
func writeGlobalConfig(homeDir, content string, mode os.FileMode) string {
	dir := filepath.Join(homeDir, internalconfig.GlobalConfigDir)
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

	path := filepath.Join(dir, internalconfig.GlobalConfigFile)
	Expect(os.WriteFile(path, []byte(content), mode)).To(Succeed())
	// WriteFile applies the process umask; chmod so the file really has
	// the requested mode.
	Expect(os.Chmod(path, mode)).To(Succeed())

	return path
}

var _ = Describe("KoanfLoader", func() {
	var homeDir string

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		It("returns defaults when no config exists", func() {
			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			cfg, err := loader.Load(nil)
			Expect(err).NotTo(HaveOccurred())

			u := cfg.GetUpdate()
			Expect(u.IsEnabled()).To(BeTrue())
			Expect(u.GetInterval()).To(Equal(6 * time.Hour))
			Expect(u.IsNotifyOnly()).To(BeFalse())
			Expect(u.GetProduct()).To(Equal("SimBlock"))
			Expect(u.GetOwner()).To(Equal("simblock-app"))
			Expect(u.GetRepo()).To(Equal("simblock"))
		})

		It("loads values from the global TOML file", func() {
			writeGlobalConfig(homeDir, `
[update]
enabled = false
interval = "30m"
notify_only = true
owner = "my-fork"
repo = "my-simblock"
`, 0o600)

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			cfg, err := loader.Load(nil)
			Expect(err).NotTo(HaveOccurred())

			u := cfg.GetUpdate()
			Expect(u.IsEnabled()).To(BeFalse())
			Expect(u.GetInterval()).To(Equal(30 * time.Minute))
			Expect(u.IsNotifyOnly()).To(BeTrue())
			Expect(u.GetOwner()).To(Equal("my-fork"))
			Expect(u.GetRepo()).To(Equal("my-simblock"))
		})

		It("rejects a world-writable config file", func() {
			writeGlobalConfig(homeDir, "[update]\n", 0o666)

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			_, err := loader.Load(nil)
			Expect(err).To(MatchError(internalconfig.ErrInvalidPermissions))
		})

		It("lets environment variables override the file", func() {
			writeGlobalConfig(homeDir, `
[update]
owner = "file-owner"
`, 0o600)

			GinkgoT().Setenv("SIMBLOCK_UPDATE_OWNER", "env-owner")

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			cfg, err := loader.Load(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.GetUpdate().GetOwner()).To(Equal("env-owner"))
		})

		It("maps double underscores to key underscores", func() {
			GinkgoT().Setenv("SIMBLOCK_UPDATE_NOTIFY__ONLY", "true")

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			cfg, err := loader.Load(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.GetUpdate().IsNotifyOnly()).To(BeTrue())
		})

		It("gives CLI flags the highest precedence", func() {
			writeGlobalConfig(homeDir, `
[update]
owner = "file-owner"
`, 0o600)

			GinkgoT().Setenv("SIMBLOCK_UPDATE_OWNER", "env-owner")

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			cfg, err := loader.Load(map[string]any{"update.owner": "flag-owner"})
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.GetUpdate().GetOwner()).To(Equal("flag-owner"))
		})

		It("rejects a malformed interval", func() {
			writeGlobalConfig(homeDir, `
[update]
interval = "whenever"
`, 0o600)

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			_, err := loader.Load(nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GlobalConfigPath", func() {
		It("points inside the home directory", func() {
			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)

			Expect(loader.GlobalConfigPath()).To(Equal(
				filepath.Join(homeDir, ".simblock", "config.toml"),
			))
		})
	})

	Describe("HasGlobalConfig", func() {
		It("reports a missing config", func() {
			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)
			Expect(loader.HasGlobalConfig()).To(BeFalse())
		})

		It("reports an existing config", func() {
			writeGlobalConfig(homeDir, "[update]\n", 0o600)

			loader := internalconfig.NewKoanfLoaderWithDir(homeDir)
			Expect(loader.HasGlobalConfig()).To(BeTrue())
		})
	})
})
