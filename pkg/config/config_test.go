package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/simblock-app/simblock/pkg/config"
)

var _ = Describe("Config", func() {
	Describe("GetUpdate", func() {
		It("returns the configured update section", func() {
			cfg := &config.Config{Update: &config.UpdateConfig{Product: "Custom"}}
			Expect(cfg.GetUpdate().GetProduct()).To(Equal("Custom"))
		})

		It("defaults when the section is missing", func() {
			cfg := &config.Config{}
			Expect(cfg.GetUpdate()).NotTo(BeNil())
		})

		It("tolerates a nil config", func() {
			var cfg *config.Config
			Expect(cfg.GetUpdate()).NotTo(BeNil())
		})
	})

	Describe("UpdateConfig", func() {
		It("defaults to enabled", func() {
			u := &config.UpdateConfig{}
			Expect(u.IsEnabled()).To(BeTrue())
		})

		It("honors an explicit disable", func() {
			disabled := false
			u := &config.UpdateConfig{Enabled: &disabled}
			Expect(u.IsEnabled()).To(BeFalse())
		})

		It("defaults the check interval", func() {
			u := &config.UpdateConfig{}
			Expect(u.GetInterval()).To(Equal(config.DefaultCheckInterval))
		})

		It("returns the configured interval", func() {
			u := &config.UpdateConfig{Interval: config.Duration(30 * time.Minute)}
			Expect(u.GetInterval()).To(Equal(30 * time.Minute))
		})

		It("defaults to installing, not notify-only", func() {
			u := &config.UpdateConfig{}
			Expect(u.IsNotifyOnly()).To(BeFalse())
		})

		It("honors notify-only", func() {
			notify := true
			u := &config.UpdateConfig{NotifyOnly: &notify}
			Expect(u.IsNotifyOnly()).To(BeTrue())
		})

		It("defaults the release channel", func() {
			u := &config.UpdateConfig{}
			Expect(u.GetProduct()).To(Equal("SimBlock"))
			Expect(u.GetOwner()).To(Equal("simblock-app"))
			Expect(u.GetRepo()).To(Equal("simblock"))
		})

		It("tolerates a nil receiver", func() {
			var u *config.UpdateConfig
			Expect(u.IsEnabled()).To(BeTrue())
			Expect(u.GetInterval()).To(Equal(config.DefaultCheckInterval))
			Expect(u.IsNotifyOnly()).To(BeFalse())
			Expect(u.GetProduct()).To(Equal("SimBlock"))
		})
	})
})

var _ = Describe("Duration", func() {
	It("parses duration strings", func() {
		var d config.Duration
		Expect(d.UnmarshalText([]byte("90m"))).To(Succeed())
		Expect(d.ToDuration()).To(Equal(90 * time.Minute))
	})

	It("rejects malformed input", func() {
		var d config.Duration
		Expect(d.UnmarshalText([]byte("soon"))).NotTo(Succeed())
	})

	It("rejects negative durations", func() {
		var d config.Duration
		err := d.UnmarshalText([]byte("-5m"))
		Expect(err).To(MatchError(config.ErrNegativeDuration))
	})

	It("round-trips through text", func() {
		d := config.Duration(6 * time.Hour)

		text, err := d.MarshalText()
		Expect(err).NotTo(HaveOccurred())

		var parsed config.Duration
		Expect(parsed.UnmarshalText(text)).To(Succeed())
		Expect(parsed).To(Equal(d))
	})

	It("formats as a duration string", func() {
		Expect(config.Duration(6 * time.Hour).String()).To(Equal("6h0m0s"))
	})
})
