package config

import "time"

// Defaults for the update configuration.
const (
	// DefaultCheckInterval is the default period between automatic checks.
	DefaultCheckInterval = 6 * time.Hour

	// DefaultProduct is the name token release assets must carry.
	DefaultProduct = "SimBlock"

	// DefaultOwner is the release channel owner.
	DefaultOwner = "simblock-app"

	// DefaultRepo is the release channel repository.
	DefaultRepo = "simblock"
)

// Config is the root configuration.
type Config struct {
	// Update configures the self-update pipeline and scheduler.
	Update *UpdateConfig `json:"update,omitempty" koanf:"update" toml:"update"`
}

// GetUpdate returns the update configuration, defaulting when unset.
func (c *Config) GetUpdate() *UpdateConfig {
	if c == nil || c.Update == nil {
		return &UpdateConfig{}
	}

	return c.Update
}

// UpdateConfig configures the self-update pipeline and scheduler.
type UpdateConfig struct {
	// Enabled turns automatic update checks on.
	// Default: true
	Enabled *bool `json:"enabled,omitempty" koanf:"enabled" toml:"enabled"`

	// Interval is the period between automatic checks.
	// Default: 6h
	Interval Duration `json:"interval,omitempty" koanf:"interval" toml:"interval"`

	// NotifyOnly reports available updates without installing them.
	// Default: false
	NotifyOnly *bool `json:"notify_only,omitempty" koanf:"notify_only" toml:"notify_only"`

	// Product is the name token release assets must carry.
	// Default: "SimBlock"
	Product string `json:"product,omitempty" koanf:"product" toml:"product"`

	// Owner is the release channel owner.
	// Default: "simblock-app"
	Owner string `json:"owner,omitempty" koanf:"owner" toml:"owner"`

	// Repo is the release channel repository.
	// Default: "simblock"
	Repo string `json:"repo,omitempty" koanf:"repo" toml:"repo"`
}

// IsEnabled returns whether automatic update checks are enabled.
// Defaults to true when unset.
func (u *UpdateConfig) IsEnabled() bool {
	if u == nil || u.Enabled == nil {
		return true
	}

	return *u.Enabled
}

// GetInterval returns the check interval, defaulting when unset.
func (u *UpdateConfig) GetInterval() time.Duration {
	if u == nil || u.Interval == 0 {
		return DefaultCheckInterval
	}

	return u.Interval.ToDuration()
}

// IsNotifyOnly returns whether updates are reported but never installed
// automatically. Defaults to false when unset.
func (u *UpdateConfig) IsNotifyOnly() bool {
	if u == nil || u.NotifyOnly == nil {
		return false
	}

	return *u.NotifyOnly
}

// GetProduct returns the product name token, defaulting when unset.
func (u *UpdateConfig) GetProduct() string {
	if u == nil || u.Product == "" {
		return DefaultProduct
	}

	return u.Product
}

// GetOwner returns the release channel owner, defaulting when unset.
func (u *UpdateConfig) GetOwner() string {
	if u == nil || u.Owner == "" {
		return DefaultOwner
	}

	return u.Owner
}

// GetRepo returns the release channel repository, defaulting when unset.
func (u *UpdateConfig) GetRepo() string {
	if u == nil || u.Repo == "" {
		return DefaultRepo
	}

	return u.Repo
}
