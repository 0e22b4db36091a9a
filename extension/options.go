package extension

import (
	"time"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/plugin"
	"github.com/xraph/fundflow/store"
)

// Option configures the fundflow Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a fundflow.Option through to the underlying engine.
func WithEngineOption(opt fundflow.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a fundflow plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, fundflow.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start. Persisted settings
// are loaded either way.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithAdmin sets the initial fee administrator.
func WithAdmin(id string) Option {
	return func(e *Extension) { e.config.Admin = id }
}

// WithFeePercentage sets the initial platform fee.
func WithFeePercentage(p uint32) Option {
	return func(e *Extension) { e.config.FeePercentage = p }
}

// WithEligibility enables the registry-backed eligibility gate.
// registryAdmin administers the verification, certification and risk
// registries; empty means the fee administrator.
func WithEligibility(registryAdmin string) Option {
	return func(e *Extension) {
		e.config.EnableEligibility = true
		e.config.RegistryAdmin = registryAdmin
	}
}

// WithMaxRiskScore sets the highest eligible risk score.
func WithMaxRiskScore(score int) Option {
	return func(e *Extension) { e.config.MaxRiskScore = score }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
