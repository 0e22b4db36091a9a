// Package extension provides the Forge extension adapter for fundflow.
//
// It implements the forge.Extension interface to integrate the funding
// engine into a Forge application with DI registration and lifecycle
// management. When eligibility is enabled the verification, certification
// and risk registries are provided to the container as well.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.fundflow" or "fundflow" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/registry/certification"
	"github.com/xraph/fundflow/registry/risk"
	"github.com/xraph/fundflow/registry/verification"
	"github.com/xraph/fundflow/store"
	"github.com/xraph/fundflow/store/memory"
	"github.com/xraph/fundflow/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "fundflow"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Invoice-financing funding ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts fundflow as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *fundflow.Engine
	store      store.Store
	engineOpts []fundflow.Option

	verifications  *verification.Registry
	certifications *certification.Registry
	risks          *risk.Registry
}

// New creates a new fundflow Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *fundflow.Engine { return e.engine }

// Verifications returns the business verification registry, or nil when
// eligibility is disabled.
func (e *Extension) Verifications() *verification.Registry { return e.verifications }

// Certifications returns the invoice certification registry, or nil when
// eligibility is disabled.
func (e *Extension) Certifications() *certification.Registry { return e.certifications }

// Risks returns the risk registry, or nil when eligibility is disabled.
func (e *Extension) Risks() *risk.Registry { return e.risks }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	c := fapp.Container()
	if err := vessel.Provide(c, func() (*fundflow.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}
	if !e.config.EnableEligibility {
		return nil
	}
	if err := vessel.Provide(c, func() (*verification.Registry, error) {
		return e.verifications, nil
	}); err != nil {
		return err
	}
	if err := vessel.Provide(c, func() (*certification.Registry, error) {
		return e.certifications, nil
	}); err != nil {
		return err
	}
	return vessel.Provide(c, func() (*risk.Registry, error) {
		return e.risks, nil
	})
}

// build constructs the store, registries and engine from the resolved config.
func (e *Extension) build() error {
	e.config = mergeWithDefaults(e.config)
	if err := e.config.Validate(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	eng, err := fundflow.New(e.store, e.buildEngineOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("fundflow: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("fundflow: store not initialized")
	}
	return e.engine.Health(ctx)
}

// buildEngineOpts constructs fundflow.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []fundflow.Option {
	opts := make([]fundflow.Option, 0, len(e.engineOpts)+4)

	opts = append(opts,
		fundflow.WithFeePercentage(fee.Percentage(e.config.FeePercentage)),
		fundflow.WithPluginTimeout(e.config.PluginTimeout),
	)
	if e.config.Admin != "" {
		opts = append(opts, fundflow.WithAdmin(types.Identity(e.config.Admin)))
	}
	if e.config.DisableMigrate {
		opts = append(opts, fundflow.WithoutMigrations())
	}

	if e.config.EnableEligibility {
		registryAdmin := types.Identity(e.config.RegistryAdmin)
		e.verifications = verification.New(registryAdmin)
		e.certifications = certification.New(registryAdmin)
		e.risks = risk.New(registryAdmin)
		gate := eligibility.NewChecker(e.verifications, e.certifications, e.risks,
			eligibility.WithMaxRiskScore(e.config.MaxRiskScore))
		opts = append(opts, fundflow.WithEligibility(gate))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("fundflow: configuration is required but not found in config files; " +
				"ensure 'extensions.fundflow' or 'fundflow' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("fundflow: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("admin", e.config.Admin),
		forge.F("fee_percentage", e.config.FeePercentage),
		forge.F("enable_eligibility", e.config.EnableEligibility),
		forge.F("max_risk_score", e.config.MaxRiskScore),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.fundflow", "fundflow"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("fundflow: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("fundflow: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}
