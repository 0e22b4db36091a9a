package extension

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
)

// Config holds the fundflow extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.fundflow" or "fundflow" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start. Persisted settings
	// are loaded either way.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Admin is the initial fee administrator. Persisted settings win over
	// this value once the store has been initialised.
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// FeePercentage is the initial platform fee (default: 5, max: 20).
	FeePercentage uint32 `json:"fee_percentage" mapstructure:"fee_percentage" yaml:"fee_percentage"`

	// EnableEligibility gates funding on the verification, certification
	// and risk registries.
	EnableEligibility bool `json:"enable_eligibility" mapstructure:"enable_eligibility" yaml:"enable_eligibility"`

	// RegistryAdmin administers the three eligibility registries
	// (default: Admin).
	RegistryAdmin string `json:"registry_admin" mapstructure:"registry_admin" yaml:"registry_admin"`

	// MaxRiskScore is the highest risk score still eligible (default: 5).
	MaxRiskScore int `json:"max_risk_score" mapstructure:"max_risk_score" yaml:"max_risk_score"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FeePercentage: uint32(fee.DefaultPercentage),
		MaxRiskScore:  eligibility.DefaultMaxRiskScore,
		PluginTimeout: 5 * time.Second,
	}
}

// Validate reports configuration values the engine would reject.
func (c Config) Validate() error {
	if err := fee.Percentage(c.FeePercentage).Validate(); err != nil {
		return err
	}
	if c.MaxRiskScore < 1 || c.MaxRiskScore > eligibility.DefaultMaxRiskScore {
		return fmt.Errorf("fundflow: max_risk_score %d outside [1, %d]", c.MaxRiskScore, eligibility.DefaultMaxRiskScore)
	}
	return nil
}

// LoadConfig decodes a standalone YAML document whose top-level key is
// "fundflow". Missing fields keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var doc struct {
		Fundflow *Config `yaml:"fundflow"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("fundflow: decode config: %w", err)
	}
	if doc.Fundflow == nil {
		return DefaultConfig(), nil
	}
	cfg := mergeWithDefaults(*doc.Fundflow)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.FeePercentage == 0 {
		cfg.FeePercentage = defaults.FeePercentage
	}
	if cfg.MaxRiskScore == 0 {
		cfg.MaxRiskScore = defaults.MaxRiskScore
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.RegistryAdmin == "" {
		cfg.RegistryAdmin = cfg.Admin
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableEligibility {
		yamlConfig.EnableEligibility = true
	}

	if yamlConfig.Admin == "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}
	if yamlConfig.RegistryAdmin == "" {
		yamlConfig.RegistryAdmin = programmaticConfig.RegistryAdmin
	}
	if yamlConfig.FeePercentage == 0 {
		yamlConfig.FeePercentage = programmaticConfig.FeePercentage
	}
	if yamlConfig.MaxRiskScore == 0 {
		yamlConfig.MaxRiskScore = programmaticConfig.MaxRiskScore
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return mergeWithDefaults(yamlConfig)
}
