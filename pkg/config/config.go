package config

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Form factors recognized by the gatherers.
const (
	FormFactorMobile  = "mobile"
	FormFactorDesktop = "desktop"
)

// Throttling methods recognized by the gatherers.
const (
	ThrottlingSimulate = "simulate"
	ThrottlingDevTools = "devtools"
	ThrottlingProvided = "provided"
)

// Default configuration values exported for documentation and validation.
const (
	DefaultLocale           = "en-US"
	DefaultFormFactor       = FormFactorMobile
	DefaultThrottling       = ThrottlingSimulate
	DefaultMaxWaitForLoad   = 45 * time.Second
	DefaultMaxWaitForFCP    = 30 * time.Second
	DefaultArchiveLimit     = 50
	DefaultArchiveListLimit = 20
)

// Settings are the normalized knobs shared by every gather mode. The session
// core never interprets them; they ride along to the gatherers and the scorer.
type Settings struct {
	Locale           string        `yaml:"locale,omitempty" json:"locale,omitempty"`
	FormFactor       string        `yaml:"form_factor,omitempty" json:"formFactor,omitempty"`
	ThrottlingMethod string        `yaml:"throttling_method,omitempty" json:"throttlingMethod,omitempty"`
	MaxWaitForLoad   time.Duration `yaml:"max_wait_for_load,omitempty" json:"maxWaitForLoad,omitempty"`
	MaxWaitForFCP    time.Duration `yaml:"max_wait_for_fcp,omitempty" json:"maxWaitForFcp,omitempty"`
	OnlyCategories   []string      `yaml:"only_categories,omitempty" json:"onlyCategories,omitempty"`
	SkipAudits       []string      `yaml:"skip_audits,omitempty" json:"skipAudits,omitempty"`
}

// Config is the flow-level configuration handed to the gatherers and, during
// reconstruction, to the config initializer. Extra carries collaborator
// sections this package does not model.
type Config struct {
	Extends  string         `yaml:"extends,omitempty" json:"extends,omitempty"`
	Settings Settings       `yaml:"settings" json:"settings"`
	Extra    map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// ResolvedConfig is the initializer's output: normalized settings plus the
// opaque resolved payload the scorer consumes.
type ResolvedConfig struct {
	GatherMode string          `json:"gatherMode,omitempty"`
	Settings   Settings        `json:"settings"`
	Resolved   json.RawMessage `json:"resolved,omitempty"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Locale:           DefaultLocale,
			FormFactor:       DefaultFormFactor,
			ThrottlingMethod: DefaultThrottling,
			MaxWaitForLoad:   DefaultMaxWaitForLoad,
			MaxWaitForFCP:    DefaultMaxWaitForFCP,
		},
	}
}

// Clone returns a deep copy. Nil-safe.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Settings.OnlyCategories != nil {
		out.Settings.OnlyCategories = append([]string(nil), c.Settings.OnlyCategories...)
	}
	if c.Settings.SkipAudits != nil {
		out.Settings.SkipAudits = append([]string(nil), c.Settings.SkipAudits...)
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// Validate checks the fields this package understands. Collaborator sections
// under Extra are not validated here.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := validateFormFactor(c.Settings.FormFactor); err != nil {
		return err
	}
	switch c.Settings.ThrottlingMethod {
	case "", ThrottlingSimulate, ThrottlingDevTools, ThrottlingProvided:
	default:
		return fmt.Errorf("unknown throttling method %q", c.Settings.ThrottlingMethod)
	}
	if c.Settings.Locale != "" {
		if _, err := language.Parse(c.Settings.Locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", c.Settings.Locale, err)
		}
	}
	if c.Settings.MaxWaitForLoad < 0 || c.Settings.MaxWaitForFCP < 0 {
		return fmt.Errorf("wait budgets must be non-negative")
	}
	return nil
}

func validateFormFactor(ff string) error {
	switch ff {
	case "", FormFactorMobile, FormFactorDesktop:
		return nil
	default:
		return fmt.Errorf("unknown form factor %q", ff)
	}
}
