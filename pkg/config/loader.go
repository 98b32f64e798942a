package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file the CLI looks for in the working
// directory when no explicit path is given.
const DefaultFileName = "beacon.yaml"

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadAndMerge(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as "use the
// defaults" rather than an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override)
	return nil
}

// mergeConfigs merges override into base, field by field. Zero values in the
// override leave the base value in place.
func mergeConfigs(base, override *Config) {
	if override == nil {
		return
	}
	if override.Extends != "" {
		base.Extends = override.Extends
	}
	if override.Settings.Locale != "" {
		base.Settings.Locale = override.Settings.Locale
	}
	if override.Settings.FormFactor != "" {
		base.Settings.FormFactor = override.Settings.FormFactor
	}
	if override.Settings.ThrottlingMethod != "" {
		base.Settings.ThrottlingMethod = override.Settings.ThrottlingMethod
	}
	if override.Settings.MaxWaitForLoad != 0 {
		base.Settings.MaxWaitForLoad = override.Settings.MaxWaitForLoad
	}
	if override.Settings.MaxWaitForFCP != 0 {
		base.Settings.MaxWaitForFCP = override.Settings.MaxWaitForFCP
	}
	if override.Settings.OnlyCategories != nil {
		base.Settings.OnlyCategories = append([]string(nil), override.Settings.OnlyCategories...)
	}
	if override.Settings.SkipAudits != nil {
		base.Settings.SkipAudits = append([]string(nil), override.Settings.SkipAudits...)
	}
	if override.Extra != nil {
		if base.Extra == nil {
			base.Extra = make(map[string]any, len(override.Extra))
		}
		for k, v := range override.Extra {
			base.Extra[k] = v
		}
	}
}
