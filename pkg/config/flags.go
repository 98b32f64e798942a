package config

// Flags are per-step option overrides. All fields are optional; boolean
// fields are pointers so "explicitly set to false" stays distinguishable
// from "unset", which the navigation defaulting rules depend on.
type Flags struct {
	// Name overrides the generated display name for the step.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// SkipAboutBlank skips the intermediate about:blank navigation.
	SkipAboutBlank *bool `yaml:"skip_about_blank,omitempty" json:"skipAboutBlank,omitempty"`
	// DisableStorageReset preserves page storage across the navigation.
	DisableStorageReset *bool `yaml:"disable_storage_reset,omitempty" json:"disableStorageReset,omitempty"`

	Locale     string `yaml:"locale,omitempty" json:"locale,omitempty"`
	FormFactor string `yaml:"form_factor,omitempty" json:"formFactor,omitempty"`
}

// Bool returns a pointer to v, for populating optional flag fields.
func Bool(v bool) *bool {
	return &v
}

// Clone returns a copy that shares no pointers with the receiver. Nil-safe.
func (f *Flags) Clone() *Flags {
	if f == nil {
		return nil
	}
	out := *f
	if f.SkipAboutBlank != nil {
		v := *f.SkipAboutBlank
		out.SkipAboutBlank = &v
	}
	if f.DisableStorageReset != nil {
		v := *f.DisableStorageReset
		out.DisableStorageReset = &v
	}
	return &out
}

// MergeFlags overlays override onto base field by field and returns a new
// value; neither input is mutated. A set field in override always wins.
func MergeFlags(base, override *Flags) *Flags {
	if base == nil {
		return override.Clone()
	}
	merged := base.Clone()
	if override == nil {
		return merged
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.SkipAboutBlank != nil {
		v := *override.SkipAboutBlank
		merged.SkipAboutBlank = &v
	}
	if override.DisableStorageReset != nil {
		v := *override.DisableStorageReset
		merged.DisableStorageReset = &v
	}
	if override.Locale != "" {
		merged.Locale = override.Locale
	}
	if override.FormFactor != "" {
		merged.FormFactor = override.FormFactor
	}
	return merged
}
