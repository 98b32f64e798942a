package config_test

import (
	"testing"

	"github.com/odvcencio/beacon/pkg/config"
)

func TestMergeFlagsOverrideWins(t *testing.T) {
	base := &config.Flags{
		Name:           "session default",
		SkipAboutBlank: config.Bool(false),
		Locale:         "en-US",
	}
	override := &config.Flags{
		Name:                "step name",
		DisableStorageReset: config.Bool(true),
	}

	merged := config.MergeFlags(base, override)

	if merged.Name != "step name" {
		t.Fatalf("expected override name, got %q", merged.Name)
	}
	if merged.SkipAboutBlank == nil || *merged.SkipAboutBlank {
		t.Fatalf("base skipAboutBlank=false should survive an unset override: %+v", merged)
	}
	if merged.DisableStorageReset == nil || !*merged.DisableStorageReset {
		t.Fatalf("override disableStorageReset should be applied: %+v", merged)
	}
	if merged.Locale != "en-US" {
		t.Fatalf("base locale should survive: %q", merged.Locale)
	}
}

func TestMergeFlagsDoesNotMutateInputs(t *testing.T) {
	base := &config.Flags{SkipAboutBlank: config.Bool(true)}
	override := &config.Flags{SkipAboutBlank: config.Bool(false)}

	merged := config.MergeFlags(base, override)
	*merged.SkipAboutBlank = true

	if !*base.SkipAboutBlank {
		t.Fatal("base mutated through merge result")
	}
	if *override.SkipAboutBlank {
		t.Fatal("override mutated through merge result")
	}
}

func TestMergeFlagsNilInputs(t *testing.T) {
	if got := config.MergeFlags(nil, nil); got != nil {
		t.Fatalf("merging two nils should stay nil, got %+v", got)
	}

	override := &config.Flags{Name: "only override"}
	merged := config.MergeFlags(nil, override)
	if merged == nil || merged.Name != "only override" {
		t.Fatalf("nil base should yield a clone of override, got %+v", merged)
	}
	if merged == override {
		t.Fatal("merge must not alias the override")
	}

	base := &config.Flags{Name: "only base"}
	merged = config.MergeFlags(base, nil)
	if merged == nil || merged.Name != "only base" {
		t.Fatalf("nil override should yield a clone of base, got %+v", merged)
	}
	if merged == base {
		t.Fatal("merge must not alias the base")
	}
}

func TestFlagsCloneIndependence(t *testing.T) {
	orig := &config.Flags{
		Name:                "original",
		DisableStorageReset: config.Bool(false),
	}

	clone := orig.Clone()
	clone.Name = "changed"
	*clone.DisableStorageReset = true

	if orig.Name != "original" || *orig.DisableStorageReset {
		t.Fatalf("clone shares state with original: %+v", orig)
	}

	var nilFlags *config.Flags
	if nilFlags.Clone() != nil {
		t.Fatal("cloning nil flags should return nil")
	}
}
