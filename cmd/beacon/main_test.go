package main

import "testing"

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("BEACON_QUIET", "true")
	val, ok := parseBoolEnv("BEACON_QUIET")
	if !ok || !val {
		t.Fatalf("expected true,true got %v,%v", val, ok)
	}

	t.Setenv("BEACON_QUIET", "0")
	val, ok = parseBoolEnv("BEACON_QUIET")
	if !ok || val {
		t.Fatalf("expected false,true got %v,%v", val, ok)
	}

	t.Setenv("BEACON_QUIET", "maybe")
	_, ok = parseBoolEnv("BEACON_QUIET")
	if ok {
		t.Fatalf("expected ok=false for invalid value")
	}
}

func TestParseStartupOptionsQuietAndFiltering(t *testing.T) {
	t.Setenv("BEACON_QUIET", "1")
	opts := parseStartupOptions([]string{"archive", "list"})
	if !opts.quiet {
		t.Fatalf("expected quiet from env")
	}
	if len(opts.args) != 2 || opts.args[0] != "archive" {
		t.Fatalf("args=%v want archive list", opts.args)
	}

	t.Setenv("BEACON_QUIET", "")
	opts = parseStartupOptions([]string{"-q", "inspect", "a.json"})
	if !opts.quiet {
		t.Fatalf("expected quiet from flag")
	}
	if len(opts.args) != 2 || opts.args[0] != "inspect" {
		t.Fatalf("expected -q filtered out, got %v", opts.args)
	}
}

func TestDispatchSubcommand(t *testing.T) {
	handled, code := dispatchSubcommand(nil)
	if handled || code != 0 {
		t.Fatalf("empty args: handled=%v code=%d, want false,0", handled, code)
	}

	handled, code = dispatchSubcommand([]string{"version"})
	if !handled || code != 0 {
		t.Fatalf("version: handled=%v code=%d, want true,0", handled, code)
	}

	handled, code = dispatchSubcommand([]string{"frobnicate"})
	if !handled || code != 1 {
		t.Fatalf("unknown command: handled=%v code=%d, want true,1", handled, code)
	}

	handled, code = dispatchSubcommand([]string{"--frobnicate"})
	if !handled || code != 1 {
		t.Fatalf("unknown flag: handled=%v code=%d, want true,1", handled, code)
	}
}
