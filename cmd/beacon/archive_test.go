package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/beacon/pkg/storage"
)

func TestArchiveSaveListShowDeleteRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "beacon.db")
	path := writeArtifactsFile(t, t.TempDir())

	if err := runArchiveSave([]string{"-db", db, path}); err != nil {
		t.Fatalf("archive save: %v", err)
	}

	store, err := storage.Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	records, err := store.ListFlows(context.Background(), 10)
	if err != nil {
		t.Fatalf("list flows: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one archived flow, got %d", len(records))
	}
	id := records[0].ID

	if err := runArchiveList([]string{"-db", db}); err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if err := runArchiveShow([]string{"-db", db, id}); err != nil {
		t.Fatalf("archive show: %v", err)
	}
	if err := runArchiveShow([]string{"-db", db, "-json", id}); err != nil {
		t.Fatalf("archive show -json: %v", err)
	}
	if err := runArchiveDelete([]string{"-db", db, id}); err != nil {
		t.Fatalf("archive delete: %v", err)
	}

	err = runArchiveDelete([]string{"-db", db, id})
	if err == nil || !strings.Contains(err.Error(), "flow not found") {
		t.Fatalf("expected flow-not-found on second delete, got %v", err)
	}
}

func TestArchiveSaveRejectsInvalidFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "beacon.db")
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runArchiveSave([]string{"-db", db, bad}); err == nil {
		t.Fatal("expected error for malformed artifacts file")
	}
}

func TestArchiveShowMissingFlow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "beacon.db")

	err := runArchiveShow([]string{"-db", db, "01arz3ndektsv4rrffq69g5fav"})
	if err == nil || !strings.Contains(err.Error(), "flow not found") {
		t.Fatalf("expected flow-not-found, got %v", err)
	}
}

func TestArchiveCommandUsage(t *testing.T) {
	if err := runArchiveCommand(nil); err == nil {
		t.Error("expected usage error with no subcommand")
	}
	if err := runArchiveCommand([]string{"frobnicate"}); err == nil {
		t.Error("expected usage error for unknown subcommand")
	}
	if err := runArchiveSave([]string{"-db", "x.db"}); err == nil {
		t.Error("expected usage error for save without a file")
	}
}
