package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/odvcencio/beacon/pkg/flow"
	"github.com/odvcencio/beacon/pkg/storage"
)

func runArchiveCommand(args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = strings.TrimSpace(args[0])
	}
	switch sub {
	case "save":
		return runArchiveSave(args[1:])
	case "list":
		return runArchiveList(args[1:])
	case "show":
		return runArchiveShow(args[1:])
	case "delete":
		return runArchiveDelete(args[1:])
	default:
		return fmt.Errorf("usage: beacon archive <save|list|show|delete> [flags]")
	}
}

func runArchiveSave(args []string) error {
	fs := flag.NewFlagSet("archive save", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Archive DB path (defaults to BEACON_DB_PATH/BEACON_DATA_DIR)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: beacon archive save [-db path] <artifacts.json>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	artifacts, err := flow.ParseArtifacts(data)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	store, err := openArchiveStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.SaveFlow(context.Background(), artifacts)
	if err != nil {
		return err
	}

	if quietMode {
		fmt.Println(record.ID)
	} else {
		fmt.Printf("✅ Saved %s (%s, %d steps)\n", record.ID, record.Name, record.StepCount)
	}
	return nil
}

func runArchiveList(args []string) error {
	fs := flag.NewFlagSet("archive list", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Archive DB path (defaults to BEACON_DB_PATH/BEACON_DATA_DIR)")
	limit := fs.Int("limit", 20, "Maximum flows to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openArchiveStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListFlows(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No archived flows found.")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tSTEPS\tMODES\tCREATED")
	for _, record := range records {
		created := record.CreatedAt.Local().Format(time.RFC3339)
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n",
			record.ID, record.Name, record.StepCount, strings.Join(record.GatherModes, ","), created)
	}
	return writer.Flush()
}

func runArchiveShow(args []string) error {
	fs := flag.NewFlagSet("archive show", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Archive DB path (defaults to BEACON_DB_PATH/BEACON_DATA_DIR)")
	rawJSON := fs.Bool("json", false, "Print the full artifacts JSON instead of a summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: beacon archive show [-db path] [-json] <id>")
	}
	id := strings.TrimSpace(fs.Arg(0))

	store, err := openArchiveStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	stored, err := store.GetFlow(context.Background(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFlowNotFound) {
			return fmt.Errorf("flow not found: %s", id)
		}
		return err
	}

	if *rawJSON {
		out, err := json.MarshalIndent(stored.Artifacts, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Print(summarizeArtifacts(stored.ID, stored.Artifacts))
	return nil
}

func runArchiveDelete(args []string) error {
	fs := flag.NewFlagSet("archive delete", flag.ContinueOnError)
	dbPath := fs.String("db", "", "Archive DB path (defaults to BEACON_DB_PATH/BEACON_DATA_DIR)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: beacon archive delete [-db path] <id>")
	}
	id := strings.TrimSpace(fs.Arg(0))

	store, err := openArchiveStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteFlow(context.Background(), id); err != nil {
		if errors.Is(err, storage.ErrFlowNotFound) {
			return fmt.Errorf("flow not found: %s", id)
		}
		return err
	}

	if !quietMode {
		fmt.Printf("✅ Deleted %s\n", id)
	}
	return nil
}

func openArchiveStore(dbPathFlag string) (*storage.Store, error) {
	dbPath := strings.TrimSpace(dbPathFlag)
	if dbPath == "" {
		resolved, err := resolveDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = resolved
	} else {
		expanded, err := expandHomePath(dbPath)
		if err != nil {
			return nil, err
		}
		dbPath = expanded
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive store: %w", err)
	}
	return store, nil
}
