package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/odvcencio/beacon/pkg/report"
)

func runExportCommand(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "flows.xlsx", "Output spreadsheet path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: beacon export [-o flows.xlsx] <flow-result.json> [...]")
	}

	results := make([]*report.FlowResult, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result, err := report.ParseFlowResult(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, result)
	}

	outPath, err := expandHomePath(*out)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(outPath, results); err != nil {
		return err
	}

	if !quietMode {
		steps := 0
		for _, result := range results {
			steps += len(result.Steps)
		}
		fmt.Printf("✅ Exported %d flow(s), %d step row(s) -> %s\n", len(results), steps, outPath)
	}
	return nil
}
