package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/beacon/pkg/flow"
)

const defaultInspectConcurrency = 4

func runInspectCommand(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	concurrency := fs.Int("concurrency", defaultInspectConcurrency, "Maximum files parsed in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: beacon inspect <artifacts.json> [...]")
	}

	// Parse in parallel, print in argument order.
	summaries := make([]string, len(paths))
	var group errgroup.Group
	group.SetLimit(max(*concurrency, 1))
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			summary, err := inspectFile(path)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Print(strings.Join(summaries, "\n"))
	return nil
}

func inspectFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	artifacts, err := flow.ParseArtifacts(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return summarizeArtifacts(path, artifacts), nil
}

// summarizeArtifacts renders one artifacts snapshot as a flow-name header
// plus a step table.
func summarizeArtifacts(label string, artifacts *flow.FlowArtifacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%d steps)\n", label, artifacts.DisplayName(), len(artifacts.GatherSteps))

	writer := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "  #\tMODE\tNAME\tURL")
	for i, step := range artifacts.GatherSteps {
		fmt.Fprintf(writer, "  %d\t%s\t%s\t%s\n",
			i+1, step.Mode(), flow.StepName(step), step.Artifacts.URL.FinalDisplayedURL)
	}
	writer.Flush()
	return b.String()
}
