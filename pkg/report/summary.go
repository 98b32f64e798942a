package report

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/odvcencio/beacon/pkg/audit"
)

// Summary renders a plain-text table of a flow result, one line per step.
// Intended for terminal output; the real report comes from the Renderer.
func Summary(result *FlowResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flow: %s (%d steps)\n", result.Name, len(result.Steps))

	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTEP\tMODE\tURL\tSCORES")
	for i, step := range result.Steps {
		mode, url, scores := "", "", ""
		if step.LHR != nil {
			mode = string(step.LHR.GatherMode)
			url = step.LHR.FinalDisplayedURL
			scores = formatScores(step.LHR.Categories)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, step.Name, mode, url, scores)
	}
	w.Flush()
	return b.String()
}

func formatScores(categories map[string]audit.CategoryResult) string {
	if len(categories) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%.2f", id, categories[id].Score))
	}
	return strings.Join(parts, " ")
}
