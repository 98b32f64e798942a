package report_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/beacon/pkg/audit"
	"github.com/odvcencio/beacon/pkg/gather"
	"github.com/odvcencio/beacon/pkg/report"
)

func sampleResult() *report.FlowResult {
	return &report.FlowResult{
		Name: "User flow (example.com)",
		Steps: []report.Step{
			{
				Name: "Navigation report (example.com/)",
				LHR: &audit.ScoredResult{
					FinalDisplayedURL: "https://example.com/",
					FetchTime:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
					GatherMode:        gather.ModeNavigation,
					Categories: map[string]audit.CategoryResult{
						"performance": {ID: "performance", Score: 0.93},
						"seo":         {ID: "seo", Score: 0.81},
					},
				},
			},
			{
				Name: "Snapshot report (example.com/)",
				LHR: &audit.ScoredResult{
					FinalDisplayedURL: "https://example.com/",
					GatherMode:        gather.ModeSnapshot,
				},
			},
		},
	}
}

func TestParseFlowResult(t *testing.T) {
	raw := `{"name":"checkout","steps":[{"name":"Navigation report (shop.example/)","lhr":{"finalDisplayedUrl":"https://shop.example/","gatherMode":"navigation"}}]}`

	result, err := report.ParseFlowResult([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "checkout", result.Name)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, gather.ModeNavigation, result.Steps[0].LHR.GatherMode)
}

func TestParseFlowResultRejectsEmptyAndBroken(t *testing.T) {
	_, err := report.ParseFlowResult([]byte(`{"name":"empty","steps":[]}`))
	require.Error(t, err)

	_, err = report.ParseFlowResult([]byte(`{"name":"no lhr","steps":[{"name":"x"}]}`))
	require.Error(t, err)

	_, err = report.ParseFlowResult([]byte(`{not json`))
	require.Error(t, err)
}

func TestSummaryListsEveryStep(t *testing.T) {
	out := report.Summary(sampleResult())

	assert.Contains(t, out, "User flow (example.com)")
	assert.Contains(t, out, "Navigation report (example.com/)")
	assert.Contains(t, out, "Snapshot report (example.com/)")
	assert.Contains(t, out, "performance=0.93 seo=0.81")
	assert.Contains(t, out, "snapshot")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.xlsx")

	require.NoError(t, report.WriteXLSX(path, []*report.FlowResult{sampleResult()}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Error(t, report.WriteXLSX(path, nil), "empty export should fail")
}
