// Package audit defines the contract with the external scoring engine that
// turns gathered artifacts into per-step results. Score computation is out of
// scope for this module; only the interface and result shapes live here.
package audit

import (
	"context"
	"time"

	"github.com/odvcencio/beacon/pkg/gather"
)

// Auditor scores one step's artifacts. A nil result with a nil error means
// the engine produced no result for the step.
type Auditor interface {
	Audit(ctx context.Context, artifacts *gather.Artifacts, opts *gather.RunnerOptions) (*ScoredResult, error)
}

// ScoredResult is the scored outcome for a single gather step.
type ScoredResult struct {
	RequestedURL      string                    `json:"requestedUrl,omitempty"`
	FinalDisplayedURL string                    `json:"finalDisplayedUrl"`
	FetchTime         time.Time                 `json:"fetchTime"`
	GatherMode        gather.Mode               `json:"gatherMode"`
	Categories        map[string]CategoryResult `json:"categories,omitempty"`
	RunWarnings       []string                  `json:"runWarnings,omitempty"`
}

// CategoryResult is one category's aggregate score, in the 0..1 range.
type CategoryResult struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}
