// Package report holds the aggregated flow result produced by the audit
// pipeline, the renderer contract for turning it into a human-facing report,
// and small export helpers. The HTML/JSON report renderer itself is an
// external collaborator.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/odvcencio/beacon/pkg/audit"
)

// Step is one scored entry of a flow result, in gather order.
type Step struct {
	LHR  *audit.ScoredResult `json:"lhr"`
	Name string              `json:"name"`
}

// FlowResult aggregates every step of an analysis session.
type FlowResult struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Renderer turns an aggregated flow result into report text.
type Renderer interface {
	Render(ctx context.Context, result *FlowResult) (string, error)
}

// ParseFlowResult decodes a serialized flow result and checks it has at
// least one step.
func ParseFlowResult(data []byte) (*FlowResult, error) {
	var result FlowResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing flow result: %w", err)
	}
	if len(result.Steps) == 0 {
		return nil, fmt.Errorf("flow result has no steps")
	}
	for i, step := range result.Steps {
		if step.LHR == nil {
			return nil, fmt.Errorf("step %d (%q) has no scored result", i, step.Name)
		}
	}
	return &result, nil
}
