package flow

import (
	"encoding/json"
	"fmt"

	"github.com/odvcencio/beacon/pkg/config"
	"github.com/odvcencio/beacon/pkg/gather"
)

// GatherStep is one completed unit of page observation. Immutable once
// appended: the session clones the caller's flags before storing them and
// aggregation never mutates a step.
type GatherStep struct {
	Artifacts *gather.Artifacts `json:"artifacts"`

	// StepFlags are the flags the caller supplied for this step, before any
	// session-level merging or navigation defaulting. Reconstruction hands
	// them back to the config initializer unchanged.
	StepFlags *config.Flags `json:"flags,omitempty"`

	// Config is a step-specific configuration carried only by deserialized
	// steps. It takes precedence over the flow-level config during
	// reconstruction.
	Config *config.Config `json:"config,omitempty"`
}

// Mode returns the gather mode recorded in the step's artifacts. Nil-safe.
func (s *GatherStep) Mode() gather.Mode {
	if s == nil {
		return ""
	}
	return s.Artifacts.Mode()
}

// FlowArtifacts is the serializable snapshot of a session: the ordered
// gather steps plus the explicit flow name, if one was given. It exists for
// external persistence; a live session never reads one back.
type FlowArtifacts struct {
	GatherSteps []*GatherStep `json:"gatherSteps"`
	Name        string        `json:"name,omitempty"`
}

// DisplayName is the explicit flow name when one was recorded, otherwise the
// same default the audit pipeline derives from the first step's URL.
func (a *FlowArtifacts) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	if len(a.GatherSteps) == 0 || a.GatherSteps[0] == nil || a.GatherSteps[0].Artifacts == nil {
		return ""
	}
	return flowName("", a.GatherSteps)
}

// ParseArtifacts decodes a serialized FlowArtifacts payload and validates
// that every step carries artifacts with a known gather mode.
func ParseArtifacts(data []byte) (*FlowArtifacts, error) {
	var artifacts FlowArtifacts
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("parsing flow artifacts: %w", err)
	}
	if len(artifacts.GatherSteps) == 0 {
		return nil, ErrEmptyFlow
	}
	for i, step := range artifacts.GatherSteps {
		if step == nil || step.Artifacts == nil {
			return nil, fmt.Errorf("gather step %d has no artifacts", i)
		}
		if mode := step.Mode(); !mode.Valid() {
			return nil, fmt.Errorf("gather step %d has unknown gather mode %q", i, mode)
		}
	}
	return &artifacts, nil
}
