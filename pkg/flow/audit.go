package flow

import (
	"context"
	"fmt"
	"net/url"

	"github.com/odvcencio/beacon/pkg/audit"
	"github.com/odvcencio/beacon/pkg/config"
	"github.com/odvcencio/beacon/pkg/gather"
	"github.com/odvcencio/beacon/pkg/observability"
	"github.com/odvcencio/beacon/pkg/report"
)

// AuditOptions configure one aggregation run.
type AuditOptions struct {
	// Name overrides the derived flow name.
	Name string
	// Config is the flow-level configuration used when reconstructing runner
	// options. A step's own config takes precedence over it.
	Config *config.Config
	// Lookup resolves recorded runner options. Nil, or a miss, means the
	// options are reconstructed through Initializer.
	Lookup RunnerOptionsLookup
	// Initializer rebuilds resolved configuration for steps that are no
	// longer live.
	Initializer gather.ConfigInitializer
	// Auditor scores each step's artifacts.
	Auditor audit.Auditor
	// Logger receives per-step debug logs; nil logs nothing.
	Logger *observability.Logger
}

// AuditGatherSteps scores every gather step in order and aggregates the
// results into a single flow result. It is also the standalone entry point
// for re-auditing a deserialized FlowArtifacts payload, in which case runner
// options are reconstructed from each step's recorded flags and config.
func AuditGatherSteps(ctx context.Context, steps []*GatherStep, opts AuditOptions) (*report.FlowResult, error) {
	ctx, span := observability.StartSpan(ctx, "flow.audit_gather_steps")
	defer span.End()

	result, err := auditGatherSteps(ctx, steps, opts)
	if err != nil {
		observability.AuditRuns.WithLabelValues("failure").Inc()
		observability.RecordError(ctx, err)
		return nil, err
	}
	observability.AuditRuns.WithLabelValues("success").Inc()
	observability.SetAttributes(ctx,
		observability.AttrFlowName.String(result.Name),
		observability.AttrStepCount.Int(len(result.Steps)),
	)
	return result, nil
}

func auditGatherSteps(ctx context.Context, steps []*GatherStep, opts AuditOptions) (*report.FlowResult, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyFlow
	}
	if opts.Auditor == nil {
		return nil, fmt.Errorf("auditor is required")
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}

	resultSteps := make([]report.Step, 0, len(steps))
	for i, step := range steps {
		name := StepName(step)

		runnerOpts, err := resolveRunnerOptions(ctx, step, opts)
		if err != nil {
			return nil, fmt.Errorf("resolving runner options for step %d (%q): %w", i, name, err)
		}

		scored, err := opts.Auditor.Audit(ctx, step.Artifacts, runnerOpts)
		if err != nil {
			return nil, err
		}
		if scored == nil {
			return nil, &StepAuditError{StepName: name}
		}
		observability.AuditStepsScored.WithLabelValues(string(step.Mode())).Inc()
		resultSteps = append(resultSteps, report.Step{LHR: scored, Name: name})
	}

	return &report.FlowResult{
		Name:  flowName(opts.Name, steps),
		Steps: resultSteps,
	}, nil
}

// resolveRunnerOptions returns the recorded options for a live step, or
// rebuilds them for one that is no longer live (e.g. deserialized) from the
// same inputs the original gather saw: the step's own config when present,
// the flow config otherwise, plus the step's recorded flags.
func resolveRunnerOptions(ctx context.Context, step *GatherStep, opts AuditOptions) (*gather.RunnerOptions, error) {
	if opts.Lookup != nil {
		if recorded, ok := opts.Lookup.RunnerOptions(step); ok {
			return recorded, nil
		}
	}
	if opts.Initializer == nil {
		return nil, fmt.Errorf("no recorded runner options and no config initializer")
	}

	cfg := step.Config
	if cfg == nil {
		cfg = opts.Config
	}
	opts.Logger.Debug("reconstructing runner options", "mode", string(step.Mode()))
	resolved, err := opts.Initializer.InitializeConfig(ctx, step.Mode(), cfg, step.StepFlags)
	if err != nil {
		return nil, err
	}
	observability.AuditReconstructions.Inc()
	return &gather.RunnerOptions{Config: resolved, ComputedCache: gather.NewComputedCache()}, nil
}

// StepName returns the display name for a step: the explicit flag name when
// set, otherwise the gather-mode label with the shortened final URL.
func StepName(step *GatherStep) string {
	if step.StepFlags != nil && step.StepFlags.Name != "" {
		return step.StepFlags.Name
	}
	shortURL := shortenURL(step.Artifacts.URL.FinalDisplayedURL)
	switch step.Mode() {
	case gather.ModeNavigation:
		return fmt.Sprintf("Navigation report (%s)", shortURL)
	case gather.ModeTimespan:
		return fmt.Sprintf("Timespan report (%s)", shortURL)
	case gather.ModeSnapshot:
		return fmt.Sprintf("Snapshot report (%s)", shortURL)
	default:
		return fmt.Sprintf("Report (%s)", shortURL)
	}
}

// flowName is the explicit name when given, otherwise derived from the first
// step's final URL host.
func flowName(explicit string, steps []*GatherStep) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("User flow (%s)", hostOf(steps[0].Artifacts.URL.FinalDisplayedURL))
}

// shortenURL renders a URL as host plus path, with query and fragment
// stripped, the port dropped, and an empty path rendered as /. Unparseable
// URLs pass through untouched; naming is a display concern.
func shortenURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return u.Hostname() + path
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
