package flow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/beacon/pkg/audit"
	"github.com/odvcencio/beacon/pkg/config"
	"github.com/odvcencio/beacon/pkg/gather"
)

func makeStep(mode gather.Mode, url string, flags *config.Flags) *GatherStep {
	return &GatherStep{
		Artifacts: &gather.Artifacts{
			GatherContext: gather.Context{GatherMode: mode},
			URL:           gather.URLInfo{FinalDisplayedURL: url},
		},
		StepFlags: flags,
	}
}

func TestAuditGatherStepsEmpty(t *testing.T) {
	_, err := AuditGatherSteps(context.Background(), nil, AuditOptions{Auditor: &fakeAuditor{}})
	require.ErrorIs(t, err, ErrEmptyFlow)
}

func TestAuditGatherStepsRequiresAuditor(t *testing.T) {
	steps := []*GatherStep{makeStep(gather.ModeSnapshot, "https://example.com/", nil)}
	_, err := AuditGatherSteps(context.Background(), steps, AuditOptions{Initializer: &fakeInitializer{}})
	require.Error(t, err)
}

func TestStepNames(t *testing.T) {
	tests := []struct {
		name string
		step *GatherStep
		want string
	}{
		{
			name: "navigation",
			step: makeStep(gather.ModeNavigation, "https://example.com/", nil),
			want: "Navigation report (example.com/)",
		},
		{
			name: "timespan",
			step: makeStep(gather.ModeTimespan, "https://example.com/", nil),
			want: "Timespan report (example.com/)",
		},
		{
			name: "snapshot",
			step: makeStep(gather.ModeSnapshot, "https://example.com/", nil),
			want: "Snapshot report (example.com/)",
		},
		{
			name: "empty path renders as slash",
			step: makeStep(gather.ModeNavigation, "https://example.com", nil),
			want: "Navigation report (example.com/)",
		},
		{
			name: "query and fragment stripped",
			step: makeStep(gather.ModeNavigation, "https://example.com/search?q=beacon#top", nil),
			want: "Navigation report (example.com/search)",
		},
		{
			name: "port dropped",
			step: makeStep(gather.ModeTimespan, "https://example.com:8080/admin", nil),
			want: "Timespan report (example.com/admin)",
		},
		{
			name: "explicit flag name wins",
			step: makeStep(gather.ModeSnapshot, "https://example.com/", &config.Flags{Name: "Cart after coupon"}),
			want: "Cart after coupon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepName(tt.step))
		})
	}
}

func TestFlowNameDefaultsFromFirstStep(t *testing.T) {
	steps := []*GatherStep{
		makeStep(gather.ModeNavigation, "https://example.com/pricing", nil),
		makeStep(gather.ModeSnapshot, "https://other.example.org/", nil),
	}

	result, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Auditor:     &fakeAuditor{},
		Initializer: &fakeInitializer{},
	})
	require.NoError(t, err)
	assert.Equal(t, "User flow (example.com)", result.Name)

	named, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Name:        "Checkout",
		Auditor:     &fakeAuditor{},
		Initializer: &fakeInitializer{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", named.Name)
}

func TestAuditPrefersRecordedOptions(t *testing.T) {
	step := makeStep(gather.ModeNavigation, "https://example.com/", nil)
	recorded := &gather.RunnerOptions{
		Config:        &config.ResolvedConfig{GatherMode: "navigation"},
		ComputedCache: gather.NewComputedCache(),
	}
	registry := NewOptionsRegistry()
	registry.Set(step, recorded)

	auditor := &fakeAuditor{}
	initializer := &fakeInitializer{}
	_, err := AuditGatherSteps(context.Background(), []*GatherStep{step}, AuditOptions{
		Lookup:      registry,
		Auditor:     auditor,
		Initializer: initializer,
	})
	require.NoError(t, err)
	assert.Zero(t, initializer.callCount())
	require.Len(t, auditor.gotOpts, 1)
	assert.Same(t, recorded, auditor.gotOpts[0])
}

func TestAuditReconstructsMissingOptions(t *testing.T) {
	flowCfg := config.DefaultConfig()
	stepCfg := config.DefaultConfig()
	stepCfg.Settings.Locale = "fr"

	flags := &config.Flags{DisableStorageReset: config.Bool(true)}
	steps := []*GatherStep{
		makeStep(gather.ModeNavigation, "https://example.com/", flags),
		makeStep(gather.ModeSnapshot, "https://example.com/done", nil),
	}
	steps[1].Config = stepCfg

	auditor := &fakeAuditor{}
	initializer := &fakeInitializer{}
	result, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Config:      flowCfg,
		Auditor:     auditor,
		Initializer: initializer,
	})
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "Navigation report (example.com/)", result.Steps[0].Name)
	assert.Equal(t, "Snapshot report (example.com/done)", result.Steps[1].Name)

	require.Equal(t, 2, initializer.callCount())
	first, second := initializer.calls[0], initializer.calls[1]

	assert.Equal(t, gather.ModeNavigation, first.mode)
	assert.Same(t, flowCfg, first.cfg, "flow config is the fallback")
	require.NotNil(t, first.flags)
	assert.True(t, *first.flags.DisableStorageReset)

	assert.Equal(t, gather.ModeSnapshot, second.mode)
	assert.Same(t, stepCfg, second.cfg, "a step config takes precedence over the flow config")

	// Each reconstruction starts from a fresh cache.
	require.Len(t, auditor.gotOpts, 2)
	assert.Zero(t, auditor.gotOpts[0].ComputedCache.Len())
	assert.NotSame(t, auditor.gotOpts[0].ComputedCache, auditor.gotOpts[1].ComputedCache)
}

func TestAuditReconstructionFailsWithoutInitializer(t *testing.T) {
	steps := []*GatherStep{makeStep(gather.ModeSnapshot, "https://example.com/", nil)}
	_, err := AuditGatherSteps(context.Background(), steps, AuditOptions{Auditor: &fakeAuditor{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Snapshot report (example.com/)")
}

func TestAuditNilResultFailsWithStepName(t *testing.T) {
	auditor := &fakeAuditor{}
	auditor.auditFunc = func(ctx context.Context, artifacts *gather.Artifacts, opts *gather.RunnerOptions) (*audit.ScoredResult, error) {
		return nil, nil
	}

	steps := []*GatherStep{makeStep(gather.ModeTimespan, "https://example.com/feed", nil)}
	_, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Auditor:     auditor,
		Initializer: &fakeInitializer{},
	})
	require.ErrorIs(t, err, ErrStepAudit)

	var stepErr *StepAuditError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "Timespan report (example.com/feed)", stepErr.StepName)
}

func TestAuditCollaboratorErrorPropagatesVerbatim(t *testing.T) {
	boom := errors.New("scoring engine offline")
	auditor := &fakeAuditor{}
	auditor.auditFunc = func(ctx context.Context, artifacts *gather.Artifacts, opts *gather.RunnerOptions) (*audit.ScoredResult, error) {
		return nil, boom
	}

	steps := []*GatherStep{makeStep(gather.ModeSnapshot, "https://example.com/", nil)}
	_, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Auditor:     auditor,
		Initializer: &fakeInitializer{},
	})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrStepAudit)
}

func TestAuditPreservesStepOrder(t *testing.T) {
	steps := []*GatherStep{
		makeStep(gather.ModeNavigation, "https://example.com/a", nil),
		makeStep(gather.ModeTimespan, "https://example.com/b", nil),
		makeStep(gather.ModeSnapshot, "https://example.com/c", nil),
	}

	result, err := AuditGatherSteps(context.Background(), steps, AuditOptions{
		Auditor:     &fakeAuditor{},
		Initializer: &fakeInitializer{},
	})
	require.NoError(t, err)
	require.Len(t, result.Steps, 3)
	assert.Equal(t, "Navigation report (example.com/a)", result.Steps[0].Name)
	assert.Equal(t, "Timespan report (example.com/b)", result.Steps[1].Name)
	assert.Equal(t, "Snapshot report (example.com/c)", result.Steps[2].Name)
}

func TestReauditSerializedArtifacts(t *testing.T) {
	s, _ := newTestSession(t, &Options{Name: "Checkout"})
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, gather.URLRequestor("https://example.com/cart"), &config.Flags{Name: "Cart"}))
	require.NoError(t, s.Snapshot(ctx, nil))

	live, err := s.CreateFlowResult(ctx)
	require.NoError(t, err)

	data, err := json.Marshal(s.CreateArtifacts())
	require.NoError(t, err)

	parsed, err := ParseArtifacts(data)
	require.NoError(t, err)

	initializer := &fakeInitializer{}
	rebuilt, err := AuditGatherSteps(ctx, parsed.GatherSteps, AuditOptions{
		Name:        parsed.Name,
		Auditor:     &fakeAuditor{},
		Initializer: initializer,
	})
	require.NoError(t, err)

	assert.Equal(t, live.Name, rebuilt.Name)
	require.Len(t, rebuilt.Steps, len(live.Steps))
	for i := range live.Steps {
		assert.Equal(t, live.Steps[i].Name, rebuilt.Steps[i].Name)
	}
	assert.Equal(t, 2, initializer.callCount(), "every deserialized step reconstructs its options")
	require.NotNil(t, initializer.calls[0].flags)
	assert.Equal(t, "Cart", initializer.calls[0].flags.Name)
}
