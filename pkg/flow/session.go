// Package flow implements the analysis session state machine: it sequences
// navigation, timespan, and snapshot gather steps against one shared browser
// page, enforces that step kinds never overlap, and reduces the collected
// steps into a single aggregated flow result. The gathering, scoring, and
// rendering themselves are external collaborators consumed through the
// gather, audit, and report packages.
package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/odvcencio/beacon/pkg/audit"
	"github.com/odvcencio/beacon/pkg/config"
	"github.com/odvcencio/beacon/pkg/gather"
	"github.com/odvcencio/beacon/pkg/observability"
	"github.com/odvcencio/beacon/pkg/report"
	"github.com/odvcencio/beacon/pkg/telemetry"
)

// Dependencies are the external collaborators a session drives. Gatherer is
// required up front; Auditor and Initializer are needed by CreateFlowResult,
// and Renderer by GenerateReport.
type Dependencies struct {
	Gatherer    gather.Gatherer
	Auditor     audit.Auditor
	Initializer gather.ConfigInitializer
	Renderer    report.Renderer
}

// Options configure a session. All fields are optional.
type Options struct {
	// Name overrides the derived flow name.
	Name string
	// Config is the flow-level configuration handed to every gather call.
	Config *config.Config
	// Flags are session defaults merged under each step's flags.
	Flags *config.Flags
	// Logger receives operation logs; nil logs nothing.
	Logger *observability.Logger
	// Hub receives lifecycle events; nil publishes nothing.
	Hub *telemetry.Hub
}

// Session coordinates gather steps against one shared page. Methods are safe
// for concurrent use, but the slot preconditions make the operations
// themselves mutually exclusive: at most one of a navigation or a timespan is
// active at any time, and an operation attempted while a conflicting one is
// active fails before any external side effect.
type Session struct {
	id   string
	page gather.Page
	deps Dependencies

	name   string
	config *config.Config
	flags  *config.Flags

	logger *observability.Logger
	hub    *telemetry.Hub

	registry *OptionsRegistry

	mu                sync.Mutex
	steps             []*GatherStep
	currentNavigation *NavigationHandle
	currentTimespan   *timespanCapture
	// inflight marks a gather call executing outside the lock, so the
	// precondition check and the slot reservation stay one critical section.
	inflight gather.Mode
}

// timespanCapture is the contents of the active-timespan slot.
type timespanCapture struct {
	handle    gather.TimespanHandle
	flags     *config.Flags // the caller's flags, stored on the step at end
	startedAt time.Time
	ending    bool
}

// New creates a flow session over page.
func New(page gather.Page, deps Dependencies, opts *Options) (*Session, error) {
	if page == nil {
		return nil, fmt.Errorf("page is required")
	}
	if deps.Gatherer == nil {
		return nil, fmt.Errorf("gatherer is required")
	}
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	s := &Session{
		id:       newFlowID(opts.Name),
		page:     page,
		deps:     deps,
		name:     opts.Name,
		config:   opts.Config.Clone(),
		flags:    opts.Flags.Clone(),
		hub:      opts.Hub,
		registry: NewOptionsRegistry(),
	}
	s.logger = logger.WithFlow(s.id)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Name returns the explicit flow name; empty when the name is derived.
func (s *Session) Name() string { return s.name }

// GatherSteps returns the appended steps in order. The slice is a copy; the
// steps themselves are shared and immutable.
func (s *Session) GatherSteps() []*GatherStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*GatherStep, len(s.steps))
	copy(out, s.steps)
	return out
}

// NavigationInProgress reports whether a started navigation awaits its end.
func (s *Session) NavigationInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNavigation != nil
}

// TimespanInProgress reports whether a timespan capture is open.
func (s *Session) TimespanInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTimespan != nil
}

// Navigate runs a full page-load gather step. requestor is either a URL the
// gatherer drives the page to itself, or a trigger function it calls once
// instrumentation is armed. The step is appended only on success; a gather
// failure propagates verbatim and leaves the step list untouched.
func (s *Session) Navigate(ctx context.Context, requestor gather.Requestor, stepFlags *config.Flags) error {
	ctx, span := observability.StartSpan(ctx, "flow.navigate")
	defer span.End()
	return s.navigate(ctx, "navigate", requestor, stepFlags)
}

func (s *Session) navigate(ctx context.Context, operation string, requestor gather.Requestor, stepFlags *config.Flags) error {
	if requestor == nil {
		return fmt.Errorf("requestor is required")
	}
	if err := s.claim(operation, gather.ModeNavigation); err != nil {
		return err
	}

	flags := s.nextNavigationFlags(stepFlags)
	observability.SetAttributes(ctx,
		observability.AttrGatherMode.String(string(gather.ModeNavigation)),
		observability.AttrRequestor.String(requestorKind(requestor)),
	)
	observability.ActiveOperations.WithLabelValues("navigation").Inc()
	defer observability.ActiveOperations.WithLabelValues("navigation").Dec()
	s.publish(telemetry.EventNavigationStarted, map[string]any{"requestor": requestorKind(requestor)})

	start := time.Now()
	result, err := s.deps.Gatherer.RunNavigation(ctx, s.page, requestor, gather.RunOptions{Config: s.config, Flags: flags})
	if err != nil {
		s.release()
		s.gatherFailed(ctx, gather.ModeNavigation, err)
		return err
	}
	observability.GatherDuration.WithLabelValues(string(gather.ModeNavigation)).Observe(time.Since(start).Seconds())

	step := &GatherStep{Artifacts: result.Artifacts, StepFlags: stepFlags.Clone()}
	count := s.append(step, result.RunnerOptions)
	s.stepAppended(ctx, step, count-1)
	return nil
}

// StartNavigation begins a navigation whose trigger is an action outside the
// session's control, such as a user clicking a link. It does not return
// until the gatherer is waiting for that action; only then is the navigation
// handle installed. A failure before that point surfaces here and no handle
// is ever installed; a failure after it surfaces from EndNavigation.
func (s *Session) StartNavigation(ctx context.Context, stepFlags *config.Flags) error {
	ctx, span := observability.StartSpan(ctx, "flow.start_navigation")
	defer span.End()

	hs := newNavigationHandshake()

	// The whole navigate call runs concurrently with the caller's own work
	// and is detached from this call's cancellation: the gap between start
	// and end may be arbitrarily long.
	go func() {
		err := s.navigate(context.WithoutCancel(ctx), "start_navigation", gather.TriggerRequestor(hs.trigger), stepFlags)
		hs.complete(err)
	}()

	token, err := hs.awaitReady(ctx)
	if err != nil {
		// Unblock the trigger if it is (or gets) armed, so the background
		// navigate fails and releases the session instead of hanging.
		hs.cancelSetup(err)
		observability.RecordError(ctx, err)
		return err
	}

	s.mu.Lock()
	s.currentNavigation = &NavigationHandle{token: token}
	s.mu.Unlock()

	s.logger.NavigationArmed()
	s.publish(telemetry.EventNavigationReady, nil)
	return nil
}

// EndNavigation fires the deferred trigger and waits for the navigation to
// finish. The slot is cleared whether the navigation succeeded or failed; a
// gather failure propagates verbatim.
func (s *Session) EndNavigation(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "flow.end_navigation")
	defer span.End()

	s.mu.Lock()
	if s.currentTimespan != nil {
		s.mu.Unlock()
		s.rejected("end_navigation", ErrTimespanInProgress)
		return ErrTimespanInProgress
	}
	if s.currentNavigation == nil {
		s.mu.Unlock()
		s.rejected("end_navigation", ErrNoNavigation)
		return ErrNoNavigation
	}
	handle := s.currentNavigation
	s.mu.Unlock()

	err := handle.ContinueAndAwaitResult(ctx)

	s.mu.Lock()
	s.currentNavigation = nil
	s.mu.Unlock()

	if err != nil {
		observability.RecordError(ctx, err)
		s.publish(telemetry.EventNavigationEnded, map[string]any{"error": err.Error()})
		return err
	}
	s.publish(telemetry.EventNavigationEnded, nil)
	return nil
}

// StartTimespan begins a time-windowed capture. The capture stays open until
// EndTimespan; no other operation may run while it is.
func (s *Session) StartTimespan(ctx context.Context, stepFlags *config.Flags) error {
	ctx, span := observability.StartSpan(ctx, "flow.start_timespan")
	defer span.End()

	if err := s.claim("start_timespan", gather.ModeTimespan); err != nil {
		return err
	}

	flags := config.MergeFlags(s.flags, stepFlags)
	handle, err := s.deps.Gatherer.RunTimespan(ctx, s.page, gather.RunOptions{Config: s.config, Flags: flags})
	if err != nil {
		s.release()
		s.gatherFailed(ctx, gather.ModeTimespan, err)
		return err
	}

	s.mu.Lock()
	s.currentTimespan = &timespanCapture{
		handle:    handle,
		flags:     stepFlags.Clone(),
		startedAt: time.Now(),
	}
	s.inflight = ""
	s.mu.Unlock()

	observability.ActiveOperations.WithLabelValues("timespan").Inc()
	s.publish(telemetry.EventTimespanStarted, nil)
	return nil
}

// EndTimespan stops the open capture and appends its step. On a gather
// failure the slot stays set: an unterminated capture keeps failing loudly
// on every subsequent operation rather than silently abandoning state, and
// EndTimespan itself may be retried.
func (s *Session) EndTimespan(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "flow.end_timespan")
	defer span.End()

	s.mu.Lock()
	if s.currentTimespan == nil {
		s.mu.Unlock()
		s.rejected("end_timespan", ErrNoTimespan)
		return ErrNoTimespan
	}
	if s.currentNavigation != nil {
		s.mu.Unlock()
		s.rejected("end_timespan", ErrNavigationInProgress)
		return ErrNavigationInProgress
	}
	capture := s.currentTimespan
	if capture.ending {
		s.mu.Unlock()
		s.rejected("end_timespan", ErrTimespanInProgress)
		return ErrTimespanInProgress
	}
	capture.ending = true
	s.mu.Unlock()

	result, err := capture.handle.EndTimespanGather(ctx)
	if err != nil {
		s.mu.Lock()
		capture.ending = false
		s.mu.Unlock()
		s.gatherFailed(ctx, gather.ModeTimespan, err)
		return err
	}

	step := &GatherStep{Artifacts: result.Artifacts, StepFlags: capture.flags}
	if result.RunnerOptions != nil {
		s.registry.Set(step, result.RunnerOptions)
	}
	s.mu.Lock()
	s.steps = append(s.steps, step)
	s.currentTimespan = nil
	count := len(s.steps)
	s.mu.Unlock()

	observability.ActiveOperations.WithLabelValues("timespan").Dec()
	observability.GatherDuration.WithLabelValues(string(gather.ModeTimespan)).Observe(time.Since(capture.startedAt).Seconds())
	s.publish(telemetry.EventTimespanEnded, nil)
	s.stepAppended(ctx, step, count-1)
	return nil
}

// Snapshot captures the page state at a single point in time and appends the
// step immediately; there is no start/end split.
func (s *Session) Snapshot(ctx context.Context, stepFlags *config.Flags) error {
	ctx, span := observability.StartSpan(ctx, "flow.snapshot")
	defer span.End()

	if err := s.claim("snapshot", gather.ModeSnapshot); err != nil {
		return err
	}

	flags := config.MergeFlags(s.flags, stepFlags)
	start := time.Now()
	result, err := s.deps.Gatherer.RunSnapshot(ctx, s.page, gather.RunOptions{Config: s.config, Flags: flags})
	if err != nil {
		s.release()
		s.gatherFailed(ctx, gather.ModeSnapshot, err)
		return err
	}
	observability.GatherDuration.WithLabelValues(string(gather.ModeSnapshot)).Observe(time.Since(start).Seconds())

	step := &GatherStep{Artifacts: result.Artifacts, StepFlags: stepFlags.Clone()}
	count := s.append(step, result.RunnerOptions)
	s.publish(telemetry.EventSnapshotCaptured, nil)
	s.stepAppended(ctx, step, count-1)
	return nil
}

// CreateFlowResult scores every appended step and aggregates them into a
// single flow result.
func (s *Session) CreateFlowResult(ctx context.Context) (*report.FlowResult, error) {
	result, err := AuditGatherSteps(ctx, s.GatherSteps(), AuditOptions{
		Name:        s.name,
		Config:      s.config,
		Lookup:      s.registry,
		Initializer: s.deps.Initializer,
		Auditor:     s.deps.Auditor,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.logger.AuditCompleted(result.Name, len(result.Steps))
	s.publish(telemetry.EventFlowAudited, map[string]any{"name": result.Name, "steps": len(result.Steps)})
	return result, nil
}

// GenerateReport renders the aggregated flow result through the external
// renderer.
func (s *Session) GenerateReport(ctx context.Context) (string, error) {
	if s.deps.Renderer == nil {
		return "", fmt.Errorf("renderer is required")
	}
	result, err := s.CreateFlowResult(ctx)
	if err != nil {
		return "", err
	}
	text, err := s.deps.Renderer.Render(ctx, result)
	if err != nil {
		return "", err
	}
	observability.ReportsGenerated.Inc()
	s.logger.ReportGenerated(result.Name, len(text))
	s.publish(telemetry.EventReportGenerated, map[string]any{"name": result.Name, "bytes": len(text)})
	return text, nil
}

// CreateArtifacts returns the serializable snapshot of the session for
// external persistence: the gather steps and the explicit name, verbatim.
func (s *Session) CreateArtifacts() *FlowArtifacts {
	return &FlowArtifacts{GatherSteps: s.GatherSteps(), Name: s.name}
}

// claim reserves the in-flight slot for a mode after checking that nothing
// conflicting is active. Precondition failures happen here, before any
// external side effect.
func (s *Session) claim(operation string, mode gather.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflictLocked(); err != nil {
		s.rejected(operation, err)
		return err
	}
	s.inflight = mode
	return nil
}

// conflictLocked names the active conflicting operation, if any.
func (s *Session) conflictLocked() error {
	switch {
	case s.currentTimespan != nil:
		return ErrTimespanInProgress
	case s.currentNavigation != nil:
		return ErrNavigationInProgress
	case s.inflight == gather.ModeNavigation:
		return ErrNavigationInProgress
	case s.inflight == gather.ModeTimespan:
		return ErrTimespanInProgress
	case s.inflight == gather.ModeSnapshot:
		return ErrSnapshotInProgress
	}
	return nil
}

// release clears the in-flight marker after a failed gather call.
func (s *Session) release() {
	s.mu.Lock()
	s.inflight = ""
	s.mu.Unlock()
}

// append adds a completed step and clears the in-flight marker in one
// critical section, so the step list and the slot change atomically from a
// caller's point of view. Options are recorded first so any aggregation that
// can see the step can also see them.
func (s *Session) append(step *GatherStep, opts *gather.RunnerOptions) int {
	if opts != nil {
		s.registry.Set(step, opts)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	s.inflight = ""
	return len(s.steps)
}

// nextNavigationFlags merges the session defaults under the step flags and
// applies the navigation defaulting rules: skipAboutBlank turns on for every
// navigation unless set, disableStorageReset only when a prior navigation
// step already exists (a repeat navigation is not a cold load).
func (s *Session) nextNavigationFlags(stepFlags *config.Flags) *config.Flags {
	merged := config.MergeFlags(s.flags, stepFlags)
	if merged == nil {
		merged = &config.Flags{}
	}
	if merged.SkipAboutBlank == nil {
		merged.SkipAboutBlank = config.Bool(true)
	}
	if merged.DisableStorageReset == nil && s.hasNavigationStep() {
		merged.DisableStorageReset = config.Bool(true)
	}
	return merged
}

func (s *Session) hasNavigationStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range s.steps {
		if step.Mode() == gather.ModeNavigation {
			return true
		}
	}
	return false
}

func (s *Session) rejected(operation string, err error) {
	observability.InvalidStateRejections.WithLabelValues(operation).Inc()
	s.logger.OperationRejected(operation, err)
}

func (s *Session) gatherFailed(ctx context.Context, mode gather.Mode, err error) {
	observability.GatherFailures.WithLabelValues(string(mode)).Inc()
	observability.RecordError(ctx, err)
	s.logger.GatherFailed(string(mode), err)
}

func (s *Session) stepAppended(ctx context.Context, step *GatherStep, index int) {
	mode := string(step.Mode())
	url := step.Artifacts.URL.FinalDisplayedURL
	observability.GatherStepsTotal.WithLabelValues(mode).Inc()
	observability.AddEvent(ctx, "step.appended",
		observability.AttrGatherMode.String(mode),
		observability.AttrStepURL.String(url),
	)
	s.logger.StepAppended(mode, url, index)
	s.publish(telemetry.EventStepAppended, map[string]any{"mode": mode, "url": url, "index": index})
}

func (s *Session) publish(eventType telemetry.EventType, data map[string]any) {
	s.hub.Publish(telemetry.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    s.id,
		Data:      data,
	})
}

func requestorKind(r gather.Requestor) string {
	switch r.(type) {
	case gather.URLRequestor:
		return "url"
	case gather.TriggerRequestor:
		return "trigger"
	}
	return "unknown"
}
