package observability

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a structured logger for flow components
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(component string, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)

	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "beacon"),
	)

	return &Logger{Logger: logger}
}

// NewNopLogger returns a logger that discards everything. Used where a
// component was constructed without a logger.
func NewNopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithFlow returns a logger with flow-specific fields
func (l *Logger) WithFlow(flowID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("flow_id", flowID),
		),
	}
}

// WithStep returns a logger with step-specific fields
func (l *Logger) WithStep(mode, stepName string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("gather_mode", mode),
			slog.String("step_name", stepName),
		),
	}
}

// StepAppended logs a gather step landing in the flow
func (l *Logger) StepAppended(mode, url string, index int) {
	l.Info("gather step appended",
		slog.String("gather_mode", mode),
		slog.String("url", url),
		slog.Int("step_index", index),
	)
}

// NavigationArmed logs the handshake reaching its ready point
func (l *Logger) NavigationArmed() {
	l.Debug("navigation armed, waiting for trigger")
}

// OperationRejected logs a precondition failure
func (l *Logger) OperationRejected(operation string, err error) {
	l.Warn("operation rejected",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// GatherFailed logs a collaborator failure
func (l *Logger) GatherFailed(mode string, err error) {
	l.Error("gather failed",
		slog.String("gather_mode", mode),
		slog.String("error", err.Error()),
	)
}

// AuditCompleted logs a finished aggregation
func (l *Logger) AuditCompleted(flowName string, stepCount int) {
	l.Info("flow audited",
		slog.String("flow_name", flowName),
		slog.Int("step_count", stepCount),
	)
}

// ReportGenerated logs report rendering
func (l *Logger) ReportGenerated(flowName string, size int) {
	l.Info("report generated",
		slog.String("flow_name", flowName),
		slog.Int("report_bytes", size),
	)
}

// ArchiveSaved logs a persisted artifacts snapshot
func (l *Logger) ArchiveSaved(id, name string, stepCount int) {
	l.Info("flow artifacts archived",
		slog.String("record_id", id),
		slog.String("flow_name", name),
		slog.Int("step_count", stepCount),
	)
}
