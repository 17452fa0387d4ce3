package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Action is one of the four extension operations.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
	ActionEnable    Action = "enable"
	ActionDisable   Action = "disable"
)

// ParseAction maps a name to an Action, ignoring case.
func ParseAction(name string) (Action, error) {
	switch a := Action(strings.ToLower(name)); a {
	case ActionInstall, ActionUninstall, ActionEnable, ActionDisable:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Status is the result of one operation on one extension.
type Status string

const (
	StatusInstalled   Status = "INSTALLED"
	StatusUninstalled Status = "UNINSTALLED"
	StatusEnabled     Status = "ENABLED"
	StatusDisabled    Status = "DISABLED"
	StatusNotFound    Status = "NOT_FOUND"
	StatusFailed      Status = "FAILED"
)

// Outcome is what an operation reports about itself.
type Outcome struct {
	Operation Action
	ClassID   string
	ClassName string
	Status    Status
	Detail    string
	Err       error
}

// Reporter receives the outcome of every operation.
type Reporter interface {
	Report(ctx context.Context, o Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, o Outcome)

func (f ReporterFunc) Report(ctx context.Context, o Outcome) { f(ctx, o) }

// MultiReporter hands each outcome to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, o Outcome) {
	for _, r := range m {
		r.Report(ctx, o)
	}
}

// LogReporter writes outcomes as structured log records.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a LogReporter on logger, or on the default logger when nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (l *LogReporter) Report(ctx context.Context, o Outcome) {
	level := slog.LevelInfo
	switch o.Status {
	case StatusFailed:
		level = slog.LevelError
	case StatusNotFound:
		level = slog.LevelWarn
	}

	attrs := []any{
		"component", "Inventory",
		"operation", string(o.Operation),
		"class_id", o.ClassID,
		"class_name", o.ClassName,
		"status", string(o.Status),
	}
	if o.Detail != "" {
		attrs = append(attrs, "detail", o.Detail)
	}
	if o.Err != nil {
		attrs = append(attrs, "error", o.Err)
	}
	l.logger.Log(ctx, level, fmt.Sprintf("%s : %s", o.ClassName, o.Status), attrs...)
}
