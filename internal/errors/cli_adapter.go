package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// WithOutput redirects user-facing messages (tests).
func (a *CLIErrorAdapter) WithOutput(w io.Writer) *CLIErrorAdapter {
	a.out = w
	return a
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if be, ok := As(err); ok {
		return exitCodeForCategory(be.Category)
	}
	return ExitBuildFailure
}

func exitCodeForCategory(c ErrorCategory) int {
	switch c {
	case CategoryDeploy:
		return ExitDeployFailure
	case CategoryClean:
		return ExitCleanFailure
	case CategoryPush:
		return ExitPushFailure
	case CategoryServer:
		return ExitServerFailure
	case CategoryIndex:
		return ExitIndexFailure
	default:
		// config, lock, build, interrupted and unclassified errors
		return ExitBuildFailure
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	be, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	var b strings.Builder
	if a.verbose {
		b.WriteString(be.Error())
	} else {
		switch be.Category {
		case CategoryConfig, CategoryLock:
			b.WriteString(be.Message)
		default:
			b.WriteString(fmt.Sprintf("%s: %s", be.Category, be.Message))
		}
		if be.Cause != nil {
			b.WriteString(": ")
			b.WriteString(be.Cause.Error())
		}
	}
	if be.Remediation != "" {
		b.WriteString("\nTo fix: ")
		b.WriteString(be.Remediation)
	}
	return b.String()
}

// Report logs and prints err once and returns the exit code the process should use.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if be, ok := As(err); ok {
		return be.Category == CategoryInternal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if be, ok := As(err); ok {
		attrs := []slog.Attr{slog.String("category", string(be.Category))}
		for k, v := range be.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if be.Cause != nil {
			attrs = append(attrs, slog.String("cause", be.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(be.Severity), be.Message, attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
