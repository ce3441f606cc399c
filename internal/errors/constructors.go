package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path, sample string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path).
		WithRemediation("copy " + sample + " to " + path + " and edit it to suit the site")
}

func ConfigInvalid(path string, cause error) *BuildError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file is not valid JSON").
		WithContext("path", path).
		WithRemediation("fix the syntax of " + path + "; // and /* */ comments are allowed")
}

func ConfigField(path, field, reason string) *BuildError {
	msg := "invalid configuration value in " + path
	if field != "" {
		msg += " for " + field
	}
	return New(CategoryConfig, SeverityFatal, msg+": "+reason).
		WithContext("path", path).
		WithContext("field", field).
		WithContext("reason", reason)
}

// UsageError reports an invalid combination of command-line options.
func UsageError(message string) *BuildError {
	return New(CategoryConfig, SeverityFatal, message)
}

func InvalidWorkDir(path string, cause error) *BuildError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "working directory is not usable").
		WithContext("path", path).
		WithRemediation("pass an existing site directory with --directory")
}

// Lock errors

func AlreadyRunning(pidfile string, pid string) *BuildError {
	return New(CategoryLock, SeverityFatal, "another sitebuild process is already running").
		WithContext("pidfile", pidfile).
		WithContext("pid", pid).
		WithRemediation("if process " + pid + " is not running, remove " + pidfile + " and try again")
}

func LockFailed(pidfile string, cause error) *BuildError {
	return Wrap(cause, CategoryLock, SeverityFatal, "could not create pidfile").
		WithContext("pidfile", pidfile)
}

// Pipeline stage errors

func StageFailed(category ErrorCategory, stage string, cause error) *BuildError {
	return Wrap(cause, category, SeverityFatal, stage+" failed").
		WithContext("stage", stage)
}

func Interrupted(stage string, cause error) *BuildError {
	return Wrap(cause, CategoryInterrupted, SeverityFatal, "interrupted during "+stage).
		WithContext("stage", stage)
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
