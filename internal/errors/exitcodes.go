package errors

// Exit codes returned by the sitebuild CLI. Calling automation depends on
// these values; they must not change.
const (
	// ExitSuccess indicates the requested action completed, including an
	// interrupted serve or watch session.
	ExitSuccess = 0

	// ExitBuildFailure covers generator, minify, pre/post command and
	// configuration failures.
	ExitBuildFailure = 1

	// ExitDeployFailure indicates the deploy collaborator or deploy pre-command failed.
	ExitDeployFailure = 2

	// ExitCleanFailure indicates a configured directory could not be removed.
	ExitCleanFailure = 3

	// ExitPushFailure indicates a git push to one of the remotes failed.
	ExitPushFailure = 4

	// ExitServerFailure indicates the local web server could not be launched.
	ExitServerFailure = 5

	// ExitIndexFailure indicates the standalone index update failed.
	ExitIndexFailure = 9
)
