// Package git pushes the site repository to its configured remotes.
//
// This package handles:
//   - Resolving the repository that contains the site directory (go-git)
//   - Verifying each configured remote exists before it is pushed
//   - Pushing remotes in order through the command runner, stopping at the
//     first failure
//
// The push itself is delegated to the git command-line tool so that the
// user's credentials, hooks and --dry-run handling apply unchanged.
package git
