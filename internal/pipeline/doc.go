// Package pipeline resolves command-line intent into RunOptions and runs the
// stages of one sitebuild action:
//
//	[pre-command] -> clean -> index -> generate -> [minify] -> [post-command] -> [deploy]
//
// Every external effect goes through the RunContext's runner, so a dry run
// executes nothing and mutates nothing. Stage failures are returned as
// *errors.BuildError values whose category selects the process exit code.
package pipeline
