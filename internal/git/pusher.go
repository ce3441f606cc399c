package git

import (
	"context"
	stdErrors "errors"
	"slices"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/runner"
)

// DefaultRemotes is used when no remotes are configured.
var DefaultRemotes = []string{"origin"}

// Pusher pushes the current branch to an ordered list of remotes.
type Pusher struct {
	runner  *runner.Runner
	remotes []string
	lister  RemoteLister
}

// NewPusher returns a Pusher for remotes (DefaultRemotes when empty).
func NewPusher(r *runner.Runner, remotes []string) *Pusher {
	if len(remotes) == 0 {
		remotes = DefaultRemotes
	}
	return &Pusher{runner: r, remotes: slices.Clone(remotes), lister: RepositoryRemotes{}}
}

// WithRemoteLister replaces the go-git remote lookup (tests).
func (p *Pusher) WithRemoteLister(l RemoteLister) *Pusher {
	p.lister = l
	return p
}

// PushArgs returns the git argv for one remote. Dry-run is passed to git as --dry-run.
func PushArgs(remote string, verbosity runner.Verbosity, dryRun bool) []string {
	args := []string{"git", "push"}
	switch verbosity {
	case runner.Quiet:
		args = append(args, "--quiet")
	case runner.Verbose:
		args = append(args, "--verbose")
	}
	if dryRun {
		args = append(args, "--dry-run")
	}
	return append(args, remote)
}

// Push pushes each remote in order and returns at the first failure without
// attempting the remaining remotes.
func (p *Pusher) Push(ctx context.Context) error {
	logger := p.runner.Logger()
	known, err := p.knownRemotes()
	if err != nil {
		return err
	}

	for _, remote := range p.remotes {
		if known != nil && !slices.Contains(known, remote) {
			return &PushError{Remote: remote, Err: &RemoteNotFoundError{Remote: remote, Known: known}}
		}
		logger.Info("Pushing", logfields.Remote(remote), logfields.DryRun(p.runner.DryRun()))
		cmd := runner.Command{Args: PushArgs(remote, p.runner.Verbosity(), p.runner.DryRun())}
		if err := p.runner.Run(ctx, cmd); err != nil {
			return &PushError{Remote: remote, Err: err}
		}
	}
	return nil
}

// knownRemotes returns nil when the repository cannot be inspected for a
// reason other than it not existing; git itself then decides.
func (p *Pusher) knownRemotes() ([]string, error) {
	if p.lister == nil {
		return nil, nil
	}
	known, err := p.lister.Remotes(p.runner.Dir())
	if err == nil {
		return known, nil
	}
	var nre *NotARepositoryError
	if stdErrors.As(err, &nre) {
		return nil, err
	}
	p.runner.Logger().Warn("Could not inspect repository remotes; leaving verification to git", logfields.Error(err))
	return nil, nil
}
