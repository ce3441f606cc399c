package git

import (
	stdErrors "errors"
	"sort"

	"github.com/go-git/go-git/v5"
)

// RemoteLister reports the remotes configured for the repository containing dir.
type RemoteLister interface {
	Remotes(dir string) ([]string, error)
}

// RepositoryRemotes lists remotes by reading the repository with go-git.
type RepositoryRemotes struct{}

func (RepositoryRemotes) Remotes(dir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stdErrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, &NotARepositoryError{Dir: dir, Err: err}
		}
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}
