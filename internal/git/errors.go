package git

import "fmt"

// Typed git errors enabling structured classification without string parsing upstream.
type NotARepositoryError struct {
	Dir string
	Err error
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("%s is not inside a git repository: %v", e.Dir, e.Err)
}
func (e *NotARepositoryError) Unwrap() error { return e.Err }

type RemoteNotFoundError struct {
	Remote string
	Known  []string
}

func (e *RemoteNotFoundError) Error() string {
	return fmt.Sprintf("remote %q is not configured (known remotes: %v)", e.Remote, e.Known)
}

// PushError reports the remote whose push failed.
type PushError struct {
	Remote string
	Err    error
}

func (e *PushError) Error() string { return fmt.Sprintf("push to %s failed: %v", e.Remote, e.Err) }
func (e *PushError) Unwrap() error { return e.Err }
