package repository

import "fmt"

// RemoteAccessError reports a failure talking to a repository.
type RemoteAccessError struct {
	Domain Domain
	Op     string
	Err    error
}

func (e *RemoteAccessError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("domain %s: %s: %v", e.Domain, e.Op, e.Err)
}

func (e *RemoteAccessError) Unwrap() error {
	return e.Err
}

// NewRemoteAccessError wraps err unless it already is a *RemoteAccessError.
func NewRemoteAccessError(domain Domain, op string, err error) error {
	if err == nil {
		return nil
	}
	if rae, ok := err.(*RemoteAccessError); ok {
		return rae
	}
	return &RemoteAccessError{Domain: domain, Op: op, Err: err}
}
