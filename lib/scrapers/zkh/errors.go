package zkh

import "fmt"

// PreflightError means the login page could not establish a usable
// session, either because of its HTTP status or because the mandatory
// anti-forgery token was missing from its markup.
type PreflightError struct {
	Reason     string
	StatusCode int
}

func (e *PreflightError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("preflight: %s (status %d)", e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("preflight: %s", e.Reason)
}

// SequenceError is a caller ordering violation: an operation was invoked
// before the session state it depends on existed. It indicates a bug in
// the calling code, not a network condition.
type SequenceError struct {
	Op      string
	Missing string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s called out of order: missing %s", e.Op, e.Missing)
}

// LoginError is a login submission the portal rejected.
type LoginError struct {
	StatusCode int
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login rejected with status %d", e.StatusCode)
}

// StatusError is a non-success HTTP status on any other portal call.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}
