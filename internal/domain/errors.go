package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownHandle means a handle was not found in the handle table.
// Handles only live for the process lifetime, so this is a normal
// user-facing "no longer available" condition, not a bug.
var ErrUnknownHandle = errors.New("unknown handle")

// ErrThreadResolution means a reply's parent record could not be
// decoded as a post, so the thread root cannot be determined.
var ErrThreadResolution = errors.New("parent record is not a post")

// AuthError reports a rejected login for one configured account. It is
// fatal to that account's session at startup but never to the process.
type AuthError struct {
	Identifier string
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed for %s: %v", e.Identifier, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError reports a transport or API failure talking to the remote
// service. It is recoverable: callers surface it as an action failure
// or degrade to an empty result.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote unavailable (%s): %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
