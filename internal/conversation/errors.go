package conversation

import "errors"

var (
	// ErrMissingAPIKey means the completion backend has no credential configured.
	ErrMissingAPIKey = errors.New("conversation: completion api key not configured")

	// ErrUpstream wraps non-success or malformed responses from the completion backend.
	ErrUpstream = errors.New("conversation: upstream completion error")

	// ErrCompletionTimeout is returned when a completion call exceeds its deadline.
	// Callers may retry the turn.
	ErrCompletionTimeout = errors.New("conversation: completion timed out")

	// ErrInvalidTurn is returned for malformed chat turn input.
	ErrInvalidTurn = errors.New("conversation: invalid chat turn")
)
