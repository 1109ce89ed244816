// Package doerr defines the error taxonomy shared by the repomap engine,
// the agent loop, and the tool runtime (spec.md §7).
package doerr

import "fmt"

// Kind is a coarse error classification, not a type hierarchy: the agent
// loop and tool dispatcher branch on Kind to decide retry/propagation.
type Kind string

const (
	Network              Kind = "network"
	Timeout              Kind = "timeout"
	RateLimited          Kind = "rate_limited"
	Server               Kind = "server"
	ClientBadRequest     Kind = "client_bad_request"
	Deserialize          Kind = "deserialize"
	ContextLengthExceeded Kind = "context_length_exceeded"
	Cancelled            Kind = "cancelled"
	ToolArgInvalid       Kind = "tool_arg_invalid"
	ToolExecution        Kind = "tool_execution"
	PathEscape           Kind = "path_escape"
	HashMismatch         Kind = "hash_mismatch"
	NotUnique            Kind = "not_unique"
	NotFound             Kind = "not_found"
	PermissionDenied     Kind = "permission_denied"
	BinaryContent        Kind = "binary_content"
	Shell                Kind = "shell"
)

// Error is the core error envelope. Kind drives control flow; Message is
// the user-facing, concise description (spec.md §7 "User-visible failure
// behavior"); Err, when present, wraps the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Of extracts the Kind of err, returning "" if err is not (or does not
// wrap) a *doerr.Error.
func Of(err error) Kind {
	var de *Error
	if errorsAs(err, &de) {
		return de.Kind
	}
	return ""
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}

// Retryable reports whether the agent loop should retry a request that
// failed with this error, per spec.md §4.H step 6 / §7.
func Retryable(err error) bool {
	switch Of(err) {
	case Network, Timeout, Server, RateLimited:
		return true
	default:
		return false
	}
}

// errorsAs walks err's Unwrap chain for an *Error, doing the job of
// errors.As without importing the errors package. Only single-error
// Unwrap chains are followed; joined errors are not searched.
func errorsAs(err error, target **Error) bool {
	for err != nil {
		if de, ok := err.(*Error); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
