// Package coreerr defines the error taxonomy shared across the orchestration core.
package coreerr

import "fmt"

// Kind is a machine-readable error category, not a concrete Go type.
// Components report a Kind so the transport layer and the CLI can decide
// whether an error is fatal, a warning, or safe to recover from.
type Kind string

const (
	// ConfigInvalid marks configuration missing or malformed; fatal at startup.
	ConfigInvalid Kind = "config_invalid"
	// CorpusUnavailable marks a requested evidence corpus that is missing.
	CorpusUnavailable Kind = "corpus_unavailable"
	// GenerationUnavailable marks the generation service being unreachable.
	GenerationUnavailable Kind = "generation_unavailable"
	// EmbedderUnavailable marks the embedding service being unreachable.
	EmbedderUnavailable Kind = "embedder_unavailable"
	// WorkerTimeout marks a worker that exceeded its deadline.
	WorkerTimeout Kind = "worker_timeout"
	// WorkerError marks a worker that returned an error.
	WorkerError Kind = "worker_error"
	// WorkerCancelled marks a worker whose run was cancelled cooperatively.
	WorkerCancelled Kind = "worker_cancelled"
	// ClientDisconnect marks a streaming client that went away.
	ClientDisconnect Kind = "client_disconnect"
	// RunDeadlineExceeded marks the overall run timeout firing.
	RunDeadlineExceeded Kind = "run_deadline_exceeded"
	// InternalInvariant marks a violated data-model invariant; always fatal to the run.
	InternalInvariant Kind = "internal"
)

// Error is the core package's structured error type. It carries a Kind for
// programmatic dispatch, an optional component/worker identifier, and wraps
// a cause for errors.Is/As support.
type Error struct {
	Kind    Kind
	Source  string // component or worker id that raised the error
	Message string
	Cause   error
}

// New builds an Error with no wrapped cause.
func New(kind Kind, source, message string) *Error {
	return &Error{Kind: kind, Source: source, Message: message}
}

// Wrap builds an Error that wraps an existing error as its Cause.
func Wrap(kind Kind, source string, cause error) *Error {
	return &Error{Kind: kind, Source: source, Message: cause.Error(), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is / errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Fatal reports whether this Kind should halt the run entirely (as opposed
// to being recovered locally and logged as a warning).
func (e *Error) Fatal() bool {
	switch e.Kind {
	case ConfigInvalid, InternalInvariant, RunDeadlineExceeded:
		return true
	default:
		return false
	}
}
