// Package errs defines the error kinds surfaced by the council
// pipeline: sentinel values wrapped with context via
// fmt.Errorf("...: %w", ...), never exposed as distinct Go types.
package errs

import "errors"

var (
	// ErrValidationFailure marks an input that violates a schema
	// invariant (unknown decision, negative BUY quantity, ...).
	ErrValidationFailure = errors.New("validation failure")

	// ErrNotFound marks an addressed entity that is absent.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientCapital marks a trade precondition failure on the
	// available-balance side.
	ErrInsufficientCapital = errors.New("insufficient capital")

	// ErrInsufficientHoldings marks a spot SELL exceeding the held
	// quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrVenueRejection marks a non-success response from a venue
	// client on place/cancel.
	ErrVenueRejection = errors.New("venue rejected order")

	// ErrAgentFailure marks an LLM call that failed or returned
	// unparseable output; contained to one (agent, symbol) signal.
	ErrAgentFailure = errors.New("agent invocation failed")

	// ErrTransient marks a database/network blip the caller may retry
	// at the next schedule tick.
	ErrTransient = errors.New("transient error")

	// ErrFatal marks overflow, missing configuration, or a corrupt
	// data invariant. Fatal errors stop the affected council only.
	ErrFatal = errors.New("fatal error")

	// ErrUniqueViolation and ErrForeignKeyViolation and
	// ErrCheckViolation distinguish store constraint failures, per
	// the repository layer's failure semantics.
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
)
