package core

import "errors"

// Statement-level errors. These are always recovered locally by the
// executor as a rejected outcome and never propagate as process failures.
var (
	// ErrNameConflict is returned when a definition targets a name that is
	// already taken in the constructor, function or registration table.
	ErrNameConflict = errors.New("name conflict")

	// ErrUnauthorized is returned when a statement needs an ownership
	// proof it does not carry: it is unsigned, its signature recovers a
	// different address than required, or the namespace it touches is
	// owned by someone else.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSpaceExceeded is returned when a statement's accepted state
	// growth exceeds the per-statement space ceiling.
	ErrSpaceExceeded = errors.New("space ceiling exceeded")

	// ErrInvalidStatement is returned when a structurally decodable
	// statement is semantically unusable (bad arity, malformed rule,
	// missing name).
	ErrInvalidStatement = errors.New("invalid statement")
)

// Block-level scheduling signals. These are not statement errors: they
// mean the block has no room for the statement, which is then skipped,
// not rejected.
var (
	// ErrManaLimitReached is returned by the mana pool when a statement
	// does not fit in the remaining block mana.
	ErrManaLimitReached = errors.New("mana limit reached")

	// ErrSpaceLimitReached is returned by the space pool when a statement
	// does not fit in the remaining block space.
	ErrSpaceLimitReached = errors.New("space limit reached")
)
