package parser

import "errors"

// Extraction failure classes. All parser errors wrap exactly one of these,
// so callers branch with errors.Is. Decoding is a pure function of its
// inputs; none of these are retryable.
var (
	// ErrNotFound: the requested field name is absent from the schema's
	// field list. A caller error.
	ErrNotFound = errors.New("field not found")

	// ErrTypeMismatch: the field exists but the requested representation is
	// not the one its strategy produces. No implicit widening or narrowing
	// is ever performed.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnimplemented: the field exists but its wire-type combination has
	// no decoding strategy. A known limitation, not a corruption signal.
	ErrUnimplemented = errors.New("unimplemented wire type")

	// ErrMalformed: the buffer is truncated or inconsistent with a declared
	// field length. Signals a genuinely corrupt or unsupported record.
	ErrMalformed = errors.New("malformed event buffer")
)
