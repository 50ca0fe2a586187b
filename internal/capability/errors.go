package capability

import "errors"

// Common errors returned by capability service implementations
var (
	// ErrUnavailable is returned when a capability service cannot be
	// reached or returns a server-side failure.
	ErrUnavailable = errors.New("capability service unavailable")

	// ErrInvalidResponse is returned when a capability response cannot
	// be parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from capability service")

	// ErrContentBlocked is returned when the LLM blocks the refinement
	// content due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when a capability client configuration is invalid.
	ErrInvalidConfig = errors.New("invalid capability client configuration")
)
