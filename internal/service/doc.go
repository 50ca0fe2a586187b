// Package service provides application-level services that sit between
// the HTTP surface and the stores. Services own operation-scoped
// validation and state-machine transitions (job retry/cancel); the
// analysis pipeline itself lives in the analysis package.
//
// Error handling follows a consistent pattern:
//  1. Expected conditions surface as sentinel errors from domain or
//     store (e.g. store.ErrJobNotFound, domain.ErrJobNotRetryable) so
//     callers can branch with errors.Is.
//  2. Unexpected failures are wrapped in a service-specific error type
//     (JobServiceError, FeedbackServiceError) carrying the operation
//     name, with Unwrap preserving the cause.
//  3. The API layer maps both shapes to HTTP status codes.
package service
