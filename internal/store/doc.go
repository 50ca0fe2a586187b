// Package store defines the persistence interfaces consumed by the
// analysis pipeline and the automation worker, together with the shared
// error hierarchy store implementations map database failures onto.
//
// The interfaces are intentionally narrow: the pipeline needs feedback
// reads, idempotent analysis upserts, and the job queue operations
// (insert, atomic claim, per-row update). Concrete implementations live
// in internal/platform/postgres.
package store
