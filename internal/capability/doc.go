// Package capability defines the uniform interfaces for the external
// inference and automation providers the pipeline fans out to:
// sentiment analysis, topic classification, entity extraction, the
// refinement pass, and automation dispatch.
//
// Each capability is a single-call request/response boundary with its
// own timeout and failure mode. The orchestrator treats every
// implementation as a black box: a failed call is substituted with a
// documented fallback value and recorded, never propagated as a
// pipeline abort. Concrete clients live under internal/platform.
package capability
