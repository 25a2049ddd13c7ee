// Package services defines shared utilities consumed by the ingestion
// pipeline and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp receipt identifiers and pipeline step
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs transient vs external) consistent
//     across collaborators.
//
// Use these helpers when wiring new collaborator clients so operational
// behaviour (error handling, observability) stays uniform across the
// pipeline.
package services
