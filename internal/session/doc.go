// Package session assembles the draft store, ingestion pipeline, and
// submission orchestrator into a single-use working session.
package session
