// Package draft holds the in-memory expense draft and exposes id-scoped
// atomic mutation plus derived queries.
//
// The Store is the single shared mutable resource in the ingestion
// pipeline: concurrent upload tasks, the currency reconciler, the
// submission orchestrator, and interactive edit handlers all funnel their
// writes through its methods, each of which applies one merge under the
// store lock. Derived queries (total amount, readiness) are recomputed on
// every read and never cached; IsReadyToSubmit is the one gate consulted
// both by the presentation surface and by submission itself.
//
// A draft lives entirely in memory. It is created empty, discarded after a
// successful submission or on reset, and never persisted server-side until
// submission. Receipts are created only by the ingestion pipeline (primary
// uploads) or the bank-statement attach action (children); a statement
// child carries ParentID and is the canonical representation of the link —
// the parent's "verified" badge is derived, never stored.
package draft
