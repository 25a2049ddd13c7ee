// Package ledger is the client for the expense backend: attachment
// records, expense creation, and the read-only campus/department
// directory.
//
// Attachment deletion exists solely so submission can compensate for a
// partial failure; the backend offers no transactional endpoint, so the
// orchestrator creates attachments one by one and unwinds best-effort.
package ledger
