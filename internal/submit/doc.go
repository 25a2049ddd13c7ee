// Package submit turns a ready expense draft into backend records.
//
// The phase machine is draft -> submitting -> (complete | draft). The
// readiness gate is re-checked when submitting is entered, never just
// trusted from the caller. Attachments are created sequentially per
// receipt; any failure unwinds already-created attachments best-effort,
// reverts the phase, and keeps the draft so the user can retry without
// re-uploading.
package submit
