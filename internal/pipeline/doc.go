// Package pipeline drives uploaded receipt files through ingestion.
//
// Each file gets an independent task: upload to the file vault, field
// extraction, an observable analyzing interval, then currency resolution
// into the ready state. The pipeline itself is stateless; every step is an
// id-scoped write into the draft store, so arbitrarily many tasks run
// concurrently without clobbering each other's receipts.
//
// Upload failure is terminal for a receipt. Extraction failure is not: the
// receipt degrades to a low-confidence placeholder so ingestion always
// reaches ready. The Runner holds a cancel function per in-flight task so
// removing a receipt stops its work at the next suspension point.
package pipeline
