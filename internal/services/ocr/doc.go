// Package ocr extracts financial fields from uploaded receipt documents.
//
// Two backends implement the Scanner interface: a remote extraction
// endpoint that works from uploaded file references, and a direct Gemini
// backend that sends the document bytes to the model. Both normalize into
// the same Result shape, including the optional settlement-currency figure
// that short-circuits rate-derived estimates.
//
// Extraction failure is non-fatal by design; the pipeline degrades a
// failed extraction to a low-confidence placeholder instead of failing the
// receipt.
package ocr
