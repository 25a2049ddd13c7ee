// Package vault uploads receipt documents to the organization's file store
// and hands back the remote file ids attachments reference later.
//
// The service is deliberately thin: one multipart POST per document plus a
// URL helper. Upload failure is the only terminal error in receipt
// ingestion, so callers surface it verbatim on the receipt.
package vault
