// Package processor orchestrates document ingestion: it discovers supported
// files under a directory, extracts their text, enriches each document with
// classification and content-analysis metadata, and chunks the text into
// records ready for embedding.
//
// Files are deduplicated by content hash across the lifetime of a Processor,
// so reprocessing the same corpus is idempotent. Extraction runs on a worker
// pool; per-file failures are logged and skipped rather than aborting the
// batch.
package processor
