// Package reader extracts plain text from document files.
//
// A Reader holds a registry of format extractors keyed by file extension.
// The defaults cover plain text and Markdown, PDF, DOCX and Excel
// workbooks; WithExtractor swaps in or adds formats without touching the
// dispatch logic.
package reader
