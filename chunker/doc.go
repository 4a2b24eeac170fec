// Package chunker splits raw text into bounded-size, context-preserving
// segments for embedding and retrieval.
//
// Three methods are supported:
//   - recursive (default): separator-priority splitting that prefers the most
//     semantic boundary present in the text
//   - sentence: sentence-boundary splitting
//   - paragraph: blank-line splitting with recursive fallback for oversized
//     paragraphs
//
// All methods share the same size/overlap contract: every returned chunk is
// non-empty after trimming and never exceeds the configured size unless a
// single atomic unit (one word or sentence) is unavoidably larger.
package chunker
