// Package ai defines the embedding provider abstraction used by the
// ingestion and retrieval pipelines.
//
// The Embedder interface hides the concrete provider. Two implementations
// ship with this module:
//
//   - ai/openai: production embedder for OpenAI-compatible APIs (OpenAI,
//     Ollama, LocalAI, vLLM), with batching, retry and graceful per-item
//     degradation
//   - ai/mock: deterministic in-memory embedder for tests
//
// Batch embedding never fails a whole batch because of individual items:
// texts that cannot be embedded receive zero vectors, and the BatchReport
// returned alongside the vectors names the affected indices so callers can
// decide whether degraded output is acceptable.
package ai
