// Package retriever ties the pipeline together: it populates a vector
// collection from a documents directory on first use and answers natural
// language queries with similarity-ranked chunks.
//
// A Retriever moves through three states: uninitialized, populating and
// ready. Population is skipped when the collection already holds records,
// so startup against an existing index is cheap. Without a documents root
// the retriever still comes up in a degraded but usable state; documents
// can then be added one at a time.
package retriever
