// Package storage defines the persistence contract for embedded document
// chunks and the value codec shared by its implementations.
//
// A CollectionStore holds one named collection of records, each carrying
// content, an embedding vector and string-encoded metadata. The reference
// implementation lives in storage/badger.
package storage
