package core

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HexIDFromContent generates the 16-character hexadecimal form of a content ID.
// This is the default record identifier in the collection store, so adding
// identical text twice overwrites a single record instead of duplicating one.
func HexIDFromContent(text string) string {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// HashReader computes the content hash of a byte stream, reading in fixed-size
// pieces so large files are never loaded whole just for hashing.
// Returns the hex digest.
func HashReader(r io.Reader) (string, error) {
	h, _ := blake2b.New(16, nil)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Document represents a file discovered during an ingestion scan.
// It is immutable once hashed; the hash is its identity for deduplication.
type Document struct {
	Path    string
	Ext     string
	Size    int64
	Hash    string
	ModTime time.Time
}

// ChunkRecord is one bounded span of text from a Document, ready for
// embedding and storage. Metadata carries the shared document metadata plus
// the chunk's own ordinal, sibling count and derived chunk id.
type ChunkRecord struct {
	Content  string
	Metadata map[string]any
	Source   string
}

// RetrievedResult is a ranked retrieval hit.
// Score is in [0,1]; higher means more semantically related.
type RetrievedResult struct {
	ID       string
	Content  string
	Metadata map[string]any
	Score    float64
	Source   string
}
