package badger

import "fmt"

// Key prefixes for different data types
const (
	recordPrefix = "colrec"
)

// makeRecordKey generates a key for a record by collection and ID.
func makeRecordKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", recordPrefix, collection, id))
}

// makeCollectionPrefix generates the iteration prefix for a collection.
func makeCollectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, collection))
}
