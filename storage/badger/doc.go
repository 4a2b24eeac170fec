// Package badger implements storage.CollectionStore on BadgerDB.
package badger
