// ABOUTME: Badger-backed Store for durable local persistence
// ABOUTME: Opens the key-value database at a caller-supplied directory
package storage

import (
	"log"

	badger "github.com/dgraph-io/badger/v3"
)

// BadgerStore is the production Store backend.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(key string) (string, bool) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *BadgerStore) Set(key, value string) bool {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		log.Printf("storage: badger write failed for %s: %v", key, err)
		return false
	}
	return true
}

func (s *BadgerStore) Remove(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		log.Printf("storage: badger delete failed for %s: %v", key, err)
	}
}

func (s *BadgerStore) Keys() []string {
	return s.KeysWithPrefix("")
}

func (s *BadgerStore) KeysWithPrefix(prefix string) []string {
	var keys []string
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
