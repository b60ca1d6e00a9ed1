package store

import (
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerBackend stores each collection as one JSON value in an embedded
// Badger database, keyed by category name.
type badgerBackend struct {
	db *badger.DB
}

func openBadger(path string) (*badgerBackend, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerBackend{db: db}, nil
}

func (b *badgerBackend) put(category string, data interface{}) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(category), encoded)
	})
}

// get unmarshals the stored value for category into target. It returns
// false with no error when the category has never been written.
func (b *badgerBackend) get(category string, target interface{}) (bool, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(category))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, target)
}

func (b *badgerBackend) Close() error {
	return b.db.Close()
}
