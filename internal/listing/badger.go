package listing

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerStore keeps the serialized cache under a single key in a badger
// database.
type BadgerStore struct {
	db  *badger.DB
	key []byte
}

// OpenBadgerStore opens (or creates) the database at dir. An empty dir
// opens an in-memory database.
func OpenBadgerStore(dir, key string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLoggingLevel(badger.WARNING).
		WithCompression(options.None).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", dir, err)
	}
	return &BadgerStore{db: db, key: []byte(key)}, nil
}

func (s *BadgerStore) Load() ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoData
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func (s *BadgerStore) Save(data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}

func (s *BadgerStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
