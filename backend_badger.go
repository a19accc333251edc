package ykv

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

type badgerBackend struct {
	bdb *badger.DB
}

// NewBadgerBackend adapts a Badger database to the Backend contract. Badger
// runs writers optimistically and aborts on write-write conflict, which
// satisfies the transactional precondition of OID allocation as long as the
// caller retries the whole logical operation on badger.ErrConflict.
func NewBadgerBackend(bdb *badger.DB) Backend {
	return &badgerBackend{bdb: bdb}
}

func (s *badgerBackend) Begin(writable bool) (Txn, error) {
	return &badgerTxn{btx: s.bdb.NewTransaction(writable)}, nil
}

func (s *badgerBackend) Close() error {
	return s.bdb.Close()
}

type badgerTxn struct {
	btx *badger.Txn
}

func (tx *badgerTxn) Commit() error { return tx.btx.Commit() }

func (tx *badgerTxn) Rollback() error {
	tx.btx.Discard()
	return nil
}

func (tx *badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := tx.btx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *badgerTxn) Upsert(key, value []byte) ([]byte, error) {
	prev, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if err := tx.btx.Set(key, value); err != nil {
		return nil, err
	}
	return prev, nil
}

func (tx *badgerTxn) Remove(key []byte) ([]byte, error) {
	prev, err := tx.Get(key)
	if err != nil || prev == nil {
		return nil, err
	}
	if err := tx.btx.Delete(key); err != nil {
		return nil, err
	}
	return prev, nil
}

func (tx *badgerTxn) RemoveRange(from, to []byte) error {
	// Deleting while the iterator is live confuses Badger's prefetching;
	// collect first, delete after.
	var keys [][]byte
	it := tx.btx.NewIterator(badger.IteratorOptions{})
	for it.Seek(from); it.Valid(); it.Next() {
		key := it.Item().Key()
		if bytes.Compare(key, to) >= 0 {
			break
		}
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, key := range keys {
		if err := tx.btx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerTxn) IterRange(from, to []byte) (Cursor, error) {
	opt := badger.DefaultIteratorOptions
	opt.PrefetchValues = true
	it := tx.btx.NewIterator(opt)
	return &badgerCursor{it: it, from: from, to: to}, nil
}

type badgerCursor struct {
	it      *badger.Iterator
	from    []byte
	to      []byte
	started bool
	err     error

	key   []byte
	value []byte
}

func (c *badgerCursor) Next() (key, value []byte) {
	if c.err != nil || c.it == nil {
		return nil, nil
	}
	if !c.started {
		c.started = true
		c.it.Seek(c.from)
	} else {
		c.it.Next()
	}
	if !c.it.Valid() {
		return nil, nil
	}
	item := c.it.Item()
	if bytes.Compare(item.Key(), c.to) > 0 {
		return nil, nil
	}
	c.key = item.KeyCopy(c.key[:0])
	c.value, c.err = item.ValueCopy(c.value[:0])
	if c.err != nil {
		return nil, nil
	}
	return c.key, c.value
}

func (c *badgerCursor) Err() error { return c.err }

func (c *badgerCursor) Close() error {
	if c.it != nil {
		c.it.Close()
		c.it = nil
	}
	return nil
}
