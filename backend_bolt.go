package ykv

import (
	"bytes"
	"slices"

	"go.etcd.io/bbolt"
)

var boltBucketName = []byte("ykv")

type boltBackend struct {
	bdb *bbolt.DB
}

// NewBoltBackend adapts a Bolt database to the Backend contract. All records
// live in a single flat bucket; Bolt serializes writers, satisfying the
// transactional precondition of OID allocation.
func NewBoltBackend(bdb *bbolt.DB) (Backend, error) {
	err := bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(boltBucketName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &boltBackend{bdb: bdb}, nil
}

func (s *boltBackend) Begin(writable bool) (Txn, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltTxn{btx: btx, b: btx.Bucket(boltBucketName)}, nil
}

func (s *boltBackend) Close() error {
	return s.bdb.Close()
}

type boltTxn struct {
	btx *bbolt.Tx
	b   *bbolt.Bucket
}

func (tx *boltTxn) BoltTx() *bbolt.Tx { return tx.btx }

func (tx *boltTxn) Commit() error { return tx.btx.Commit() }

func (tx *boltTxn) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func (tx *boltTxn) Get(key []byte) ([]byte, error) {
	return tx.b.Get(key), nil
}

func (tx *boltTxn) Upsert(key, value []byte) ([]byte, error) {
	// Bolt's Get returns a slice into the mmap'ed page, which Put below may
	// shuffle, so the previous value must be copied out first.
	prev := slices.Clone(tx.b.Get(key))
	if err := tx.b.Put(key, value); err != nil {
		return nil, err
	}
	return prev, nil
}

func (tx *boltTxn) Remove(key []byte) ([]byte, error) {
	prev := slices.Clone(tx.b.Get(key))
	if prev == nil {
		return nil, nil
	}
	if err := tx.b.Delete(key); err != nil {
		return nil, err
	}
	return prev, nil
}

func (tx *boltTxn) RemoveRange(from, to []byte) error {
	var keys [][]byte
	c := tx.b.Cursor()
	for k, _ := c.Seek(from); k != nil && bytes.Compare(k, to) < 0; k, _ = c.Next() {
		keys = append(keys, slices.Clone(k))
	}
	for _, k := range keys {
		if err := tx.b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (tx *boltTxn) IterRange(from, to []byte) (Cursor, error) {
	return &boltCursor{c: tx.b.Cursor(), from: from, to: to}, nil
}

type boltCursor struct {
	c       *bbolt.Cursor
	from    []byte
	to      []byte
	started bool
}

func (c *boltCursor) Next() (key, value []byte) {
	var k, v []byte
	if !c.started {
		c.started = true
		k, v = c.c.Seek(c.from)
	} else {
		k, v = c.c.Next()
	}
	if k == nil || bytes.Compare(k, c.to) > 0 {
		return nil, nil
	}
	return k, v
}

func (c *boltCursor) Err() error { return nil }

func (c *boltCursor) Close() error { return nil }
