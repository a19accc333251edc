package ykv

import (
	"context"
	"log/slog"
)

const debugLogScans = false

// DocIterator enumerates document names in byte-lexicographic order of their
// encoded keys — not insertion order. It holds a read transaction open until
// Close is called.
type DocIterator struct {
	txn Txn
	cur *boundedCursor
	err error

	name []byte
}

// IterDocs starts an enumeration of all document names.
func (db *DB) IterDocs() (*DocIterator, error) {
	txn, err := db.backend.Begin(false)
	if err != nil {
		return nil, backendErrf(err, "starting read transaction")
	}
	from, to := nameBounds()
	cur, err := newBoundedCursor(txn, from, to)
	if err != nil {
		txn.Rollback()
		return nil, backendErrf(err, "scanning document names")
	}
	return &DocIterator{txn: txn, cur: cur}, nil
}

// Next advances to the next document. Returns false when the enumeration is
// exhausted or fails; check Err afterwards.
func (it *DocIterator) Next() bool {
	if it.err != nil || it.cur == nil {
		return false
	}
	key, _ := it.cur.Next()
	if debugLogScans {
		slog.LogAttrs(context.Background(), slog.LevelDebug, "doc scan", hexAttr("key", key))
	}
	if key == nil {
		it.err = it.cur.Err()
		it.name = nil
		return false
	}
	name, err := docNameFromKey(key)
	if err != nil {
		it.err = err
		it.name = nil
		return false
	}
	it.name = name
	return true
}

// Name returns the current document name. Only valid until the next call to
// Next or Close.
func (it *DocIterator) Name() []byte { return it.name }

func (it *DocIterator) Err() error { return it.err }

// Close releases the cursor and the read transaction.
func (it *DocIterator) Close() error {
	if it.cur != nil {
		it.cur.Close()
		it.cur = nil
	}
	if it.txn != nil {
		err := it.txn.Rollback()
		it.txn = nil
		return err
	}
	return nil
}

// MetaIterator enumerates one document's metadata entries in ascending
// meta-key byte order. It holds a read transaction open until Close.
type MetaIterator struct {
	txn Txn
	cur *boundedCursor
	err error

	key   []byte
	value []byte
}

// IterMeta starts an enumeration of the named document's metadata. For an
// unknown document the iterator is empty, not an error.
func (db *DB) IterMeta(name []byte) (*MetaIterator, error) {
	txn, err := db.backend.Begin(false)
	if err != nil {
		return nil, backendErrf(err, "starting read transaction")
	}
	oid, found, err := lookupOID(txn, name)
	if err != nil {
		txn.Rollback()
		return nil, err
	}
	if !found {
		txn.Rollback()
		return &MetaIterator{}, nil
	}
	from, to := metaBounds(oid)
	cur, err := newBoundedCursor(txn, from, to)
	if err != nil {
		txn.Rollback()
		return nil, backendErrf(err, "scanning metadata of %q", name)
	}
	return &MetaIterator{txn: txn, cur: cur}, nil
}

func (it *MetaIterator) Next() bool {
	if it.err != nil || it.cur == nil {
		return false
	}
	key, value := it.cur.Next()
	if debugLogScans {
		slog.LogAttrs(context.Background(), slog.LevelDebug, "meta scan", hexAttr("key", key), hexAttr("val", value))
	}
	if key == nil {
		it.err = it.cur.Err()
		it.key, it.value = nil, nil
		return false
	}
	mkey, err := metaKeyFromKey(key)
	if err != nil {
		it.err = err
		it.key, it.value = nil, nil
		return false
	}
	it.key, it.value = mkey, value
	return true
}

// Key returns the current meta key. Only valid until the next call to Next
// or Close.
func (it *MetaIterator) Key() []byte { return it.key }

// Value returns the current meta value. Only valid until the next call to
// Next or Close.
func (it *MetaIterator) Value() []byte { return it.value }

func (it *MetaIterator) Err() error { return it.err }

func (it *MetaIterator) Close() error {
	if it.cur != nil {
		it.cur.Close()
		it.cur = nil
	}
	if it.txn != nil {
		err := it.txn.Rollback()
		it.txn = nil
		return err
	}
	return nil
}
