package ykv

import "bytes"

// Backend is the minimal contract an embedded ordered key-value engine must
// satisfy to host the document store. Implementations adapt an engine's
// native transaction and cursor API; they are expected to either serialize
// writers or abort on write-write conflict (see the package documentation on
// concurrent document creation).
type Backend interface {
	// Begin starts a new transaction.
	Begin(writable bool) (Txn, error)
	// Close closes the underlying engine.
	Close() error
}

// Txn is a single backend transaction. A Txn and every Cursor created from it
// become invalid after Commit or Rollback.
type Txn interface {
	KVStore

	// Commit commits the transaction.
	Commit() error
	// Rollback aborts the transaction. Safe to call after Commit.
	Rollback() error
}

// KVStore is the ordered key-value view the document store operates on.
type KVStore interface {
	// Get retrieves a value by key, nil if not found.
	Get(key []byte) ([]byte, error)

	// Upsert stores a key-value pair and returns the previous value, if any.
	Upsert(key, value []byte) ([]byte, error)

	// Remove deletes a key and returns the previous value, if any.
	Remove(key []byte) ([]byte, error)

	// RemoveRange deletes all keys in [from, to).
	RemoveRange(from, to []byte) error

	// IterRange returns an ascending cursor over keys starting at from
	// (inclusive). The upper bound is advisory: some engines overshoot it,
	// so callers must go through newBoundedCursor instead of trusting the
	// cursor to stop at to.
	IterRange(from, to []byte) (Cursor, error)
}

// Cursor lazily yields ascending key-value entries.
type Cursor interface {
	// Next returns the next entry, or a nil key once exhausted. The returned
	// slices are only valid until the next call or until the transaction ends.
	Next() (key, value []byte)
	// Err reports a backend failure encountered during iteration.
	Err() error
	// Close releases resources held by the cursor.
	Close() error
}

// boundedCursor enforces the upper bound of a range on behalf of backends
// whose range queries do not reliably stop at the declared end. It yields
// entries while key <= to and swallows everything past it.
type boundedCursor struct {
	c  Cursor
	to []byte
}

func newBoundedCursor(kv KVStore, from, to []byte) (*boundedCursor, error) {
	c, err := kv.IterRange(from, to)
	if err != nil {
		return nil, err
	}
	return &boundedCursor{c: c, to: to}, nil
}

func (bc *boundedCursor) Next() (key, value []byte) {
	if bc.c == nil {
		return nil, nil
	}
	key, value = bc.c.Next()
	if key == nil {
		return nil, nil
	}
	if bytes.Compare(key, bc.to) > 0 {
		// The backend overshot the declared end; treat the range as done.
		return nil, nil
	}
	return key, value
}

func (bc *boundedCursor) Err() error {
	if bc.c == nil {
		return nil
	}
	return bc.c.Err()
}

func (bc *boundedCursor) Close() error {
	if bc.c == nil {
		return nil
	}
	err := bc.c.Close()
	bc.c = nil
	return err
}
