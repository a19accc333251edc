package ykv

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"sync"
)

type memBackend struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []memKV // sorted by key
	closed bool
	writer bool
}

// NewMemBackend returns a transient in-memory Backend intended for tests.
// Write transactions copy the whole keyspace for isolation (simplicity over
// efficiency) and are serialized, so the concurrent-creation caveat of
// GetOrCreateOID does not apply to it.
func NewMemBackend() Backend {
	s := &memBackend{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

type memKV struct {
	key   []byte
	value []byte
}

func (s *memBackend) Begin(writable bool) (Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("backend closed")
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, fmt.Errorf("backend closed")
		}
		s.writer = true
	}

	snap := make([]memKV, len(s.items))
	for i, kv := range s.items {
		snap[i] = memKV{key: slices.Clone(kv.key), value: slices.Clone(kv.value)}
	}
	return &memTxn{base: s, writable: writable, items: snap}, nil
}

func (s *memBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

type memTxn struct {
	base     *memBackend
	writable bool
	items    []memKV
	closed   bool
}

func (tx *memTxn) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTxn) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("txn not writable")
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return fmt.Errorf("backend closed")
	}
	tx.base.items = tx.items
	tx.closeLocked()
	return nil
}

func (tx *memTxn) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

func (tx *memTxn) find(key []byte) (idx int, ok bool) {
	i := sort.Search(len(tx.items), func(i int) bool {
		return bytes.Compare(tx.items[i].key, key) >= 0
	})
	if i < len(tx.items) && bytes.Equal(tx.items[i].key, key) {
		return i, true
	}
	return i, false
}

func (tx *memTxn) Get(key []byte) ([]byte, error) {
	if tx.closed {
		panic("txn is closed")
	}
	i, ok := tx.find(key)
	if !ok {
		return nil, nil
	}
	return tx.items[i].value, nil
}

func (tx *memTxn) Upsert(key, value []byte) ([]byte, error) {
	if tx.closed {
		panic("txn is closed")
	}
	if !tx.writable {
		return nil, fmt.Errorf("txn not writable")
	}
	key = slices.Clone(key)
	value = slices.Clone(value)

	i, ok := tx.find(key)
	if ok {
		prev := tx.items[i].value
		tx.items[i].value = value
		return prev, nil
	}
	tx.items = slices.Insert(tx.items, i, memKV{key: key, value: value})
	return nil, nil
}

func (tx *memTxn) Remove(key []byte) ([]byte, error) {
	if tx.closed {
		panic("txn is closed")
	}
	if !tx.writable {
		return nil, fmt.Errorf("txn not writable")
	}
	i, ok := tx.find(key)
	if !ok {
		return nil, nil
	}
	prev := tx.items[i].value
	tx.items = slices.Delete(tx.items, i, i+1)
	return prev, nil
}

func (tx *memTxn) RemoveRange(from, to []byte) error {
	if tx.closed {
		panic("txn is closed")
	}
	if !tx.writable {
		return fmt.Errorf("txn not writable")
	}
	lo, _ := tx.find(from)
	hi, _ := tx.find(to)
	tx.items = slices.Delete(tx.items, lo, hi)
	return nil
}

// IterRange honors from but deliberately ignores to, exactly like the
// engines whose range queries overshoot the declared end. That keeps the
// defensive upper-bound check in newBoundedCursor honest in tests.
func (tx *memTxn) IterRange(from, to []byte) (Cursor, error) {
	if tx.closed {
		panic("txn is closed")
	}
	lo, _ := tx.find(from)
	return &memCursor{tx: tx, pos: lo - 1}, nil
}

type memCursor struct {
	tx  *memTxn
	pos int
}

func (c *memCursor) Next() (key, value []byte) {
	c.pos++
	if c.pos >= len(c.tx.items) {
		return nil, nil
	}
	kv := c.tx.items[c.pos]
	return kv.key, kv.value
}

func (c *memCursor) Err() error { return nil }

func (c *memCursor) Close() error { return nil }
