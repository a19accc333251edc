package ykv

import "math"

const maxClock = math.MaxUint32

// lastClock returns the clock of the newest update-log entry for oid, or 0 if
// the log is empty. The backend contract only guarantees a bounded forward
// scan, so this exhausts the range; cost is proportional to the log length
// until the next flush. Engines with a cheap reverse-seek could do better,
// but that is an adapter-level optimization, not something this layer
// requires.
func lastClock(kv KVStore, oid OID) (uint32, error) {
	from, to := updateBounds(oid)
	cur, err := newBoundedCursor(kv, from, to)
	if err != nil {
		return 0, backendErrf(err, "scanning update log of OID %d", oid)
	}
	defer cur.Close()

	var last []byte
	for key, _ := cur.Next(); key != nil; key, _ = cur.Next() {
		last = key
	}
	if err := cur.Err(); err != nil {
		return 0, backendErrf(err, "scanning update log of OID %d", oid)
	}
	if last == nil {
		return 0, nil
	}
	return clockFromKey(last)
}

// pushUpdate appends an update blob to the document's log under the next
// clock and returns that clock. Clocks start at 1.
func pushUpdate(kv KVStore, oid OID, update []byte) (uint32, error) {
	last, err := lastClock(kv, oid)
	if err != nil {
		return 0, err
	}
	if last == maxClock {
		return 0, ErrClockOverflow
	}
	clock := last + 1
	if _, err := kv.Upsert(keyUpdate(oid, clock), update); err != nil {
		return 0, backendErrf(err, "storing update %d of OID %d", clock, oid)
	}
	return clock, nil
}

// scanUpdates walks the document's update log in ascending clock order.
func scanUpdates(kv KVStore, oid OID, fn func(clock uint32, update []byte) error) error {
	from, to := updateBounds(oid)
	cur, err := newBoundedCursor(kv, from, to)
	if err != nil {
		return backendErrf(err, "scanning update log of OID %d", oid)
	}
	defer cur.Close()

	for key, value := cur.Next(); key != nil; key, value = cur.Next() {
		clock, err := clockFromKey(key)
		if err != nil {
			return err
		}
		if err := fn(clock, value); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return backendErrf(err, "scanning update log of OID %d", oid)
	}
	return nil
}

// hasUpdates probes the update log for existence without scanning it.
func hasUpdates(kv KVStore, oid OID) (bool, error) {
	from, to := updateBounds(oid)
	cur, err := newBoundedCursor(kv, from, to)
	if err != nil {
		return false, backendErrf(err, "probing update log of OID %d", oid)
	}
	defer cur.Close()

	key, _ := cur.Next()
	if err := cur.Err(); err != nil {
		return false, backendErrf(err, "probing update log of OID %d", oid)
	}
	return key != nil, nil
}

// clearUpdates removes the document's entire update log. Only flush calls
// this, after the log's contents have been folded into a new snapshot.
func clearUpdates(kv KVStore, oid OID) error {
	from, _ := updateBounds(oid)
	// [from, to) with the successor of the subtype prefix as the end covers
	// the whole clock range, including an entry at the maximum clock.
	to := keyDocPrefix(oid, subUpdate, 0)
	inc(to)
	if err := kv.RemoveRange(from, to); err != nil {
		return backendErrf(err, "clearing update log of OID %d", oid)
	}
	return nil
}
