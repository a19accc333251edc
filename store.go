package ykv

// DB is the document store facade. It multiplexes CRDT documents — their
// consolidated snapshots, pending update logs and metadata sidecars — into
// the flat keyspace of an ordered key-value backend.
//
// Every public operation runs inside exactly one backend transaction; DB
// itself holds no locks and relies on the backend for atomicity and
// isolation.
type DB struct {
	backend Backend
	engine  Engine
	logf    func(format string, args ...any)
	verbose bool
}

type Options struct {
	// Logf receives human-readable progress messages when Verbose is set.
	Logf    func(format string, args ...any)
	Verbose bool
}

// New wraps a backend and a CRDT engine into a document store. The engine is
// only consulted by operations that materialize documents (LoadDoc via the
// caller's doc, FlushDoc, GetDiff); pure byte-level operations never touch it.
func New(backend Backend, engine Engine, opt Options) *DB {
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &DB{
		backend: backend,
		engine:  engine,
		logf:    logf,
		verbose: opt.Verbose,
	}
}

// Close closes the underlying backend.
func (db *DB) Close() error {
	return db.backend.Close()
}

func (db *DB) read(f func(kv KVStore) error) error {
	txn, err := db.backend.Begin(false)
	if err != nil {
		return backendErrf(err, "starting read transaction")
	}
	defer txn.Rollback()
	return f(txn)
}

func (db *DB) write(f func(kv KVStore) error) error {
	txn, err := db.backend.Begin(true)
	if err != nil {
		return backendErrf(err, "starting write transaction")
	}
	err = f(txn)
	if err != nil {
		txn.Rollback()
		return err
	}
	if err := txn.Commit(); err != nil {
		return backendErrf(err, "committing")
	}
	return nil
}

// LoadResult reports what LoadDoc found in the store.
type LoadResult struct {
	// Loaded is true if at least one record was applied to the document.
	Loaded bool
	// Snapshot is true if a consolidated snapshot was among them.
	Snapshot bool
	// Updates is the number of pending update-log entries replayed.
	Updates int
}

// InsertDoc overwrites the stored state of a document with an
// independently-computed full state and its state vector, bypassing the
// update log. The blobs must come from the same logical point of the
// document: the pair is written atomically and the state vector is treated
// as authoritative for the snapshot next to it.
//
// Pre-existing update-log entries are intentionally left in place. They are
// harmless: update application is idempotent, so the next load absorbs them
// as wasted work rather than corruption, and the next flush folds them away.
func (db *DB) InsertDoc(name, fullState, stateVector []byte) error {
	return db.write(func(kv KVStore) error {
		oid, err := getOrCreateOID(kv, name)
		if err != nil {
			return err
		}
		return insertInner(kv, oid, fullState, stateVector)
	})
}

func insertInner(kv KVStore, oid OID, fullState, stateVector []byte) error {
	if _, err := kv.Upsert(keySnapshot(oid), fullState); err != nil {
		return backendErrf(err, "storing snapshot of OID %d", oid)
	}
	if _, err := kv.Upsert(keyStateVector(oid), stateVector); err != nil {
		return backendErrf(err, "storing state vector of OID %d", oid)
	}
	return nil
}

// LoadDoc materializes the stored state of the named document into doc:
// the snapshot first, if any, then every pending update in clock order.
// A decode failure aborts the load; partially-applied silently-lossy state is
// worse than a hard error.
func (db *DB) LoadDoc(name []byte, doc Doc) (LoadResult, error) {
	var res LoadResult
	err := db.read(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil || !found {
			return err
		}
		res, err = loadDoc(kv, oid, doc)
		return err
	})
	return res, err
}

func loadDoc(kv KVStore, oid OID, doc Doc) (LoadResult, error) {
	var res LoadResult

	snapshotKey := keySnapshot(oid)
	snapshot, err := kv.Get(snapshotKey)
	if err != nil {
		return res, backendErrf(err, "reading snapshot of OID %d", oid)
	}
	if snapshot != nil {
		if err := doc.ApplyUpdate(snapshot); err != nil {
			return res, decodeErrf("snapshot", snapshotKey, err)
		}
		res.Loaded = true
		res.Snapshot = true
	}

	err = scanUpdates(kv, oid, func(clock uint32, update []byte) error {
		if err := doc.ApplyUpdate(update); err != nil {
			return decodeErrf("update", keyUpdate(oid, clock), err)
		}
		res.Loaded = true
		res.Updates++
		return nil
	})
	return res, err
}

// FlushDoc folds the document's snapshot and pending update log into a new
// snapshot + state vector pair and deletes the consumed log entries. This is
// the store's compaction step: it turns an unbounded append-only log into a
// bounded two-record representation. Returns the merged document, or nil if
// the document has no stored records.
//
// Flush never runs implicitly on writes; callers pick the cadence (say, every
// Nth pushed update).
func (db *DB) FlushDoc(name []byte) (Doc, error) {
	var merged Doc
	err := db.write(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil || !found {
			return err
		}
		merged, err = flushDoc(kv, db.engine, oid)
		return err
	})
	return merged, err
}

func flushDoc(kv KVStore, engine Engine, oid OID) (Doc, error) {
	doc := engine.NewDoc()
	res, err := loadDoc(kv, oid, doc)
	if err != nil {
		return nil, err
	}
	if !res.Loaded {
		return nil, nil
	}

	fullState, err := doc.DiffUpdate(nil)
	if err != nil {
		return nil, decodeErrf("snapshot", keySnapshot(oid), err)
	}
	stateVector, err := doc.StateVector()
	if err != nil {
		return nil, decodeErrf("state vector", keyStateVector(oid), err)
	}
	if err := insertInner(kv, oid, fullState, stateVector); err != nil {
		return nil, err
	}
	if err := clearUpdates(kv, oid); err != nil {
		return nil, err
	}
	return doc, nil
}

// PushUpdate appends a CRDT update blob to the named document's log and
// returns the clock it was stored under. Creates the document on first use.
func (db *DB) PushUpdate(name, update []byte) (uint32, error) {
	var clock uint32
	err := db.write(func(kv KVStore) error {
		oid, err := getOrCreateOID(kv, name)
		if err != nil {
			return err
		}
		clock, err = pushUpdate(kv, oid, update)
		return err
	})
	return clock, err
}

// StateVector returns the cached state vector of the named document. The
// cached value is authoritative only while the update log is empty; with
// pending updates the cache is stale and StateVector returns (nil, false)
// instead. A false completeness flag is a signal, not an error: the caller
// decides whether to flush and re-read. Reads never mutate the store.
func (db *DB) StateVector(name []byte) (sv []byte, complete bool, err error) {
	err = db.read(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil {
			return err
		}
		if !found {
			complete = true
			return nil
		}
		pending, err := hasUpdates(kv, oid)
		if err != nil {
			return err
		}
		if pending {
			return nil
		}
		complete = true
		value, err := kv.Get(keyStateVector(oid))
		if err != nil {
			return backendErrf(err, "reading state vector of OID %d", oid)
		}
		if value != nil {
			sv = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sv, complete, nil
}

// GetDiff encodes the changes of the named document that are not yet covered
// by the given state vector. Returns nil if the document does not exist.
func (db *DB) GetDiff(name, stateVector []byte) ([]byte, error) {
	doc := db.engine.NewDoc()
	var loaded bool
	err := db.read(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil || !found {
			return err
		}
		res, err := loadDoc(kv, oid, doc)
		if err != nil {
			return err
		}
		loaded = res.Loaded
		return nil
	})
	if err != nil || !loaded {
		return nil, err
	}
	diff, err := doc.DiffUpdate(stateVector)
	if err != nil {
		return nil, decodeErrf("state vector", nil, err)
	}
	return diff, nil
}

// ClearDoc removes the named document entirely: the name mapping, snapshot,
// state vector, update log and all metadata. A no-op if the document does
// not exist. The freed OID is never reassigned.
func (db *DB) ClearDoc(name []byte) error {
	return db.write(func(kv KVStore) error {
		value, err := kv.Remove(keyName(name))
		if err != nil {
			return backendErrf(err, "removing name mapping for %q", name)
		}
		if value == nil {
			return nil
		}
		oid, err := oidFromValue(value)
		if err != nil {
			return err
		}

		// All records of one document live within docBounds. Collect the keys
		// through the bounded cursor (which re-checks every visited key
		// against the upper bound) and delete them afterwards; deleting under
		// a live cursor is undefined on some engines.
		from, to := docBounds(oid)
		cur, err := newBoundedCursor(kv, from, to)
		if err != nil {
			return backendErrf(err, "scanning records of OID %d", oid)
		}
		var keys [][]byte
		for key, _ := cur.Next(); key != nil; key, _ = cur.Next() {
			keys = append(keys, append([]byte(nil), key...))
		}
		scanErr := cur.Err()
		cur.Close()
		if scanErr != nil {
			return backendErrf(scanErr, "scanning records of OID %d", oid)
		}

		for _, key := range keys {
			if _, err := kv.Remove(key); err != nil {
				return backendErrf(err, "removing record %s", hexstr(key))
			}
		}
		if db.verbose {
			db.logf("ykv: cleared document %q (OID %d, %d records)", name, oid, len(keys))
		}
		return nil
	})
}
