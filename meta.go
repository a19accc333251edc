package ykv

// Metadata entries form a per-document key-value sidecar with last-write-wins
// semantics, independent of the document's CRDT state. They live in the same
// OID-bounded key range as the rest of the document's records, so ClearDoc
// removes them too.

// GetMeta retrieves a metadata value, nil if the document or key is absent.
func (db *DB) GetMeta(name, metaKey []byte) ([]byte, error) {
	var value []byte
	err := db.read(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil || !found {
			return err
		}
		v, err := kv.Get(keyMeta(oid, metaKey))
		if err != nil {
			return backendErrf(err, "reading metadata %q of %q", metaKey, name)
		}
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, err
}

// PutMeta stores a metadata value, creating the document's OID if needed, and
// returns the previous value, if any.
func (db *DB) PutMeta(name, metaKey, value []byte) ([]byte, error) {
	var prev []byte
	err := db.write(func(kv KVStore) error {
		oid, err := getOrCreateOID(kv, name)
		if err != nil {
			return err
		}
		p, err := kv.Upsert(keyMeta(oid, metaKey), value)
		if err != nil {
			return backendErrf(err, "storing metadata %q of %q", metaKey, name)
		}
		if p != nil {
			prev = append([]byte(nil), p...)
		}
		return nil
	})
	return prev, err
}

// RemoveMeta deletes a metadata entry and returns the previous value. A no-op
// returning nil if the document or key is absent.
func (db *DB) RemoveMeta(name, metaKey []byte) ([]byte, error) {
	var prev []byte
	err := db.write(func(kv KVStore) error {
		oid, found, err := lookupOID(kv, name)
		if err != nil || !found {
			return err
		}
		p, err := kv.Remove(keyMeta(oid, metaKey))
		if err != nil {
			return backendErrf(err, "removing metadata %q of %q", metaKey, name)
		}
		if p != nil {
			prev = append([]byte(nil), p...)
		}
		return nil
	})
	return prev, err
}
