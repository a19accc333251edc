package ykv

// lookupOID resolves a document name to its OID, nil result if the document
// does not exist.
func lookupOID(kv KVStore, name []byte) (OID, bool, error) {
	value, err := kv.Get(keyName(name))
	if err != nil {
		return 0, false, backendErrf(err, "looking up document %q", name)
	}
	if value == nil {
		return 0, false, nil
	}
	oid, err := oidFromValue(value)
	if err != nil {
		return 0, false, err
	}
	return oid, true, nil
}

// getOrCreateOID resolves a document name, allocating a fresh OID on first
// write reference. Allocation reads and bumps a dedicated counter record in
// the same transaction as the name mapping, so OIDs stay dense and monotonic
// regardless of the byte order in which names arrive.
//
// The read-then-write sequence is only safe if the backend serializes writers
// or aborts on write-write conflict; two overlapping transactions creating
// the same brand-new name could otherwise assign it two different OIDs.
func getOrCreateOID(kv KVStore, name []byte) (OID, error) {
	oid, found, err := lookupOID(kv, name)
	if err != nil {
		return 0, err
	}
	if found {
		return oid, nil
	}

	counterKey := keyOIDCounter()
	value, err := kv.Get(counterKey)
	if err != nil {
		return 0, backendErrf(err, "reading OID counter")
	}
	var next OID
	if value != nil {
		next, err = oidFromValue(value)
		if err != nil {
			return 0, err
		}
	}

	if _, err := kv.Upsert(counterKey, oidValue(next+1)); err != nil {
		return 0, backendErrf(err, "advancing OID counter")
	}
	if _, err := kv.Upsert(keyName(name), oidValue(next)); err != nil {
		return 0, backendErrf(err, "storing name mapping for %q", name)
	}
	return next, nil
}
