package ykv

// Engine is the CRDT runtime the store delegates merge semantics to. The
// store never inspects update, snapshot or state vector blobs; it only moves
// them between the engine and the backend.
type Engine interface {
	// NewDoc creates a fresh, empty document.
	NewDoc() Doc
}

// Doc is a single CRDT document instance.
//
// The store relies on ApplyUpdate being commutative and idempotent: replaying
// an update whose changes are already reflected in the document must be a
// no-op, not a corruption. This is a hard precondition — InsertDoc
// deliberately leaves stale update-log entries behind and counts on replay
// idempotency to absorb them on the next load.
type Doc interface {
	// ApplyUpdate decodes an encoded update and applies it to the document.
	ApplyUpdate(update []byte) error

	// DiffUpdate encodes the changes not yet reflected in the given state
	// vector as a single update. A nil or empty state vector encodes the
	// full document state.
	DiffUpdate(stateVector []byte) ([]byte, error)

	// StateVector encodes a summary of which changes, per writer, are
	// reflected in the document.
	StateVector() ([]byte, error)
}
