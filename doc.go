/*
Package ykv persists CRDT documents into an embedded ordered key-value store
(Bolt and Badger adapters included; any engine satisfying the Backend
contract works).

We implement:

1. A byte-key codec multiplexing five record kinds — name mappings,
snapshots, state vectors, update-log entries and metadata — into one flat
keyspace, keeping all records of one document in a single contiguous,
range-addressable span.

2. An OID registry substituting a compact 4-byte surrogate for each external
document name, allocated from a persistent monotonic counter.

3. An append-only per-document update log keyed by a monotonically increasing
clock, with explicit compaction (flush) that folds the log into a fresh
snapshot + state vector pair and deletes the consumed entries.

4. A cached state-vector read with a completeness flag: the cache is
authoritative only while the update log is empty, and reads never mutate the
store — a stale cache is reported, not repaired.

5. Bounded, lazy range iteration for document enumeration, metadata
enumeration and log scanning, with a shared defensive upper-bound check for
engines whose range queries overshoot the declared end.

# Technical Details

**Keyspace.**
Every key starts with a version byte and a keyspace byte. The name keyspace
sorts before the document keyspace; bookkeeping records (the OID counter)
live in a third keyspace after both. See keys.go for the exact layout.

**Transactions.**
Each store operation runs inside exactly one backend transaction; the store
holds no locks of its own. Atomicity, isolation and conflict handling are the
backend's job. In particular, creating the same brand-new document from two
overlapping transactions is only safe on backends that serialize writers
(Bolt, the in-memory backend) or abort on write-write conflict (Badger); the
store assumes this, it does not enforce it.

**CRDT collaboration.**
Merge semantics live entirely behind the Engine and Doc interfaces. The store
treats snapshots, updates and state vectors as opaque blobs and relies on
update application being commutative and idempotent — InsertDoc deliberately
leaves stale log entries behind and lets replay idempotency absorb them. The
ytext subpackage ships a small reference engine used by the tests.

**Errors.**
Not-found is a nil result, never an error. Decode and key-parse failures
during load or flush abort the whole operation; nothing is retried
automatically, including backend transaction conflicts.
*/
package ykv
