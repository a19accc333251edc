// Package ytext provides a small reference CRDT engine for the ykv document
// store: an append-run text CRDT in which every client contributes an ordered
// stream of text runs, and concurrent streams merge deterministically in
// (client, seq) order.
//
// Updates are commutative and idempotent under replay, which is exactly the
// precondition ykv places on its CRDT collaborator. The package exists to
// exercise and demonstrate the store; production deployments are expected to
// plug in a full CRDT runtime instead.
package ytext

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/ykv"
)

// Engine builds empty documents for the store's flush and diff paths.
type Engine struct{}

func (Engine) NewDoc() ykv.Doc { return NewDoc() }

// Doc is a mergeable append-run text document. The zero client ID is
// reserved for replica documents that only replay remote updates; use
// NewClientDoc to author local runs.
//
// Doc is not safe for concurrent use.
type Doc struct {
	clientID uint64
	runs     map[uint64]map[uint32]string // client -> seq -> text
	last     map[uint64]uint32            // client -> max seq seen
}

var _ ykv.Doc = (*Doc)(nil)

// NewDoc returns an empty replica document.
func NewDoc() *Doc {
	return &Doc{
		runs: make(map[uint64]map[uint32]string),
		last: make(map[uint64]uint32),
	}
}

// NewClientDoc returns an empty document that authors runs as the given
// client. The client ID must be non-zero and unique among writers.
func NewClientDoc(clientID uint64) *Doc {
	if clientID == 0 {
		panic("ytext: client ID must be non-zero")
	}
	d := NewDoc()
	d.clientID = clientID
	return d
}

type run struct {
	Client uint64 `msgpack:"c"`
	Seq    uint32 `msgpack:"s"`
	Text   string `msgpack:"t"`
}

type updatePayload struct {
	Runs []run `msgpack:"r"`
}

type svEntry struct {
	Client uint64 `msgpack:"c"`
	Seq    uint32 `msgpack:"s"`
}

// Append authors a new run as this document's client, applies it locally and
// returns it as an encoded update — the analogue of a CRDT runtime's
// update-observer payload, ready for ykv.DB.PushUpdate.
func (d *Doc) Append(text string) []byte {
	if d.clientID == 0 {
		panic("ytext: replica documents cannot author runs, use NewClientDoc")
	}
	seq := d.last[d.clientID] + 1
	d.insert(run{Client: d.clientID, Seq: seq, Text: text})
	update, err := msgpack.Marshal(&updatePayload{Runs: []run{{Client: d.clientID, Seq: seq, Text: text}}})
	if err != nil {
		panic(err) // fixed payload shape, cannot fail
	}
	return update
}

func (d *Doc) insert(r run) {
	seqs := d.runs[r.Client]
	if seqs == nil {
		seqs = make(map[uint32]string)
		d.runs[r.Client] = seqs
	}
	if _, exists := seqs[r.Seq]; exists {
		return // idempotent replay
	}
	seqs[r.Seq] = r.Text
	if r.Seq > d.last[r.Client] {
		d.last[r.Client] = r.Seq
	}
}

// ApplyUpdate merges an encoded update into the document. Replaying runs the
// document already holds is a no-op.
func (d *Doc) ApplyUpdate(update []byte) error {
	var payload updatePayload
	if err := msgpack.Unmarshal(update, &payload); err != nil {
		return fmt.Errorf("ytext: decoding update: %w", err)
	}
	for _, r := range payload.Runs {
		if r.Client == 0 {
			return fmt.Errorf("ytext: update contains run with zero client ID")
		}
		d.insert(r)
	}
	return nil
}

// DiffUpdate encodes every run not yet covered by the given state vector as
// one update, in deterministic (client, seq) order. A nil or empty state
// vector encodes the full document state.
func (d *Doc) DiffUpdate(stateVector []byte) ([]byte, error) {
	seen, err := decodeStateVector(stateVector)
	if err != nil {
		return nil, err
	}
	var runs []run
	for client, seqs := range d.runs {
		for seq, text := range seqs {
			if seq > seen[client] {
				runs = append(runs, run{Client: client, Seq: seq, Text: text})
			}
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Client != runs[j].Client {
			return runs[i].Client < runs[j].Client
		}
		return runs[i].Seq < runs[j].Seq
	})
	return msgpack.Marshal(&updatePayload{Runs: runs})
}

// StateVector encodes the maximum seq this document holds per client, in
// deterministic client order.
func (d *Doc) StateVector() ([]byte, error) {
	entries := make([]svEntry, 0, len(d.last))
	for client, seq := range d.last {
		entries = append(entries, svEntry{Client: client, Seq: seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Client < entries[j].Client })
	return msgpack.Marshal(entries)
}

func decodeStateVector(stateVector []byte) (map[uint64]uint32, error) {
	seen := make(map[uint64]uint32)
	if len(stateVector) == 0 {
		return seen, nil
	}
	var entries []svEntry
	if err := msgpack.Unmarshal(stateVector, &entries); err != nil {
		return nil, fmt.Errorf("ytext: decoding state vector: %w", err)
	}
	for _, e := range entries {
		seen[e.Client] = e.Seq
	}
	return seen, nil
}

// Text renders the merged document: clients in ascending ID order, each
// client's runs in seq order.
func (d *Doc) Text() string {
	clients := make([]uint64, 0, len(d.runs))
	for client := range d.runs {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	var out []byte
	for _, client := range clients {
		seqs := d.runs[client]
		for seq := uint32(1); seq <= d.last[client]; seq++ {
			if text, ok := seqs[seq]; ok {
				out = append(out, text...)
			}
		}
	}
	return string(out)
}
