package ykv

import (
	"errors"
	"fmt"
)

// ErrClockOverflow is returned by PushUpdate when the next update clock would
// not fit into 32 bits. Flushing the document empties the log and resets the
// clock, after which pushes succeed again.
var ErrClockOverflow = errors.New("ykv: update clock exhausted, flush the document")

// KeyParseError indicates that a stored key or value does not match the fixed
// layout expected for its namespace, which means data corruption or a codec
// mismatch. Load and flush fail stop on it rather than skipping the record.
type KeyParseError struct {
	Data []byte
	Off  int
	Msg  string
}

func keyParseErrf(data []byte, off int, format string, args ...any) error {
	return &KeyParseError{Data: data, Off: off, Msg: fmt.Sprintf(format, args...)}
}

func (e *KeyParseError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		return fmt.Sprintf("ykv: %s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
	}
	p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
	return fmt.Sprintf("ykv: %s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
}

// DecodeError wraps a CRDT engine failure to decode or apply a stored
// snapshot, update or state vector blob.
type DecodeError struct {
	Record string // "snapshot", "update", "state vector"
	Key    []byte
	Err    error
}

func decodeErrf(record string, key []byte, err error) error {
	return &DecodeError{Record: record, Key: key, Err: err}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ykv: decoding %s at key %s: %v", e.Record, hexstr(e.Key), e.Err)
}

// backendErrf wraps an opaque backend failure. Not-found conditions never
// take this path; they are nil results.
func backendErrf(err error, format string, args ...any) error {
	return fmt.Errorf("ykv: "+format+": %w", append(args, err)...)
}
