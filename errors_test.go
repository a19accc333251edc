package ykv

import (
	"errors"
	"strings"
	"testing"
)

func TestKeyParseError(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		err := keyParseErrf([]byte{0xAA, 0xBB}, 1, "oops")
		var kpe *KeyParseError
		if !errors.As(err, &kpe) {
			t.Fatalf("err = %T, wanted *KeyParseError", err)
		}
		s := err.Error()
		if !strings.Contains(s, "oops") || !strings.Contains(s, "(2)") || !strings.Contains(s, "aabb") {
			t.Fatalf("err.Error() = %q, wanted message with oops/(2)/aabb", s)
		}
	})

	t.Run("large data is truncated", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		s := keyParseErrf(data, 0, "oops").Error()
		if !strings.Contains(s, "...") || !strings.Contains(s, "(200)") {
			t.Fatalf("err.Error() = %q, wanted truncated hex with (200)", s)
		}
	})
}

func TestDecodeError(t *testing.T) {
	inner := errors.New("bad varint")
	err := decodeErrf("snapshot", keySnapshot(1), inner)
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, wanted true")
	}
	s := err.Error()
	if !strings.Contains(s, "snapshot") || !strings.Contains(s, "bad varint") {
		t.Fatalf("err.Error() = %q, wanted message with snapshot/bad varint", s)
	}
}
