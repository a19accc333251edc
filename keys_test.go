package ykv

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestKeyLayout(t *testing.T) {
	if got := keyName([]byte("doc")); !reflect.DeepEqual(got, []byte{0, 0, 'd', 'o', 'c', 0}) {
		t.Fatalf("keyName = %x", got)
	}
	if got := keySnapshot(7); !reflect.DeepEqual(got, []byte{0, 1, 0, 0, 0, 7, 1, 0}) {
		t.Fatalf("keySnapshot = %x", got)
	}
	if got := keyStateVector(7); !reflect.DeepEqual(got, []byte{0, 1, 0, 0, 0, 7, 2, 0}) {
		t.Fatalf("keyStateVector = %x", got)
	}
	if got := keyUpdate(7, 0x01020304); !reflect.DeepEqual(got, []byte{0, 1, 0, 0, 0, 7, 3, 1, 2, 3, 4, 0}) {
		t.Fatalf("keyUpdate = %x", got)
	}
	if got := keyMeta(7, []byte("k")); !reflect.DeepEqual(got, []byte{0, 1, 0, 0, 0, 7, 4, 'k', 0}) {
		t.Fatalf("keyMeta = %x", got)
	}
}

func TestKeyParsers(t *testing.T) {
	name, err := docNameFromKey(keyName([]byte("some document")))
	if err != nil || string(name) != "some document" {
		t.Fatalf("docNameFromKey = (%q, %v)", name, err)
	}

	mkey, err := metaKeyFromKey(keyMeta(42, []byte("created-at")))
	if err != nil || string(mkey) != "created-at" {
		t.Fatalf("metaKeyFromKey = (%q, %v)", mkey, err)
	}

	clock, err := clockFromKey(keyUpdate(42, 0xDEADBEEF))
	if err != nil || clock != 0xDEADBEEF {
		t.Fatalf("clockFromKey = (%x, %v)", clock, err)
	}

	oid, err := oidFromValue(oidValue(0xCAFE))
	if err != nil || oid != 0xCAFE {
		t.Fatalf("oidFromValue = (%x, %v)", oid, err)
	}
}

func TestKeyParseErrors(t *testing.T) {
	var kpe *KeyParseError

	if _, err := docNameFromKey(keySnapshot(1)); !errors.As(err, &kpe) {
		t.Fatalf("docNameFromKey(snapshot key) err = %v, wanted KeyParseError", err)
	}
	if _, err := metaKeyFromKey(keyUpdate(1, 1)); !errors.As(err, &kpe) {
		t.Fatalf("metaKeyFromKey(update key) err = %v, wanted KeyParseError", err)
	}
	if _, err := clockFromKey(keyMeta(1, []byte("x"))); !errors.As(err, &kpe) {
		t.Fatalf("clockFromKey(meta key) err = %v, wanted KeyParseError", err)
	}
	if _, err := oidFromValue([]byte{1, 2}); !errors.As(err, &kpe) {
		t.Fatalf("oidFromValue(short) err = %v, wanted KeyParseError", err)
	}
}

func TestKeyOrdering(t *testing.T) {
	// Names sort entirely before document records.
	nameKey := keyName(bytes.Repeat([]byte{0xFF}, 8))
	if bytes.Compare(nameKey, keySnapshot(0)) >= 0 {
		t.Fatalf("name key %x should sort before snapshot key %x", nameKey, keySnapshot(0))
	}

	// Updates sort by clock, ascending, within one OID.
	if bytes.Compare(keyUpdate(5, 1), keyUpdate(5, 2)) >= 0 {
		t.Fatalf("update keys out of clock order")
	}
	if bytes.Compare(keyUpdate(5, 0xFFFFFFFF), keyUpdate(6, 0)) >= 0 {
		t.Fatalf("OID 5 update should sort before OID 6 update")
	}

	// The OID counter sorts after both namespaces and outside enumeration.
	_, nameEnd := nameBounds()
	if bytes.Compare(keyOIDCounter(), nameEnd) < 0 {
		t.Fatalf("OID counter key %x must not fall into the name namespace", keyOIDCounter())
	}
}

func TestDocBoundsContainment(t *testing.T) {
	const oid = 123
	from, to := docBounds(oid)

	inside := [][]byte{
		keySnapshot(oid),
		keyStateVector(oid),
		keyUpdate(oid, 0),
		keyUpdate(oid, 0xFFFFFFFF),
		keyMeta(oid, nil),
		keyMeta(oid, bytes.Repeat([]byte{0xFF}, 16)),
	}
	for _, key := range inside {
		if bytes.Compare(key, from) < 0 || bytes.Compare(key, to) > 0 {
			t.Errorf("key %x outside docBounds [%x, %x]", key, from, to)
		}
	}

	outside := [][]byte{
		keyName([]byte("doc")),
		keySnapshot(oid - 1),
		keySnapshot(oid + 1),
		keyUpdate(oid+1, 0),
		keyOIDCounter(),
	}
	for _, key := range outside {
		if bytes.Compare(key, from) >= 0 && bytes.Compare(key, to) <= 0 {
			t.Errorf("key %x unexpectedly inside docBounds of OID %d", key, oid)
		}
	}
}

func TestUpdateAndMetaBounds(t *testing.T) {
	const oid = 9
	from, to := updateBounds(oid)
	if bytes.Compare(keyUpdate(oid, 0), from) < 0 || bytes.Compare(keyUpdate(oid, 0xFFFFFFFF), to) > 0 {
		t.Fatalf("update keys escape updateBounds")
	}
	if key := keySnapshot(oid); bytes.Compare(key, from) >= 0 && bytes.Compare(key, to) <= 0 {
		t.Fatalf("snapshot key inside updateBounds")
	}

	mfrom, mto := metaBounds(oid)
	if key := keyMeta(oid, []byte("zzz")); bytes.Compare(key, mfrom) < 0 || bytes.Compare(key, mto) > 0 {
		t.Fatalf("meta key escapes metaBounds")
	}
	if key := keyUpdate(oid, 0xFFFFFFFF); bytes.Compare(key, mfrom) >= 0 {
		t.Fatalf("update key inside metaBounds")
	}
	if key := keyMeta(oid+1, nil); bytes.Compare(key, mto) <= 0 {
		t.Fatalf("next OID's meta key inside metaBounds")
	}
}
