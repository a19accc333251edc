package ykv

import "encoding/binary"

// OID is a compact internal surrogate assigned to a document name. It is
// allocated once per live name and never reused while the mapping exists.
type OID uint32

// Keyspace layout, version 1. Every key starts with a version byte followed
// by a keyspace byte. The name keyspace sorts entirely before the document
// keyspace, and the system keyspace (bookkeeping records that must never show
// up in enumeration) sorts after both.
//
// Name key:      [keyV1, keyspaceName, name..., keyTerm]        -> OID (4B BE)
// Snapshot key:  [keyV1, keyspaceDoc, oid:4, subSnapshot, keyTerm]
// State vector:  [keyV1, keyspaceDoc, oid:4, subStateVec, keyTerm]
// Update key:    [keyV1, keyspaceDoc, oid:4, subUpdate, clock:4, keyTerm]
// Metadata key:  [keyV1, keyspaceDoc, oid:4, subMeta, mkey..., keyTerm]
// OID counter:   [keyV1, keyspaceSys, keyTerm]                  -> next OID (4B BE)
const (
	keyV1 = 0x00

	keyspaceName = 0x00
	keyspaceDoc  = 0x01
	keyspaceSys  = 0x02

	subSnapshot = 0x01
	subStateVec = 0x02
	subUpdate   = 0x03
	subMeta     = 0x04

	keyTerm = 0x00
)

// docPrefixLen is the fixed width shared by all document-keyspace keys:
// version, keyspace, OID, subtype.
const docPrefixLen = 2 + 4 + 1

func keyName(name []byte) []byte {
	key := make([]byte, 0, 2+len(name)+1)
	key = append(key, keyV1, keyspaceName)
	key = appendRaw(key, name)
	return append(key, keyTerm)
}

func keyDocPrefix(oid OID, subtype byte, extra int) []byte {
	key := make([]byte, 0, docPrefixLen+extra)
	key = append(key, keyV1, keyspaceDoc)
	key = binary.BigEndian.AppendUint32(key, uint32(oid))
	return append(key, subtype)
}

func keySnapshot(oid OID) []byte {
	return append(keyDocPrefix(oid, subSnapshot, 1), keyTerm)
}

func keyStateVector(oid OID) []byte {
	return append(keyDocPrefix(oid, subStateVec, 1), keyTerm)
}

func keyUpdate(oid OID, clock uint32) []byte {
	key := keyDocPrefix(oid, subUpdate, 5)
	key = binary.BigEndian.AppendUint32(key, clock)
	return append(key, keyTerm)
}

func keyMeta(oid OID, mkey []byte) []byte {
	key := keyDocPrefix(oid, subMeta, len(mkey)+1)
	key = appendRaw(key, mkey)
	return append(key, keyTerm)
}

func keyOIDCounter() []byte {
	return []byte{keyV1, keyspaceSys, keyTerm}
}

// nameBounds spans the entire name keyspace. The upper bound is the first
// byte of the document keyspace, a prefix no real key can be equal to.
func nameBounds() (from, to []byte) {
	return []byte{keyV1, keyspaceName}, []byte{keyV1, keyspaceDoc}
}

// docBounds spans every record belonging to one OID, across all subtypes.
func docBounds(oid OID) (from, to []byte) {
	return keyDocPrefix(oid, 0x00, 0), keyDocPrefix(oid, 0xFF, 0)
}

// updateBounds spans clocks [0, MaxUint32] for one OID.
func updateBounds(oid OID) (from, to []byte) {
	return keyUpdate(oid, 0), keyUpdate(oid, maxClock)
}

// metaBounds spans all metadata keys for one OID. Both ends are prefix-only
// keys: real metadata keys carry at least the terminator after the subtype.
func metaBounds(oid OID) (from, to []byte) {
	return keyDocPrefix(oid, subMeta, 0), keyDocPrefix(oid, subMeta+1, 0)
}

// docNameFromKey extracts the document name from a name-keyspace key.
func docNameFromKey(key []byte) ([]byte, error) {
	if len(key) < 3 || key[0] != keyV1 || key[1] != keyspaceName {
		return nil, keyParseErrf(key, 0, "not a document name key")
	}
	if key[len(key)-1] != keyTerm {
		return nil, keyParseErrf(key, len(key)-1, "name key is missing terminator")
	}
	return key[2 : len(key)-1], nil
}

// metaKeyFromKey extracts the caller-supplied metadata key from a META key.
func metaKeyFromKey(key []byte) ([]byte, error) {
	if len(key) < docPrefixLen+1 || key[0] != keyV1 || key[1] != keyspaceDoc {
		return nil, keyParseErrf(key, 0, "not a document keyspace key")
	}
	if key[docPrefixLen-1] != subMeta {
		return nil, keyParseErrf(key, docPrefixLen-1, "not a metadata key")
	}
	if key[len(key)-1] != keyTerm {
		return nil, keyParseErrf(key, len(key)-1, "metadata key is missing terminator")
	}
	return key[docPrefixLen : len(key)-1], nil
}

// clockFromKey extracts the update clock from an UPDATE key.
func clockFromKey(key []byte) (uint32, error) {
	if len(key) != docPrefixLen+5 || key[0] != keyV1 || key[1] != keyspaceDoc || key[docPrefixLen-1] != subUpdate {
		return 0, keyParseErrf(key, 0, "not an update key")
	}
	return binary.BigEndian.Uint32(key[docPrefixLen : docPrefixLen+4]), nil
}

func oidFromValue(value []byte) (OID, error) {
	if len(value) != 4 {
		return 0, keyParseErrf(value, 0, "OID value must be 4 bytes, got %d", len(value))
	}
	return OID(binary.BigEndian.Uint32(value)), nil
}

func oidValue(oid OID) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(oid))
}
