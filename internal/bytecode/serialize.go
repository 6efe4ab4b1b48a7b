package bytecode

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// magic identifies a serialized Assembly; version guards format changes so
// an older internal/vm refuses newer bytecode instead of misinterpreting it.
var magic = [4]byte{'S', 'W', 'S', 'C'}

const formatVersion byte = 1

// Serialize encodes the Assembly to SwiftScript's on-disk bytecode format:
// a 4-byte magic, a 1-byte version, then a gob-encoded Assembly. Constants
// are restricted to the unboxed primitives (Nil/Bool/Int/Float) by the
// compiler, so no heap Object needs a gob registration here.
func (a *Assembly) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)
	enc := gob.NewEncoder(buf)
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("assembly encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes an Assembly previously produced by Serialize.
func Deserialize(data []byte) (*Assembly, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("bytecode data too short")
	}
	if data[0] != magic[0] || data[1] != magic[1] || data[2] != magic[2] || data[3] != magic[3] {
		return nil, fmt.Errorf("invalid magic number, expected %q", string(magic[:]))
	}
	version := data[4]
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported bytecode format version %d (this build supports version %d)", version, formatVersion)
	}
	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	var a Assembly
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("assembly decoding failed: %w", err)
	}
	return &a, nil
}
