// Package hash provides the hashing primitives used to fingerprint loaded
// schemas and to checksum batch frame payloads.
package hash

import (
	"github.com/cespare/xxhash/v2"

	"github.com/dcclgo/dccl/endian"
)

var byteOrder = endian.GetLittleEndianEngine()

// ID computes the xxHash64 of the given string. The batch package uses it
// as the checksum of a bundle's uncompressed payload.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Folder incrementally folds a schema's shape into a single 64-bit hash, so
// two descriptors that disagree on type, cardinality, option bag, or
// codec-specific contribution produce different hashes. It is the
// accumulator behind the schema hash Driver.Load returns (spec §4.6).
type Folder struct {
	h *xxhash.Digest
}

// NewFolder creates an empty Folder.
func NewFolder() *Folder {
	return &Folder{h: xxhash.New()}
}

// WriteString folds a string value (field name, type name, codec name, ...)
// into the running hash.
func (f *Folder) WriteString(s string) {
	_, _ = f.h.WriteString(s)
	f.writeSep()
}

// WriteUint64 folds a numeric value (option bound, cardinality, version, ...)
// into the running hash.
func (f *Folder) WriteUint64(v uint64) {
	var b [8]byte
	byteOrder.PutUint64(b[:], v)
	_, _ = f.h.Write(b[:])
	f.writeSep()
}

// WriteBool folds a boolean flag into the running hash.
func (f *Folder) WriteBool(v bool) {
	if v {
		f.WriteUint64(1)
	} else {
		f.WriteUint64(0)
	}
}

// writeSep writes a constant separator byte between folded fields so that,
// e.g., folding "ab" then "c" cannot collide with folding "a" then "bc".
func (f *Folder) writeSep() {
	_, _ = f.h.Write([]byte{0x1f})
}

// Sum returns the accumulated 64-bit schema hash.
func (f *Folder) Sum() uint64 {
	return f.h.Sum64()
}
