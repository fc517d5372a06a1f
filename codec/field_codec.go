// Package codec defines the FieldCodec contract every wire codec
// implements (C3) and the Registry that resolves a field to a codec
// instance by name, type, and codec version (C4). Primitive codec bodies
// live here as version-agnostic helpers; the per-wire-version packages
// codec/dcclv2, codec/dcclv3, codec/dcclv4 instantiate and register them.
package codec

import (
	"io"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// FieldCodec implements the wire contract for a single (field type, wire
// type) pair, per spec.md §4.2.
type FieldCodec interface {
	// Name returns the codec's registry name, e.g. "dccl.default3".
	Name() string

	// PreEncode converts a field's Go value into this codec's wire value;
	// identity for most codecs.
	PreEncode(fd *schema.FieldDescriptor, value any) (any, error)

	// Encode emits wire as bits, bit 0 first transmitted.
	Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error)

	// Size returns the bit count Encode would produce for wire.
	Size(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error)

	// Decode consumes bits (growing via BorrowMore as needed) and returns
	// the wire value. It returns errs.ErrNullValue if the field's
	// presence encoding signals absence.
	Decode(ctx *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error)

	// PostDecode is the inverse of PreEncode.
	PostDecode(fd *schema.FieldDescriptor, wire any) (any, error)

	// MinSize and MaxSize report tight bit-count bounds for this field.
	MinSize(fd *schema.FieldDescriptor) int
	MaxSize(fd *schema.FieldDescriptor) int

	// Validate raises errs.ErrSchemaError on missing/incompatible options.
	Validate(fd *schema.FieldDescriptor) error

	// Info writes a human-readable description of fd's wire layout.
	Info(w io.Writer, fd *schema.FieldDescriptor)

	// Hash folds this codec's contribution into a schema hash.
	Hash(fd *schema.FieldDescriptor) uint64

	// EncodeRepeated/SizeRepeated/DecodeRepeated handle repeated fields
	// atomically. The BaseCodec default prefixes a length field (version
	// >= 3) or always emits MaxRepeat elements (version 2).
	EncodeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, values []any) (*bitset.BitVec, error)
	SizeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, values []any) (int, error)
	DecodeRepeated(ctx *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) ([]any, error)

	// SetForceRequired suppresses the extra presence encoding an optional
	// field would otherwise consume.
	SetForceRequired(bool)
	ForceRequired() bool
}

// Factory constructs a new FieldCodec instance, used by RegisterFactory /
// the Registry's dccl.default{V} fallback.
type Factory func() FieldCodec

// NumericKinds lists the schema.Kind values the numeric/presence-bit/time
// codecs apply to, for version packages registering one factory across
// every kind it supports.
var NumericKinds = []schema.Kind{
	schema.KindInt32,
	schema.KindInt64,
	schema.KindUint32,
	schema.KindUint64,
	schema.KindFloat,
	schema.KindDouble,
}
