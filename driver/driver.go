// Package driver implements Codec, the public programmatic surface of
// spec.md §6/§4.6 (component C8): schema load/unload, top-level encode and
// decode, message identification via the ID codec, optional body
// encryption keyed off the head bytes, and the info/size introspection
// calls. Everything below it (bit container, field codecs, registry,
// traversal context) is a collaborator Codec wires together; Codec itself
// owns no wire-format knowledge beyond composing their output.
package driver

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/codec"
	"github.com/dcclgo/dccl/codec/dcclv2"
	"github.com/dcclgo/dccl/codec/dcclv3"
	"github.com/dcclgo/dccl/codec/dcclv4"
	"github.com/dcclgo/dccl/condition"
	"github.com/dcclgo/dccl/crypto"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/collision"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// defaultVersion is the codec version new schemas get when their
// descriptor doesn't pin one via `codec_version`.
const defaultVersion = 4

// IDCodec is the narrow interface Codec needs from a message-identifier
// codec (C10); idcodec.Codec is the default and only built-in
// implementation, but a deployment could swap in a different tag format
// via WithIDCodec.
type IDCodec interface {
	Name() string
	Validate(id uint32) error
	Encode(id uint32) (*bitset.BitVec, error)
	Decode(bits *bitset.BitVec) (uint32, error)
	MinSize() int
}

// loadedSchema is everything Codec remembers about one schema between
// Load and Unload.
type loadedSchema struct {
	goType   reflect.Type
	desc     *schema.Descriptor
	version  int
	registry *codec.Registry
	msgCodec *codec.MessageCodec
	rootFD   *schema.FieldDescriptor
	id       uint32
	hash     uint64
}

// Codec is the engine's Driver (C8). The zero value is not usable; build
// one with New. A single Codec serializes its own encode/decode/load/unload
// calls behind an internal mutex (spec.md §5): multiple Codec instances are
// independent and safe to use from separate goroutines concurrently.
type Codec struct {
	mu sync.Mutex

	idCodec    IDCodec
	strict     bool
	logger     *slog.Logger
	conditions condition.Evaluator
	cipher     *crypto.BodyCipher
	skipCrypto map[uint32]bool

	registries map[int]*codec.Registry // codec version -> shared registry

	byType map[reflect.Type]*loadedSchema
	byID   map[uint32]*loadedSchema

	collisions *collision.Tracker
}

// New constructs a ready-to-use Codec. Without options it uses the default
// ID codec (idcodec.Codec), non-strict mode, a discarding logger, and the
// no-op StaticEvaluator for dynamic-condition predicates.
func New(opts ...Option) (*Codec, error) {
	c := &Codec{
		logger:     slog.New(slog.DiscardHandler),
		conditions: condition.StaticEvaluator{},
		skipCrypto: make(map[uint32]bool),
		registries: make(map[int]*codec.Registry),
		byType:     make(map[reflect.Type]*loadedSchema),
		byID:       make(map[uint32]*loadedSchema),
		collisions: collision.NewTracker(),
	}

	if err := applyOptions(c, opts); err != nil {
		return nil, err
	}

	if c.idCodec == nil {
		c.idCodec = defaultIDCodec()
	}

	return c, nil
}

func (c *Codec) registryFor(version int) *codec.Registry {
	if reg, ok := c.registries[version]; ok {
		return reg
	}

	var reg *codec.Registry
	switch version {
	case 2:
		reg = dcclv2.NewRegistry(c.logger)
	case 3:
		reg = dcclv3.NewRegistry(c.logger)
	default:
		reg = dcclv4.NewRegistry(c.logger)
	}

	c.registries[version] = reg
	return reg
}

func elemType(msg any) reflect.Type {
	t := reflect.TypeOf(msg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func derefValue(msg any) reflect.Value {
	v := reflect.ValueOf(msg)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// Load validates msg's schema (walking it via the message codec's
// Validate), computes a schema hash folding every field's type,
// cardinality, option bag, and codec-specific hash, and records the
// message-ID -> schema mapping Encode/Decode use afterward. userID
// overrides the descriptor's own `id` option, matching the spec's
// "unless a user_id was bound at load" rule. msg only needs to be a zero
// value of the message type; its fields are not read.
func (c *Codec) Load(msg any, userID ...uint32) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := elemType(msg)
	desc := schema.Of(msg)

	version := desc.Options.CodecVersion
	if version == 0 {
		version = defaultVersion
	}
	reg := c.registryFor(version)
	mc := codec.NewMessageCodec(version, reg)

	rootFD := &schema.FieldDescriptor{
		Name:    t.Name(),
		Kind:    schema.KindMessage,
		Message: desc,
		Options: desc.Options,
	}

	if err := mc.Validate(rootFD); err != nil {
		return 0, errs.WithField(err, "load", t.Name())
	}

	var id uint32
	switch {
	case len(userID) > 0:
		id = userID[0]
	case desc.Options.HasID:
		id = uint32(desc.Options.ID)
	default:
		return 0, errs.WithField(errs.ErrSchemaError, "message has no id option", t.Name())
	}

	if err := c.idCodec.Validate(id); err != nil {
		return 0, errs.WithField(err, "load", t.Name())
	}

	h := mc.Hash(rootFD)

	if err := c.collisions.Track(id, t.String()); err != nil {
		return 0, errs.WithField(err, "load", t.Name())
	}

	ls := &loadedSchema{
		goType:   t,
		desc:     desc,
		version:  version,
		registry: reg,
		msgCodec: mc,
		rootFD:   rootFD,
		id:       id,
		hash:     h,
	}

	if desc.Options.MaxBytes > 0 {
		if maxBits := mc.MaxSize(rootFD) + idMaxBits; maxBits > desc.Options.MaxBytes*8 {
			c.collisions.Untrack(id)
			return 0, errs.WithField(errs.ErrSchemaError, "schema exceeds its own max_bytes bound", t.Name())
		}
	}

	c.byType[t] = ls
	c.byID[id] = ls

	return h, nil
}

// idMaxBits is the ID codec's worst-case (long-form) encoded width; used
// only for the max_bytes sanity check at Load, since Codec is agnostic to
// which IDCodec implementation is installed but the default's long form is
// 16 bits.
const idMaxBits = 16

// Unload reverses Load. msgOrID is either a zero value of a loaded message
// type or the uint32 ID it was bound to.
func (c *Codec) Unload(msgOrID any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, err := c.lookupLocked(msgOrID)
	if err != nil {
		return err
	}

	delete(c.byType, ls.goType)
	delete(c.byID, ls.id)
	c.collisions.Untrack(ls.id)
	return nil
}

// UnloadAll reverses every prior Load call.
func (c *Codec) UnloadAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byType = make(map[reflect.Type]*loadedSchema)
	c.byID = make(map[uint32]*loadedSchema)
	c.collisions.Reset()
}

func (c *Codec) lookupLocked(msgOrID any) (*loadedSchema, error) {
	if id, ok := msgOrID.(uint32); ok {
		ls, ok := c.byID[id]
		if !ok {
			return nil, errs.WithField(errs.ErrSchemaError, "no schema loaded for id", fmt.Sprintf("%d", id))
		}
		return ls, nil
	}

	t := elemType(msgOrID)
	ls, ok := c.byType[t]
	if !ok {
		return nil, errs.WithField(errs.ErrSchemaError, "schema not loaded", t.Name())
	}
	return ls, nil
}

func padToByte(bv *bitset.BitVec) {
	for bv.Len()%8 != 0 {
		bv.PushBack(false)
	}
}

// Encode runs msg's head pass, prepends the ID codec's bits, pads to a
// byte boundary, runs the body pass (padded likewise), optionally
// encrypts the body under the head bytes as nonce, and concatenates head
// and body. It enforces `length <= max_bytes` when the schema sets one.
func (c *Codec) Encode(msg any) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, err := c.lookupLocked(msg)
	if err != nil {
		return nil, err
	}

	return c.encodeLocked(ls, msg)
}

// EncodeInto is the bounded-buffer encode overload of spec.md §6
// (`encode(buf, max_len, message)`): it encodes into dst if dst has
// capacity for the result (growing it is not attempted beyond max_len),
// returning the number of bytes written.
func (c *Codec) EncodeInto(dst []byte, maxLen int, msg any) (int, error) {
	out, err := c.Encode(msg)
	if err != nil {
		return 0, err
	}
	if len(out) > maxLen || len(out) > cap(dst) {
		return 0, errs.WithField(errs.ErrOutOfRange, "encoded message does not fit destination buffer", "")
	}
	n := copy(dst[:len(out)], out)
	return n, nil
}

func (c *Codec) encodeLocked(ls *loadedSchema, msg any) ([]byte, error) {
	msgVal := derefValue(msg)
	if !msgVal.IsValid() {
		msgVal = reflect.ValueOf(msg)
	}

	ctx := trav.NewContext(msgVal, ls.desc, c.strict, c.conditions)

	idBits, err := c.idCodec.Encode(ls.id)
	if err != nil {
		return nil, errs.WithField(err, "encode", ls.goType.Name())
	}

	headBits, err := ls.msgCodec.EncodePart(ctx, ls.desc, msgVal, trav.Head)
	if err != nil {
		idBits.Release()
		return nil, errs.WithField(err, "encode head", ls.goType.Name())
	}

	headOut := bitset.New()
	headOut.Append(idBits)
	idBits.Release()
	headOut.Append(headBits)
	headBits.Release()
	padToByte(headOut)
	headBytes := headOut.Bytes()
	headOut.Release()

	bodyBits, err := ls.msgCodec.EncodePart(ctx, ls.desc, msgVal, trav.Body)
	if err != nil {
		return nil, errs.WithField(err, "encode body", ls.goType.Name())
	}
	padToByte(bodyBits)
	bodyBytes := bodyBits.Bytes()
	bodyBits.Release()

	if c.cipher != nil && !c.skipCrypto[ls.id] {
		bodyBytes, err = c.cipher.Transform(headBytes, bodyBytes)
		if err != nil {
			return nil, errs.WithField(err, "encode body encryption", ls.goType.Name())
		}
	}

	out := make([]byte, 0, len(headBytes)+len(bodyBytes))
	out = append(out, headBytes...)
	out = append(out, bodyBytes...)

	if ls.desc.Options.MaxBytes > 0 && len(out) > ls.desc.Options.MaxBytes {
		return nil, errs.WithField(errs.ErrOutOfRange, "encoded message exceeds max_bytes", ls.goType.Name())
	}

	return out, nil
}

// ID reports the message-type ID tagging an already-encoded byte string,
// without decoding the rest of the message.
func (c *Codec) ID(data []byte) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bits := bitset.FromBytes(data, len(data)*8)
	defer bits.Release()
	return c.idCodec.Decode(bits)
}

// Decode reads the ID codec's prefix to select a loaded schema, decodes
// the head bits (discarding the ID-codec bits and any byte-boundary
// padding), and unless headerOnly is set, decrypts and decodes the body.
// msg must be a pointer to a zero-valued instance of the loaded message
// type. It returns the number of bytes of data consumed.
func (c *Codec) Decode(data []byte, msg any, headerOnly ...bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bits := bitset.FromBytes(data, len(data)*8)
	defer bits.Release()

	id, err := c.idCodec.Decode(bits)
	if err != nil {
		return 0, errs.WithField(errs.ErrDecodeIncomplete, "decode id", "")
	}

	ls, ok := c.byID[id]
	if !ok {
		return 0, errs.WithField(errs.ErrSchemaError, "unknown message id", fmt.Sprintf("%d", id))
	}

	idBitsLen := encodedIDBits(c.idCodec, id)

	msgVal := reflect.ValueOf(msg)
	if msgVal.Kind() != reflect.Ptr || msgVal.IsNil() {
		return 0, errs.WithField(errs.ErrSchemaError, "decode destination must be a non-nil pointer", ls.goType.Name())
	}
	msgVal = msgVal.Elem()

	ctx := trav.NewContext(msgVal, ls.desc, c.strict, c.conditions)

	lenBefore := bits.Len()
	if err := ls.msgCodec.DecodePart(ctx, ls.desc, msgVal, trav.Head, bits); err != nil {
		return 0, errs.WithField(err, "decode head", ls.goType.Name())
	}
	headFieldBits := lenBefore - bits.Len()

	totalHeadBits := idBitsLen + headFieldBits
	pad := (8 - totalHeadBits%8) % 8
	headBytesLen := (totalHeadBits + pad) / 8

	if headBytesLen > len(data) {
		return 0, errs.WithField(errs.ErrDecodeIncomplete, "head exceeds input length", ls.goType.Name())
	}

	wantHeaderOnly := len(headerOnly) > 0 && headerOnly[0]
	if wantHeaderOnly {
		return headBytesLen, nil
	}

	bodyBytesRaw := data[headBytesLen:]
	if c.cipher != nil && !c.skipCrypto[id] {
		bodyBytesRaw, err = c.cipher.Transform(data[:headBytesLen], bodyBytesRaw)
		if err != nil {
			return 0, errs.WithField(err, "decode body decryption", ls.goType.Name())
		}
	}

	bodyBits := bitset.FromBytes(bodyBytesRaw, len(bodyBytesRaw)*8)
	defer bodyBits.Release()

	if err := ls.msgCodec.DecodePart(ctx, ls.desc, msgVal, trav.Body, bodyBits); err != nil {
		return 0, errs.WithField(err, "decode body", ls.goType.Name())
	}

	return headBytesLen + len(bodyBytesRaw), nil
}

// encodedIDBits returns the bit width idc.Encode would use for id, by
// encoding it and measuring the result; this keeps Codec agnostic to a
// given IDCodec implementation's short/long form thresholds.
func encodedIDBits(idc IDCodec, id uint32) int {
	bv, err := idc.Encode(id)
	if err != nil {
		return idc.MinSize()
	}
	n := bv.Len()
	bv.Release()
	return n
}

// Size returns the exact bit length of Encode(msg)'s output (8x its byte
// length, since every section is byte-padded).
func (c *Codec) Size(msg any) (int, error) {
	out, err := c.Encode(msg)
	if err != nil {
		return 0, err
	}
	return len(out) * 8, nil
}

// MaxSize returns an upper bound, in bits, on any message of msg's loaded
// type: the ID codec's long-form width plus every field's MaxSize,
// plus a 14-bit allowance for the two independent byte-boundary paddings
// (head and body) that Encode applies. msg need only be a zero value.
func (c *Codec) MaxSize(msg any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, err := c.lookupLocked(msg)
	if err != nil {
		return 0, err
	}
	return idMaxBits + ls.msgCodec.MaxSize(ls.rootFD) + 14, nil
}

// MinSize returns a lower bound, in bits, on any message of msg's loaded
// type: the ID codec's short-form width plus every field's MinSize.
func (c *Codec) MinSize(msg any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, err := c.lookupLocked(msg)
	if err != nil {
		return 0, err
	}
	return c.idCodec.MinSize() + ls.msgCodec.MinSize(ls.rootFD), nil
}

// Info writes a human-readable dump of msg's loaded schema to w.
func (c *Codec) Info(w io.Writer, msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls, err := c.lookupLocked(msg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "message %s (id=%d, codec_version=%d, hash=%#x)\n", ls.goType.Name(), ls.id, ls.version, ls.hash)
	ls.msgCodec.Info(w, ls.rootFD)
	return nil
}

// InfoAll writes a human-readable dump of every currently loaded schema to w.
func (c *Codec) InfoAll(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ls := range c.byID {
		fmt.Fprintf(w, "message %s (id=%d, codec_version=%d, hash=%#x)\n", ls.goType.Name(), ls.id, ls.version, ls.hash)
		ls.msgCodec.Info(w, ls.rootFD)
	}
}
