package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// MessageCodec implements FieldCodec for embedded message fields (C7): it
// recursively dispatches each of the message's own fields back through the
// Registry, honoring per-field head/body placement, optional-message
// presence bits (codec version >= 3), and oneof groups (version >= 4). It
// is also Driver's entry point for running a top-level message's separate
// head and body passes (EncodePart/DecodePart/SizePart).
//
// A field belongs to a oneof group by sharing a non-empty
// Options.OneofGroup with its immediate neighbors in declaration order;
// the group contributes a single ceil_log2(len(group)+1)-bit index (0 =
// none selected) followed by the selected member's own bits, encoded as
// required regardless of its own cardinality.
type MessageCodec struct {
	BaseCodec
	Version  int
	Registry *Registry
}

var _ FieldCodec = (*MessageCodec)(nil)

// NewMessageCodec returns a MessageCodec resolving child fields through reg.
func NewMessageCodec(version int, reg *Registry) *MessageCodec {
	c := &MessageCodec{Version: version, Registry: reg}
	c.Init(c)
	return c
}

func (c *MessageCodec) Name() string { return fmt.Sprintf("dccl.default%d", c.Version) }

func (c *MessageCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *MessageCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

// effectivePart resolves a field's head/body placement: an explicit
// in_head override wins, otherwise the field inherits the part currently
// active in the traversal.
func effectivePart(fd *schema.FieldDescriptor, current trav.Part) trav.Part {
	if fd.Options.InHead != nil {
		if *fd.Options.InHead {
			return trav.Head
		}
		return trav.Body
	}
	return current
}

func (c *MessageCodec) isOptionalMessage(fd *schema.FieldDescriptor) bool {
	return fd.Cardinality == schema.OptionalCardinality
}

// shouldOmit implements spec.md §4.9's dynamic-condition precedence:
// required_if wins over omission, then only_if/omit_if decide whether the
// field is left out of this encode/decode pass entirely. Each predicate is
// evaluated against its own expression; they are never interchanged.
func (c *MessageCodec) shouldOmit(ctx *trav.Context, fd *schema.FieldDescriptor, msg reflect.Value) bool {
	if fd.Options.Omit {
		return true
	}
	if !fd.Options.HasDynamicConditions() || ctx.Conditions == nil {
		return false
	}

	this := ctx.CurrentMessage()
	if fd.Options.RequiredIfExpr != "" && ctx.Conditions.RequiredIf(this, ctx.Root, fd.Position, fd.Options.RequiredIfExpr) {
		return false
	}
	if fd.Options.OnlyIfExpr != "" && !ctx.Conditions.OnlyIf(this, ctx.Root, fd.Position, fd.Options.OnlyIfExpr) {
		return true
	}
	if fd.Options.OmitIfExpr != "" && ctx.Conditions.OmitIf(this, ctx.Root, fd.Position, fd.Options.OmitIfExpr) {
		return true
	}
	return false
}

func oneofRun(fields []*schema.FieldDescriptor, i int) (group []*schema.FieldDescriptor, next int) {
	name := fields[i].Options.OneofGroup
	j := i
	for j < len(fields) && fields[j].Options.OneofGroup == name {
		j++
	}
	return fields[i:j], j
}

// Encode implements FieldCodec for a nested message field: wire is the
// (possibly nil) Go value of the embedded struct, PreEncode'd. ctx.Part
// must already name the part this field was placed in.
func (c *MessageCodec) Encode(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	presence := c.Version >= 3 && c.isOptionalMessage(fd) && !c.ForceRequired()

	out := bitset.New()
	if presence {
		out.PushBack(wire != nil)
	}
	if wire == nil {
		if presence {
			return out, nil
		}
		out.Release()
		return nil, errs.ErrSchemaError
	}

	msgVal := reflect.ValueOf(wire)
	bv, err := c.EncodePart(ctx, fd.Message, msgVal, ctx.Part)
	if err != nil {
		out.Release()
		return nil, err
	}
	out.Append(bv)
	bv.Release()
	return out, nil
}

func (c *MessageCodec) Decode(ctx *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	presence := c.Version >= 3 && c.isOptionalMessage(fd) && !c.ForceRequired()

	present := true
	if presence {
		if err := bits.EnsureLen(1); err != nil {
			return nil, err
		}
		present = bits.PopFront()
	}
	if !present {
		return nil, errs.ErrNullValue
	}

	msgVal := reflect.New(fd.Message.GoType).Elem()
	if err := c.DecodePart(ctx, fd.Message, msgVal, ctx.Part, bits); err != nil {
		return nil, err
	}
	return msgVal.Interface(), nil
}

func (c *MessageCodec) Size(ctx *trav.Context, fd *schema.FieldDescriptor, wire any) (int, error) {
	presence := c.Version >= 3 && c.isOptionalMessage(fd) && !c.ForceRequired()

	total := 0
	if presence {
		total++
	}
	if wire == nil {
		return total, nil
	}

	n, err := c.SizePart(ctx, fd.Message, reflect.ValueOf(wire), ctx.Part)
	if err != nil {
		return 0, err
	}
	return total + n, nil
}

// EncodePart runs a single head or body pass over desc's fields (in
// declaration order), recursing into nested messages and oneof groups, and
// returns the accumulated bits for that part alone.
func (c *MessageCodec) EncodePart(ctx *trav.Context, desc *schema.Descriptor, msg reflect.Value, part trav.Part) (*bitset.BitVec, error) {
	ctx.Push(desc, nil, msg)
	ctx.Part = part
	defer ctx.Pop()

	out := bitset.New()
	fields := desc.Fields
	for i := 0; i < len(fields); {
		fd := fields[i]

		if fd.Options.OneofGroup != "" && c.Version >= 4 {
			group, next := oneofRun(fields, i)
			bv, err := c.encodeOneof(ctx, desc, msg, group)
			if err != nil {
				out.Release()
				return nil, err
			}
			out.Append(bv)
			bv.Release()
			i = next
			continue
		}
		i++

		if c.shouldOmit(ctx, fd, msg) || effectivePart(fd, part) != part {
			continue
		}

		bv, err := c.encodeField(ctx, desc, fd, msg, false)
		if err != nil {
			out.Release()
			return nil, err
		}
		out.Append(bv)
		bv.Release()
	}

	return out, nil
}

// DecodePart is EncodePart's inverse, consuming from the shared bits
// stream for that part and populating msg's fields.
func (c *MessageCodec) DecodePart(ctx *trav.Context, desc *schema.Descriptor, msg reflect.Value, part trav.Part, bits *bitset.BitVec) error {
	ctx.Push(desc, nil, msg)
	ctx.Part = part
	defer ctx.Pop()

	fields := desc.Fields
	for i := 0; i < len(fields); {
		fd := fields[i]

		if fd.Options.OneofGroup != "" && c.Version >= 4 {
			group, next := oneofRun(fields, i)
			if err := c.decodeOneof(ctx, desc, msg, group, bits); err != nil {
				return err
			}
			i = next
			continue
		}
		i++

		if c.shouldOmit(ctx, fd, msg) || effectivePart(fd, part) != part {
			continue
		}

		if err := c.decodeField(ctx, desc, fd, msg, bits, false); err != nil {
			return err
		}
	}

	return nil
}

// SizePart mirrors EncodePart's traversal to compute a bit count without
// allocating a BitVec.
func (c *MessageCodec) SizePart(ctx *trav.Context, desc *schema.Descriptor, msg reflect.Value, part trav.Part) (int, error) {
	ctx.Push(desc, nil, msg)
	ctx.Part = part
	defer ctx.Pop()

	total := 0
	fields := desc.Fields
	for i := 0; i < len(fields); {
		fd := fields[i]

		if fd.Options.OneofGroup != "" && c.Version >= 4 {
			group, next := oneofRun(fields, i)
			width := ceilLog2(len(group) + 1)
			total += width
			for _, gf := range group {
				if schema.AccessorFor(gf).Get(msg) != nil {
					n, err := c.sizeField(ctx, desc, gf, msg, true)
					if err != nil {
						return 0, err
					}
					total += n
					break
				}
			}
			i = next
			continue
		}
		i++

		if c.shouldOmit(ctx, fd, msg) || effectivePart(fd, part) != part {
			continue
		}

		n, err := c.sizeField(ctx, desc, fd, msg, false)
		if err != nil {
			return 0, err
		}
		total += n
	}

	return total, nil
}

func (c *MessageCodec) encodeOneof(ctx *trav.Context, desc *schema.Descriptor, msg reflect.Value, group []*schema.FieldDescriptor) (*bitset.BitVec, error) {
	width := ceilLog2(len(group) + 1)
	selected := 0
	for i, fd := range group {
		if schema.AccessorFor(fd).Get(msg) != nil {
			selected = i + 1
			break
		}
	}

	out := bitset.New()
	idx := packUint(width, uint64(selected))
	out.Append(idx)
	idx.Release()

	if selected == 0 {
		return out, nil
	}

	bv, err := c.encodeField(ctx, desc, group[selected-1], msg, true)
	if err != nil {
		out.Release()
		return nil, err
	}
	out.Append(bv)
	bv.Release()
	return out, nil
}

func (c *MessageCodec) decodeOneof(ctx *trav.Context, desc *schema.Descriptor, msg reflect.Value, group []*schema.FieldDescriptor, bits *bitset.BitVec) error {
	width := ceilLog2(len(group) + 1)
	n, err := unpackUint(bits, width)
	if err != nil {
		return err
	}
	if n == 0 || int(n) > len(group) {
		return nil
	}
	return c.decodeField(ctx, desc, group[n-1], msg, bits, true)
}

func (c *MessageCodec) resolve(desc *schema.Descriptor, fd *schema.FieldDescriptor, forceRequired bool) (FieldCodec, error) {
	fc, err := c.Registry.Resolve(fd, desc.Options.Codec, desc.Options.CodecGroup, c.Version)
	if err != nil {
		return nil, err
	}
	// From version 3 on a repeated field's count prefix says how many
	// elements follow, so each element is encoded without a presence slot.
	if forceRequired || (fd.Cardinality == schema.Repeated && c.Version >= 3) {
		fc.SetForceRequired(true)
	}
	return fc, nil
}

func (c *MessageCodec) encodeField(ctx *trav.Context, desc *schema.Descriptor, fd *schema.FieldDescriptor, msg reflect.Value, forceRequired bool) (*bitset.BitVec, error) {
	fc, err := c.resolve(desc, fd, forceRequired)
	if err != nil {
		return nil, err
	}
	acc := schema.AccessorFor(fd)

	if fd.Cardinality == schema.Repeated {
		n := acc.Len(msg)
		values := make([]any, n)
		for i := 0; i < n; i++ {
			wire, err := fc.PreEncode(fd, acc.Index(msg, i))
			if err != nil {
				return nil, err
			}
			values[i] = wire
		}
		return fc.EncodeRepeated(ctx, fd, values)
	}

	wire, err := fc.PreEncode(fd, acc.Get(msg))
	if err != nil {
		return nil, err
	}
	return fc.Encode(ctx, fd, wire)
}

func (c *MessageCodec) decodeField(ctx *trav.Context, desc *schema.Descriptor, fd *schema.FieldDescriptor, msg reflect.Value, bits *bitset.BitVec, forceRequired bool) error {
	fc, err := c.resolve(desc, fd, forceRequired)
	if err != nil {
		return err
	}
	acc := schema.AccessorFor(fd)

	if fd.Cardinality == schema.Repeated {
		values, err := fc.DecodeRepeated(ctx, fd, bits)
		if err != nil {
			return err
		}
		out := make([]any, len(values))
		for i, v := range values {
			pv, err := fc.PostDecode(fd, v)
			if err != nil {
				return err
			}
			out[i] = pv
		}
		acc.SetSlice(msg, out)
		return nil
	}

	wire, err := fc.Decode(ctx, fd, bits)
	if errs.IsNullValue(err) {
		acc.Clear(msg)
		return nil
	}
	if err != nil {
		return err
	}
	pv, err := fc.PostDecode(fd, wire)
	if err != nil {
		return err
	}
	acc.Set(msg, pv)
	return nil
}

func (c *MessageCodec) sizeField(ctx *trav.Context, desc *schema.Descriptor, fd *schema.FieldDescriptor, msg reflect.Value, forceRequired bool) (int, error) {
	fc, err := c.resolve(desc, fd, forceRequired)
	if err != nil {
		return 0, err
	}
	acc := schema.AccessorFor(fd)

	if fd.Cardinality == schema.Repeated {
		n := acc.Len(msg)
		values := make([]any, n)
		for i := 0; i < n; i++ {
			wire, err := fc.PreEncode(fd, acc.Index(msg, i))
			if err != nil {
				return 0, err
			}
			values[i] = wire
		}
		return fc.SizeRepeated(ctx, fd, values)
	}

	wire, err := fc.PreEncode(fd, acc.Get(msg))
	if err != nil {
		return 0, err
	}
	return fc.Size(ctx, fd, wire)
}

func (c *MessageCodec) MinSize(fd *schema.FieldDescriptor) int {
	total := 0
	if c.Version >= 3 && c.isOptionalMessage(fd) && !c.ForceRequired() {
		total++
	}
	for _, child := range fd.Message.Fields {
		fc, err := c.Registry.Resolve(child, fd.Message.Options.Codec, fd.Message.Options.CodecGroup, c.Version)
		if err != nil {
			continue
		}
		total += fc.MinSize(child)
	}
	return total
}

func (c *MessageCodec) MaxSize(fd *schema.FieldDescriptor) int {
	total := 0
	if c.Version >= 3 && c.isOptionalMessage(fd) && !c.ForceRequired() {
		total++
	}
	for _, child := range fd.Message.Fields {
		fc, err := c.Registry.Resolve(child, fd.Message.Options.Codec, fd.Message.Options.CodecGroup, c.Version)
		if err != nil {
			continue
		}
		total += fc.MaxSize(child)
	}
	return total
}

func (c *MessageCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Message == nil {
		return errs.WithField(errs.ErrSchemaError, "message field has no descriptor", fd.Name)
	}
	for _, child := range fd.Message.Fields {
		fc, err := c.Registry.Resolve(child, fd.Message.Options.Codec, fd.Message.Options.CodecGroup, c.Version)
		if err != nil {
			return err
		}
		if err := fc.Validate(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *MessageCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: message %s\n", fd.Name, fd.Message.GoType.String())
	for _, child := range fd.Message.Fields {
		fc, err := c.Registry.Resolve(child, fd.Message.Options.Codec, fd.Message.Options.CodecGroup, c.Version)
		if err != nil {
			fmt.Fprintf(w, "  %s: <unresolved: %v>\n", child.Name, err)
			continue
		}
		fc.Info(w, child)
	}
}

func (c *MessageCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("message")
	f.WriteString(fd.Message.GoType.String())
	for _, child := range fd.Message.Fields {
		f.WriteUint64(uint64(child.Kind))
		f.WriteUint64(uint64(child.Cardinality))
		inHead := "inherit"
		if child.Options.InHead != nil {
			inHead = fmt.Sprint(*child.Options.InHead)
		}
		opts := child.Options
		opts.InHead = nil
		f.WriteString(fmt.Sprintf("%+v in_head=%s", opts, inHead))
		fc, err := c.Registry.Resolve(child, fd.Message.Options.Codec, fd.Message.Options.CodecGroup, c.Version)
		if err != nil {
			continue
		}
		f.WriteUint64(fc.Hash(child))
	}
	return f.Sum()
}
