package codec

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/internal/hash"
	"github.com/dcclgo/dccl/internal/trav"
	"github.com/dcclgo/dccl/schema"
)

// TimeCodec implements spec.md §4.4's time codec: a seconds-of-day (or
// multi-day) modulo encoding over a num_days*86400 range at a configurable
// resolution. Decode resolves the ambiguous day offset using the local
// clock, picking the candidate nearest to now.
type TimeCodec struct {
	BaseCodec
	now func() time.Time
}

var _ FieldCodec = (*TimeCodec)(nil)

func NewTimeCodec() *TimeCodec {
	c := &TimeCodec{now: time.Now}
	c.Init(c)
	return c
}

func (c *TimeCodec) Name() string { return "dccl.time" }

func (c *TimeCodec) rangeSeconds(fd *schema.FieldDescriptor) int64 {
	days := fd.Options.NumDays
	if days <= 0 {
		days = 1
	}
	return int64(days) * 86400
}

func (c *TimeCodec) width(fd *schema.FieldDescriptor) int {
	res := fd.Options.EffectiveResolution()
	ticks := int(math.Round(float64(c.rangeSeconds(fd)) / res))
	return ceilLog2(ticks + 1)
}

func (c *TimeCodec) PreEncode(_ *schema.FieldDescriptor, value any) (any, error) {
	return value, nil
}

func (c *TimeCodec) Encode(_ *trav.Context, fd *schema.FieldDescriptor, wire any) (*bitset.BitVec, error) {
	t, _ := wire.(time.Time)
	res := fd.Options.EffectiveResolution()
	rng := c.rangeSeconds(fd)

	mod := t.Unix() % rng
	if mod < 0 {
		mod += rng
	}

	ticks := uint64(math.Round(float64(mod) / res))
	return packUint(c.width(fd), ticks), nil
}

func (c *TimeCodec) Size(_ *trav.Context, fd *schema.FieldDescriptor, _ any) (int, error) {
	return c.width(fd), nil
}

func (c *TimeCodec) Decode(_ *trav.Context, fd *schema.FieldDescriptor, bits *bitset.BitVec) (any, error) {
	ticks, err := unpackUint(bits, c.width(fd))
	if err != nil {
		return nil, err
	}

	res := fd.Options.EffectiveResolution()
	rng := c.rangeSeconds(fd)
	modSecs := int64(math.Round(float64(ticks) * res))

	now := c.now().Unix()
	base := now - (now % rng)
	candidate := base + modSecs

	half := rng / 2
	if candidate < now-half {
		candidate += rng
	}
	if candidate > now+half {
		candidate -= rng
	}

	return time.Unix(candidate, 0).UTC(), nil
}

func (c *TimeCodec) PostDecode(_ *schema.FieldDescriptor, wire any) (any, error) {
	return wire, nil
}

func (c *TimeCodec) MinSize(fd *schema.FieldDescriptor) int { return c.width(fd) }
func (c *TimeCodec) MaxSize(fd *schema.FieldDescriptor) int { return c.width(fd) }

func (c *TimeCodec) Validate(fd *schema.FieldDescriptor) error {
	if fd.Options.EffectiveResolution() <= 0 {
		return errs.ErrSchemaError
	}
	return nil
}

func (c *TimeCodec) Info(w io.Writer, fd *schema.FieldDescriptor) {
	fmt.Fprintf(w, "%s: time, num_days=%d, %d bit(s)\n", fd.Name, fd.Options.NumDays, c.width(fd))
}

func (c *TimeCodec) Hash(fd *schema.FieldDescriptor) uint64 {
	f := hash.NewFolder()
	f.WriteString("time")
	f.WriteString(fd.Name)
	f.WriteUint64(uint64(c.rangeSeconds(fd)))
	return f.Sum()
}
