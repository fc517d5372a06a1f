package arith

import (
	"github.com/dcclgo/dccl/bitset"
	"github.com/dcclgo/dccl/errs"
)

// Encoder is a Howard-Vitter range coder writing into a bitset.BitVec,
// maintaining [low, high) over [0, 2^CODE_BITS) and a pending
// ("follow") counter for the E3 bit-deferral case.
type Encoder struct {
	out     *bitset.BitVec
	low     uint64
	high    uint64
	pending int
}

// NewEncoder returns an Encoder over a fresh output BitVec.
func NewEncoder() *Encoder {
	return &Encoder{high: mask}
}

func (e *Encoder) emit(bit bool) {
	if e.out == nil {
		e.out = bitset.New()
	}
	e.out.PushBack(bit)
	for ; e.pending > 0; e.pending-- {
		e.out.PushBack(!bit)
	}
}

// Encode codes sym against m, updating the coder's interval and emitting
// any bits the renormalization resolves.
func (e *Encoder) Encode(m *Model, sym int) error {
	low, high, total := m.bounds(sym)
	if total == 0 || total > MaxFreqTotal {
		return errs.ErrSchemaError
	}

	span := e.high - e.low + 1
	e.high = e.low + (span*high)/total - 1
	e.low = e.low + (span*low)/total

	for {
		switch {
		case e.high < topBit:
			e.emit(false)
		case e.low >= topBit:
			e.emit(true)
			e.low -= topBit
			e.high -= topBit
		case e.low >= secondBit && e.high < topBit+secondBit:
			e.pending++
			e.low -= secondBit
			e.high -= secondBit
		default:
			m.update(sym)
			return nil
		}
		e.low = (e.low << 1) & mask
		e.high = ((e.high << 1) | 1) & mask
	}
}

// Finish flushes the bits needed to disambiguate the final interval and
// returns the completed bit stream. The Encoder must not be reused.
func (e *Encoder) Finish() *bitset.BitVec {
	e.pending++
	if e.low < secondBit {
		e.emit(false)
	} else {
		e.emit(true)
	}
	if e.out == nil {
		e.out = bitset.New()
	}
	return e.out
}

// Decoder is the Encoder's inverse: it reads CODE_BITS bits of lookahead
// up front (zero-padding past the end of in), then peels one symbol at a
// time against a Model.
type Decoder struct {
	in        *bitset.BitVec
	low       uint64
	high      uint64
	value     uint64
	exhausted bool
}

// NewDecoder returns a Decoder reading from in, which is consumed (popped
// from the front) as decoding proceeds.
func NewDecoder(in *bitset.BitVec) *Decoder {
	d := &Decoder{in: in, high: mask}
	for i := 0; i < CodeBits; i++ {
		d.value = (d.value << 1) & mask
		if d.readBit() {
			d.value |= 1
		}
	}
	return d
}

func (d *Decoder) readBit() bool {
	if d.in == nil || d.in.Len() == 0 {
		d.exhausted = true
		return false
	}
	return d.in.PopFront()
}

// Decode returns the next symbol coded against m (a value symbol, EOFSymbol,
// or OutOfRangeSymbol), updating the coder's interval and Model in lockstep
// with the Encoder that produced the stream.
func (d *Decoder) Decode(m *Model) (int, error) {
	total := m.total()
	if total == 0 || total > MaxFreqTotal {
		return 0, errs.ErrSchemaError
	}

	span := d.high - d.low + 1
	cum := ((d.value-d.low+1)*total - 1) / span
	if cum >= total {
		cum = total - 1
	}
	sym, low, high, _ := m.find(cum)

	d.high = d.low + (span*high)/total - 1
	d.low = d.low + (span*low)/total

	for {
		switch {
		case d.high < topBit:
			// no shift state change needed besides the renorm below
		case d.low >= topBit:
			d.low -= topBit
			d.high -= topBit
			d.value -= topBit
		case d.low >= secondBit && d.high < topBit+secondBit:
			d.low -= secondBit
			d.high -= secondBit
			d.value -= secondBit
		default:
			m.update(sym)
			return sym, nil
		}
		d.low = (d.low << 1) & mask
		d.high = ((d.high << 1) | 1) & mask
		d.value = (d.value << 1) & mask
		if d.readBit() {
			d.value |= 1
		}
	}
}
