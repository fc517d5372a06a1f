// Package arith implements the adaptive arithmetic (range) coder of
// spec.md §4.8: a Howard-Vitter-style coder over [low, high) with
// CODE_BITS = 32 and a bit-deferral ("follow") counter, plus the Model
// frequency table it codes against. It is registered into codec.Registry
// under the name "dccl.arithmetic" for repeated numeric/enum fields that
// opt in via their codec option.
package arith

// CodeBits is the coder's working precision, per spec.md §4.8.
const CodeBits = 32

const (
	topValue  = uint64(1) << CodeBits
	topBit    = uint64(1) << (CodeBits - 1)
	secondBit = uint64(1) << (CodeBits - 2)
	mask      = topValue - 1
)

// MaxFreqTotal is the largest total frequency sum a Model may carry,
// per spec.md §4.8: 2^(CODE_BITS-2) - 1.
const MaxFreqTotal = secondBit - 1

// EOFSymbol and OutOfRangeSymbol are the two reserved symbols every Model
// carries alongside its K value symbols (indices 0..K-1).
const (
	EOFSymbol        = -1
	OutOfRangeSymbol = -2
)

// Model is a finite alphabet of K value symbols plus an EOF symbol and an
// out-of-range symbol, each with a cumulative frequency. Adaptive models
// increment the coded symbol's frequency after every Encode/Decode call;
// the encoder and decoder must start from identically-seeded Models to
// stay in lockstep (spec.md §8 property 7).
type Model struct {
	freqs    []uint64 // [0..k-1] value symbols, [k] EOF, [k+1] out-of-range
	adaptive bool
}

// NewModel returns a Model over k value symbols with uniform initial
// frequency 1 for every symbol including EOF and out-of-range.
func NewModel(k int, adaptive bool) *Model {
	freqs := make([]uint64, k+2)
	for i := range freqs {
		freqs[i] = 1
	}
	return &Model{freqs: freqs, adaptive: adaptive}
}

// NewWeightedModel returns a Model over len(freqs) value symbols with the
// given initial per-symbol frequencies, plus eofFreq/outOfRangeFreq for
// the two reserved symbols.
func NewWeightedModel(freqs []uint64, eofFreq, outOfRangeFreq uint64, adaptive bool) *Model {
	table := make([]uint64, len(freqs)+2)
	copy(table, freqs)
	table[len(freqs)] = eofFreq
	table[len(freqs)+1] = outOfRangeFreq
	return &Model{freqs: table, adaptive: adaptive}
}

// K returns the number of value symbols (excluding EOF/out-of-range).
func (m *Model) K() int { return len(m.freqs) - 2 }

func (m *Model) index(sym int) int {
	switch sym {
	case EOFSymbol:
		return m.K()
	case OutOfRangeSymbol:
		return m.K() + 1
	default:
		return sym
	}
}

func (m *Model) fromIndex(i int) int {
	switch i {
	case m.K():
		return EOFSymbol
	case m.K() + 1:
		return OutOfRangeSymbol
	default:
		return i
	}
}

func (m *Model) total() uint64 {
	var t uint64
	for _, f := range m.freqs {
		t += f
	}
	return t
}

// bounds returns sym's cumulative frequency window [low, high) and the
// table's total frequency.
func (m *Model) bounds(sym int) (low, high, total uint64) {
	idx := m.index(sym)
	total = m.total()
	for i := 0; i < idx; i++ {
		low += m.freqs[i]
	}
	high = low + m.freqs[idx]
	return low, high, total
}

// find returns the symbol whose cumulative window contains target, along
// with that window and the table's total frequency.
func (m *Model) find(target uint64) (sym int, low, high, total uint64) {
	total = m.total()
	var c uint64
	for i, f := range m.freqs {
		if target < c+f {
			return m.fromIndex(i), c, c + f, total
		}
		c += f
	}
	last := len(m.freqs) - 1
	return m.fromIndex(last), c - m.freqs[last], c, total
}

func (m *Model) update(sym int) {
	if m.adaptive {
		m.freqs[m.index(sym)]++
	}
}

// MinSize returns the minimum plausible bit count for encoding up to
// maxSymbols symbols against this Model: the densest symbol repeated
// maxSymbols times, or 0 if the model is adaptive (frequencies shift as
// coding proceeds, so no static lower bound holds).
func (m *Model) MinSize(maxSymbols int) int {
	if m.adaptive {
		return 0
	}
	total := m.total()
	var maxFreq uint64 = 1
	for _, f := range m.freqs[:m.K()] {
		if f > maxFreq {
			maxFreq = f
		}
	}
	return bitsForRatio(total, maxFreq, maxSymbols)
}

// MaxSize returns a worst-case bit count for encoding up to maxSymbols
// symbols against this Model, plus a one-bit EOF allowance.
func (m *Model) MaxSize(maxSymbols int) int {
	total := m.total()
	minFreq := total
	for _, f := range m.freqs[:m.K()] {
		if f > 0 && f < minFreq {
			minFreq = f
		}
	}
	if minFreq == 0 {
		minFreq = 1
	}
	return bitsForRatio(total, minFreq, maxSymbols) + 1
}

func bitsForRatio(total, freq uint64, count int) int {
	if freq == 0 || total == 0 {
		return 0
	}
	bitsPerSymbol := log2Ceil(total) - log2Floor(freq)
	n := bitsPerSymbol * count
	if n < 0 {
		n = 0
	}
	return n
}

func log2Ceil(n uint64) int {
	if n <= 1 {
		return 0
	}
	b := 0
	for v := n - 1; v > 0; v >>= 1 {
		b++
	}
	return b
}

func log2Floor(n uint64) int {
	if n <= 1 {
		return 0
	}
	b := 0
	for v := n; v > 1; v >>= 1 {
		b++
	}
	return b
}
