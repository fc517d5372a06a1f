package bitset

import "github.com/dcclgo/dccl/errs"

// SetParent registers parent as b's non-owning ancestor for BorrowMore.
// parent must outlive b.
func (b *BitVec) SetParent(parent *BitVec) {
	b.parent = parent
}

// Parent returns b's parent, or nil if none was set.
func (b *BitVec) Parent() *BitVec {
	return b.parent
}

// Borrowed reports how many bits b has pulled from its parent chain so
// far via BorrowMore.
func (b *BitVec) Borrowed() int {
	return b.borrowed
}

// BorrowMore requests n additional bits from b's parent, moving them from
// the parent's front (low end) onto b's back (high end), preserving their
// relative order. If the parent holds fewer than n bits, it recursively
// borrows from its own parent first. BorrowMore fails with
// errs.ErrUnderflow if the parent chain cannot supply n bits.
func (b *BitVec) BorrowMore(n int) error {
	if n <= 0 {
		return nil
	}
	if b.parent == nil {
		return errs.ErrUnderflow
	}

	if b.parent.length < n {
		need := n - b.parent.length
		if err := b.parent.BorrowMore(need); err != nil {
			return err
		}
	}

	for i := 0; i < n; i++ {
		b.PushBack(b.parent.PopFront())
	}
	b.borrowed += n

	return nil
}

// EnsureLen guarantees b has at least n valid bits, borrowing the deficit
// from its parent chain via BorrowMore if necessary. It is a no-op if b
// already has at least n bits.
func (b *BitVec) EnsureLen(n int) error {
	if b.length >= n {
		return nil
	}
	return b.BorrowMore(n - b.length)
}
