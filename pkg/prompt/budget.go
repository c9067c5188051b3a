package prompt

import "github.com/johnstilia/commitscope/pkg/clip"

// TruncatedMarker is appended to a section body clipped by the budget.
const TruncatedMarker = "\n[truncated]"

// Budget tracks the bytes emitted across every section of one prompt
// against a single global limit. A non-positive limit is unbounded.
//
// Fixed text (the task block, section headers) is reserved in full before
// any body is clipped, so only a skeleton larger than the limit overshoots.
type Budget struct {
	limit   int
	used    int
	clipped bool
}

// NewBudget creates a budget of limit bytes.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Used returns the bytes accounted so far.
func (b *Budget) Used() int { return b.used }

// Limit returns the configured limit.
func (b *Budget) Limit() int { return b.limit }

// Remaining returns the bytes still available, or -1 when unbounded.
func (b *Budget) Remaining() int {
	if b.limit <= 0 {
		return -1
	}
	if r := b.limit - b.used; r > 0 {
		return r
	}
	return 0
}

// Clipped reports whether any body was cut or dropped.
func (b *Budget) Clipped() bool { return b.clipped }

// Reserve accounts for text that is emitted regardless of the budget.
func (b *Budget) Reserve(s string) string {
	b.used += len(s)
	return s
}

// Clip returns body cut to the remaining budget, with TruncatedMarker
// appended when anything was dropped, and accounts for the result. When not
// even the marker fits the body is dropped entirely.
func (b *Budget) Clip(body string) string {
	rem := b.Remaining()
	if rem < 0 || len(body) <= rem {
		b.used += len(body)
		return body
	}
	b.clipped = true
	if rem < len(TruncatedMarker) {
		return ""
	}
	out := clip.Bytes(body, rem-len(TruncatedMarker)) + TruncatedMarker
	b.used += len(out)
	return out
}
