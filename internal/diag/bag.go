package diag

import (
	"sort"

	"fortio.org/safecast"
)

type Bag struct {
	items   []*Diagnostic
	max     uint16
	dropped int
}

// NewBag creates a bag that keeps at most max diagnostics.
// Values outside uint16 are clamped.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		if max < 0 {
			limit = 0
		} else {
			limit = ^uint16(0)
		}
	}
	return &Bag{
		items: make([]*Diagnostic, 0, min(int(limit), 64)),
		max:   limit,
	}
}

// Add appends a diagnostic unless the limit is reached.
// Returns false when the diagnostic was dropped.
func (b *Bag) Add(d *Diagnostic) bool {
	if d == nil {
		return false
	}
	if len(b.items) >= int(b.max) {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped counts diagnostics rejected because the bag was full.
func (b *Bag) Dropped() int {
	return b.dropped
}

// HasErrors reports whether any diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	for _, d := range b.items {
		if d.Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the underlying slice. Do not modify it.
func (b *Bag) Items() []*Diagnostic {
	return b.items
}

// First returns the first diagnostic with the given code, or nil.
func (b *Bag) First(code Code) *Diagnostic {
	for _, d := range b.items {
		if d.Code == code {
			return d
		}
	}
	return nil
}

// Merge appends diagnostics from other, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if newTotal > int(b.max) {
		if grown, err := safecast.Conv[uint16](newTotal); err == nil {
			b.max = grown
		} else {
			b.max = ^uint16(0)
		}
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders diagnostics by symbol, alternative, severity (desc), code (asc)
// so output is deterministic.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.Symbol != dj.Primary.Symbol {
			return di.Primary.Symbol < dj.Primary.Symbol
		}
		if di.Primary.Alt != dj.Primary.Alt {
			return di.Primary.Alt < dj.Primary.Alt
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup drops repeated (code, location) pairs.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		loc  Location
	}
	seen := make(map[key]bool, len(b.items))
	newitems := make([]*Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		k := key{code: d.Code, loc: d.Primary}
		if seen[k] {
			continue
		}
		seen[k] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}
