package coverage

import "sort"

// Unit is the atomic thing coverage is measured against.
type Unit string

// EmptyUnit is contributed by productions without terminal text in terminal
// mode. It is recorded as covered but never counts toward a goal.
const EmptyUnit Unit = ""

// Set is a set of units.
type Set map[Unit]struct{}

// NewSet builds a set from units.
func NewSet(units ...Unit) Set {
	s := make(Set, len(units))
	for _, u := range units {
		s[u] = struct{}{}
	}
	return s
}

func (s Set) Add(u Unit) {
	s[u] = struct{}{}
}

func (s Set) Has(u Unit) bool {
	_, ok := s[u]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// AddAll inserts every unit of other.
func (s Set) AddAll(other Set) {
	for u := range other {
		s[u] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for u := range s {
		out[u] = struct{}{}
	}
	return out
}

// Minus returns s \ other as a new set.
func (s Set) Minus(other Set) Set {
	out := make(Set, len(s))
	for u := range s {
		if _, ok := other[u]; !ok {
			out[u] = struct{}{}
		}
	}
	return out
}

// Intersect returns s ∩ other as a new set.
func (s Set) Intersect(other Set) Set {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Set, len(small))
	for u := range small {
		if _, ok := big[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out
}

// Contains reports whether every unit of other is in s.
func (s Set) Contains(other Set) bool {
	for u := range other {
		if _, ok := s[u]; !ok {
			return false
		}
	}
	return true
}

// Equal reports set equality.
func (s Set) Equal(other Set) bool {
	return len(s) == len(other) && s.Contains(other)
}

// Sorted returns the units in lexical order.
func (s Set) Sorted() []Unit {
	out := make([]Unit, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted units as strings.
func (s Set) Strings() []string {
	units := s.Sorted()
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = string(u)
	}
	return out
}
