package coverage

// Tracker is the session's covered set. It only grows.
type Tracker struct {
	covered Set
	hits    map[Unit]int
}

func NewTracker() *Tracker {
	return &Tracker{
		covered: make(Set),
		hits:    make(map[Unit]int),
	}
}

// Record marks units as covered and bumps their hit counts.
// It returns how many units were new.
func (t *Tracker) Record(units ...Unit) int {
	added := 0
	for _, u := range units {
		if _, ok := t.covered[u]; !ok {
			t.covered[u] = struct{}{}
			added++
		}
		t.hits[u]++
	}
	return added
}

func (t *Tracker) Covered(u Unit) bool {
	_, ok := t.covered[u]
	return ok
}

func (t *Tracker) Len() int {
	return len(t.covered)
}

// Hits returns how often u has been recorded.
func (t *Tracker) Hits(u Unit) int {
	return t.hits[u]
}

// Snapshot returns a copy of the covered set.
func (t *Tracker) Snapshot() Set {
	return t.covered.Clone()
}

// Uncovered returns the units of s not yet covered, EmptyUnit excluded.
func (t *Tracker) Uncovered(s Set) Set {
	out := make(Set, len(s))
	for u := range s {
		if u == EmptyUnit {
			continue
		}
		if _, ok := t.covered[u]; !ok {
			out[u] = struct{}{}
		}
	}
	return out
}

// Residual is goal minus covered.
func (t *Tracker) Residual(goal Set) Set {
	return t.Uncovered(goal)
}

// ContainsAll reports whether every unit of goal is covered.
func (t *Tracker) ContainsAll(goal Set) bool {
	return t.covered.Contains(goal)
}

// Fraction returns |goal ∩ covered| / |goal|; an empty goal counts as fully
// covered.
func (t *Tracker) Fraction(goal Set) float64 {
	if len(goal) == 0 {
		return 1
	}
	hit := 0
	for u := range goal {
		if _, ok := t.covered[u]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(goal))
}
