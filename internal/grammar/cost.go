package grammar

import "math"

// Infinite marks a nonterminal with no finite derivation.
const Infinite = math.MaxInt

type costTable struct {
	bySymbol map[Symbol]int
}

// computeCosts runs a fixpoint over cost(N) = min_p (1 + sum cost(child)).
// Symbols that never settle stay Infinite.
func computeCosts(rules map[Symbol][]Production) *costTable {
	t := &costTable{bySymbol: make(map[Symbol]int, len(rules))}
	for sym := range rules {
		t.bySymbol[sym] = Infinite
	}
	for changed := true; changed; {
		changed = false
		for sym, prods := range rules {
			best := t.bySymbol[sym]
			for _, p := range prods {
				if c := t.production(p); c < best {
					best = c
				}
			}
			if best < t.bySymbol[sym] {
				t.bySymbol[sym] = best
				changed = true
			}
		}
	}
	return t
}

func (t *costTable) symbol(sym Symbol) int {
	if t == nil {
		return Infinite
	}
	c, ok := t.bySymbol[sym]
	if !ok {
		return Infinite
	}
	return c
}

func (t *costTable) production(p Production) int {
	total := 1
	for _, s := range p.Symbols {
		if !s.IsNonterminal() || s == Empty {
			continue
		}
		c := t.symbol(s)
		if c == Infinite || total > Infinite-c {
			return Infinite
		}
		total += c
	}
	return total
}
