package coverage

import "covgram/internal/grammar"

// Index holds the units of every production of a grammar under one mode.
type Index struct {
	g    *grammar.Grammar
	mode Mode
	keys map[grammar.Symbol][][]Unit
}

// NewIndex computes keys for every production, failing with
// *MalformedProductionError on the first production the mode rejects.
func NewIndex(g *grammar.Grammar, mode Mode) (*Index, error) {
	ix := &Index{
		g:    g,
		mode: mode,
		keys: make(map[grammar.Symbol][][]Unit, g.Len()),
	}
	for _, sym := range g.Symbols() {
		prods := g.Productions(sym)
		perAlt := make([][]Unit, len(prods))
		for alt, p := range prods {
			units, err := ProductionKeys(mode, sym, alt, p)
			if err != nil {
				return nil, err
			}
			perAlt[alt] = units
		}
		ix.keys[sym] = perAlt
	}
	return ix, nil
}

func (ix *Index) Grammar() *grammar.Grammar {
	return ix.g
}

func (ix *Index) Mode() Mode {
	return ix.mode
}

// Keys returns the units of alternative alt of sym. Do not modify the slice.
func (ix *Index) Keys(sym grammar.Symbol, alt int) []Unit {
	alts := ix.keys[sym]
	if alt < 0 || alt >= len(alts) {
		return nil
	}
	return alts[alt]
}

// AllUnits returns every unit mentioned anywhere in the grammar, excluding
// EmptyUnit.
func (ix *Index) AllUnits() Set {
	out := make(Set)
	for _, alts := range ix.keys {
		for _, units := range alts {
			for _, u := range units {
				if u != EmptyUnit {
					out.Add(u)
				}
			}
		}
	}
	return out
}
