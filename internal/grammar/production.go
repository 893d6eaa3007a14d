package grammar

import "strings"

// Production is one alternative right-hand side.
type Production struct {
	Raw     string
	Symbols []Symbol
}

// ParseProduction splits raw into terminal and nonterminal symbols.
// Empty terminal pieces between adjacent nonterminals are dropped.
func ParseProduction(raw string) Production {
	p := Production{Raw: raw}
	last := 0
	for _, loc := range nonterminalRE.FindAllStringIndex(raw, -1) {
		if loc[0] > last {
			p.Symbols = append(p.Symbols, Symbol(raw[last:loc[0]]))
		}
		p.Symbols = append(p.Symbols, Symbol(raw[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(raw) {
		p.Symbols = append(p.Symbols, Symbol(raw[last:]))
	}
	return p
}

// Nonterminals returns referenced nonterminals in order, with repeats.
// The <empty> marker is not a reference.
func (p Production) Nonterminals() []Symbol {
	var out []Symbol
	for _, s := range p.Symbols {
		if s.IsNonterminal() && s != Empty {
			out = append(out, s)
		}
	}
	return out
}

// TerminalRuns returns the maximal runs of consecutive terminal text.
func (p Production) TerminalRuns() []string {
	var (
		runs []string
		cur  strings.Builder
		open bool
	)
	for _, s := range p.Symbols {
		if s.IsNonterminal() {
			if open {
				runs = append(runs, cur.String())
				cur.Reset()
				open = false
			}
			continue
		}
		cur.WriteString(string(s))
		open = true
	}
	if open {
		runs = append(runs, cur.String())
	}
	return runs
}

// IsEpsilon reports whether the production is an explicit terminator
// alternative: empty, or led by the <empty> marker.
func (p Production) IsEpsilon() bool {
	return len(p.Symbols) == 0 || p.Symbols[0] == Empty
}

func (p Production) String() string {
	return p.Raw
}
