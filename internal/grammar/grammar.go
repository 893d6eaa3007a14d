package grammar

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"covgram/internal/diag"
)

// Rules is the serialised form: nonterminal -> production strings.
type Rules map[string][]string

// Grammar is an immutable, validated grammar.
type Grammar struct {
	start Symbol
	rules map[Symbol][]Production
	order []Symbol // start first, then sorted
	cost  *costTable
}

// Options control grammar construction.
type Options struct {
	Start       Symbol
	Normalize   bool // NFC-normalise symbols and productions
	MaxFindings int  // diag bag limit
	Check       ProductionCheck
}

// ProductionCheck rejects individual productions before references are
// resolved; coverage modes use it to enforce their shape constraints.
type ProductionCheck func(sym Symbol, alt int, p Production) error

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the defaults used by New and Build.
func DefaultOptions() Options {
	return Options{
		Start:       Start,
		Normalize:   true,
		MaxFindings: 100,
	}
}

// WithStart overrides the start symbol.
func WithStart(s Symbol) Option {
	return func(o *Options) { o.Start = s }
}

// WithNormalize toggles NFC normalisation of grammar text.
func WithNormalize(on bool) Option {
	return func(o *Options) { o.Normalize = on }
}

// WithMaxFindings bounds the number of diagnostics Build collects.
func WithMaxFindings(n int) Option {
	return func(o *Options) { o.MaxFindings = n }
}

// WithProductionCheck installs a per-production check.
func WithProductionCheck(check ProductionCheck) Option {
	return func(o *Options) { o.Check = check }
}

// New builds a grammar and returns the first fatal finding as a typed error.
func New(rules Rules, opts ...Option) (*Grammar, error) {
	g, _, errs := build(rules, opts...)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return g, nil
}

// MustNew is New for static grammars in tests and examples.
func MustNew(rules Rules, opts ...Option) *Grammar {
	g, err := New(rules, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// Build constructs the grammar and collects every finding. The grammar is
// nil when the bag holds errors.
func Build(rules Rules, opts ...Option) (*Grammar, *diag.Bag) {
	g, bag, _ := build(rules, opts...)
	return g, bag
}

func build(rules Rules, opts ...Option) (*Grammar, *diag.Bag, []error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g := &Grammar{
		start: o.Start,
		rules: make(map[Symbol][]Production, len(rules)),
	}
	// Keys that normalize to the same symbol merge in source key order.
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, src := range keys {
		alts := rules[src]
		key := src
		if o.Normalize {
			key = norm.NFC.String(key)
		}
		prods := make([]Production, 0, len(alts))
		for _, raw := range alts {
			if o.Normalize {
				raw = norm.NFC.String(raw)
			}
			prods = append(prods, ParseProduction(raw))
		}
		g.rules[Symbol(key)] = append(g.rules[Symbol(key)], prods...)
	}
	g.order = make([]Symbol, 0, len(g.rules))
	for sym := range g.rules {
		if sym != g.start {
			g.order = append(g.order, sym)
		}
	}
	sort.Slice(g.order, func(i, j int) bool { return g.order[i] < g.order[j] })
	if _, ok := g.rules[g.start]; ok {
		g.order = append([]Symbol{g.start}, g.order...)
	}

	v := newValidator(g, o.MaxFindings, o.Check)
	v.run()
	if len(v.errs) > 0 {
		return nil, v.bag, v.errs
	}
	g.cost = v.cost
	return g, v.bag, nil
}

// Start returns the start symbol.
func (g *Grammar) Start() Symbol {
	return g.start
}

// Len returns the number of nonterminals.
func (g *Grammar) Len() int {
	return len(g.order)
}

// Symbols returns the nonterminals, start first, then in sorted order.
func (g *Grammar) Symbols() []Symbol {
	out := make([]Symbol, len(g.order))
	copy(out, g.order)
	return out
}

// Has reports whether sym is a defined nonterminal.
func (g *Grammar) Has(sym Symbol) bool {
	_, ok := g.rules[sym]
	return ok
}

// Productions returns the alternatives of sym. The slice must not be modified.
func (g *Grammar) Productions(sym Symbol) []Production {
	return g.rules[sym]
}

// Rules returns the serialisable form of the grammar.
func (g *Grammar) Rules() Rules {
	out := make(Rules, len(g.rules))
	for sym, prods := range g.rules {
		raw := make([]string, len(prods))
		for i, p := range prods {
			raw[i] = p.Raw
		}
		out[string(sym)] = raw
	}
	return out
}

// MinCost returns the minimal number of expansions needed to fully derive sym.
func (g *Grammar) MinCost(sym Symbol) int {
	return g.cost.symbol(sym)
}

// ProductionCost returns 1 plus the minimal cost of every nonterminal in p.
func (g *Grammar) ProductionCost(p Production) int {
	return g.cost.production(p)
}
