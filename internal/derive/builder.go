package derive

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/emirpasic/gods/lists/arraylist"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

// Phase is the size-control stage an expansion was made in.
type Phase uint8

const (
	// PhaseGrow offers only the most expensive candidates.
	PhaseGrow Phase = iota
	// PhaseGuided offers every candidate.
	PhaseGuided
	// PhaseClose offers only the cheapest candidates so the tree finishes.
	PhaseClose
)

func (p Phase) String() string {
	switch p {
	case PhaseGrow:
		return "grow"
	case PhaseGuided:
		return "guided"
	case PhaseClose:
		return "close"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// Options bound tree size.
type Options struct {
	// MinNonterminals keeps growing while fewer open nonterminals exist.
	MinNonterminals int
	// MaxFrontier switches to closing once this many nonterminals are open.
	MaxFrontier int
	// MaxNodes switches to closing once the tree has this many nodes.
	// From then on only cheapest productions are taken, so the tree ends
	// after the minimal completion of every open nonterminal.
	MaxNodes int
}

func DefaultOptions() Options {
	return Options{
		MinNonterminals: 1,
		MaxFrontier:     10,
		MaxNodes:        200,
	}
}

// Expansion reports one applied expansion to an observer.
type Expansion struct {
	Node   NodeID
	Symbol grammar.Symbol
	Alt    int
	Phase  Phase
	Units  []coverage.Unit
	Added  int // units that were new to the tracker
}

// Builder derives trees for one session.
type Builder struct {
	index   *coverage.Index
	tracker *coverage.Tracker
	chooser Chooser
	rng     *rand.Rand
	opts    Options
	width   int // most children a single expansion can add

	// Observe, when set, is called after every expansion.
	Observe func(Expansion)
}

func NewBuilder(index *coverage.Index, tracker *coverage.Tracker, chooser Chooser, rng *rand.Rand, opts Options) *Builder {
	def := DefaultOptions()
	if opts.MaxFrontier <= 0 {
		opts.MaxFrontier = def.MaxFrontier
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.MinNonterminals < 0 {
		opts.MinNonterminals = 0
	}
	return &Builder{
		index:   index,
		tracker: tracker,
		chooser: chooser,
		rng:     rng,
		opts:    opts,
		width:   maxWidth(index),
	}
}

func maxWidth(index *coverage.Index) int {
	word := index.Mode() == coverage.ModeWord
	g := index.Grammar()
	width := 1
	for _, sym := range g.Symbols() {
		for _, p := range g.Productions(sym) {
			width = max(width, childCount(p, word))
		}
	}
	return width
}

// childCount is the number of nodes expand attaches for p.
func childCount(p grammar.Production, word bool) int {
	n := 0
	for _, s := range p.Symbols {
		if word && !s.IsNonterminal() {
			n += len(strings.Fields(string(s)))
			continue
		}
		n++
	}
	return n
}

func (b *Builder) Options() Options {
	return b.opts
}

// Build derives one complete tree from the start symbol. Every chosen
// production's units are recorded in the tracker.
func (b *Builder) Build() (*Tree, error) {
	g := b.index.Grammar()
	t := newTree(g.Start())
	limit := 0 // set once closing starts

	frontier := arraylist.New()
	frontier.Add(t.Root())
	emitted := 0

	for !frontier.Empty() {
		phase := b.phase(frontier.Size(), t.Len())

		i := b.rng.IntN(frontier.Size())
		v, _ := frontier.Get(i)
		frontier.Remove(i)
		id := v.(NodeID)
		sym := t.Node(id).Symbol

		cands := b.candidates(g, sym, phase)
		pick, err := b.chooser.Choose(Decision{Symbol: sym, Candidates: cands, Emitted: emitted})
		if err != nil {
			return nil, err
		}
		if pick < 0 || pick >= len(cands) {
			return nil, fmt.Errorf("derive: chooser returned %d for %d candidates of %s", pick, len(cands), sym)
		}
		c := cands[pick]

		units := b.index.Keys(sym, c.Alt)
		added := b.tracker.Record(units...)

		open, n := b.expand(t, id, c)
		emitted += n
		for _, child := range open {
			frontier.Add(child)
		}
		if b.Observe != nil {
			b.Observe(Expansion{Node: id, Symbol: sym, Alt: c.Alt, Phase: phase, Units: units, Added: added})
		}
		if limit == 0 && t.Len() >= b.opts.MaxNodes {
			limit = b.closingLimit(g, t, frontier)
		}
		if limit > 0 && t.Len() > limit {
			return nil, fmt.Errorf("%w: %d nodes (limit %d)", ErrTreeBudget, t.Len(), limit)
		}
	}
	return t, nil
}

// closingLimit is the largest size t can reach when every open node is
// finished with cheapest productions: MinCost expansions each, and no
// expansion adds more than width nodes.
func (b *Builder) closingLimit(g *grammar.Grammar, t *Tree, frontier *arraylist.List) int {
	limit := t.Len()
	frontier.Each(func(_ int, v any) {
		c := g.MinCost(t.Node(v.(NodeID)).Symbol)
		if c == grammar.Infinite || c > (grammar.Infinite-limit)/b.width {
			limit = grammar.Infinite
			return
		}
		limit += c * b.width
	})
	return limit
}

func (b *Builder) phase(open, nodes int) Phase {
	switch {
	case nodes >= b.opts.MaxNodes:
		return PhaseClose
	case open < b.opts.MinNonterminals:
		return PhaseGrow
	case open < b.opts.MaxFrontier:
		return PhaseGuided
	default:
		return PhaseClose
	}
}

// candidates returns the productions of sym admissible in phase.
func (b *Builder) candidates(g *grammar.Grammar, sym grammar.Symbol, phase Phase) []Candidate {
	prods := g.Productions(sym)
	all := make([]Candidate, len(prods))
	for i, p := range prods {
		all[i] = Candidate{Alt: i, Production: p}
	}
	if phase == PhaseGuided || len(all) < 2 {
		return all
	}

	costs := make([]int, len(all))
	target := g.ProductionCost(all[0].Production)
	for i, c := range all {
		costs[i] = g.ProductionCost(c.Production)
		if phase == PhaseGrow {
			target = max(target, costs[i])
		} else {
			target = min(target, costs[i])
		}
	}
	out := make([]Candidate, 0, len(all))
	for i, c := range all {
		if costs[i] == target {
			out = append(out, c)
		}
	}
	return out
}

// expand attaches the children of c to id. It returns the new open
// nonterminals and the number of runes of terminal text added.
func (b *Builder) expand(t *Tree, id NodeID, c Candidate) ([]NodeID, int) {
	var (
		open    []NodeID
		emitted int
	)
	word := b.index.Mode() == coverage.ModeWord
	children := make([]NodeID, 0, len(c.Production.Symbols))
	for _, s := range c.Production.Symbols {
		switch {
		case s == grammar.Empty:
			children = append(children, t.add(Node{Symbol: s, Expanded: true, Alt: -1}))
		case s.IsNonterminal():
			child := t.add(Node{Symbol: s, Alt: -1})
			children = append(children, child)
			open = append(open, child)
		case word:
			for _, tok := range strings.Fields(string(s)) {
				children = append(children, t.add(Node{Symbol: grammar.Symbol(tok), Expanded: true, Leaf: true, Alt: -1}))
				emitted += utf8.RuneCountInString(tok)
			}
		default:
			children = append(children, t.add(Node{Symbol: s, Expanded: true, Leaf: true, Alt: -1}))
			emitted += utf8.RuneCountInString(string(s))
		}
	}
	n := t.Node(id)
	n.Children = children
	n.Expanded = true
	n.Alt = c.Alt
	return open, emitted
}
