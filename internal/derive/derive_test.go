package derive

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/stretchr/testify/require"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

type fixture struct {
	index    *coverage.Index
	tracker  *coverage.Tracker
	engine   *coverage.Engine
	selector *Selector
	rng      *rand.Rand
}

func newFixture(t *testing.T, rules grammar.Rules, mode coverage.Mode, cfg SelectorConfig) *fixture {
	t.Helper()
	g, err := grammar.New(rules, grammar.WithProductionCheck(coverage.Check(mode)))
	require.NoError(t, err)
	ix, err := coverage.NewIndex(g, mode)
	require.NoError(t, err)
	tr := coverage.NewTracker()
	eng, err := coverage.NewEngine(ix, tr, coverage.DefaultCacheSize)
	require.NoError(t, err)
	if cfg.Goal == nil {
		cfg.Goal = eng.MaxGoal()
	}
	rng := rand.New(rand.NewPCG(1, 2))
	return &fixture{
		index:    ix,
		tracker:  tr,
		engine:   eng,
		selector: NewSelector(eng, ix, tr, rng, cfg),
		rng:      rng,
	}
}

func (f *fixture) builder(opts Options) *Builder {
	return NewBuilder(f.index, f.tracker, f.selector, f.rng, opts)
}

type chooserFunc func(Decision) (int, error)

func (fn chooserFunc) Choose(d Decision) (int, error) { return fn(d) }

func TestSelfRecursionTakesEpsilon(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<a>"},
		"<a>":     {"x<a>", ""},
	}, coverage.ModeTerminal, SelectorConfig{})

	tree, err := f.builder(DefaultOptions()).Build()
	require.NoError(t, err)
	require.Equal(t, "x", tree.Flatten(coverage.ModeTerminal))
	require.Equal(t, "<start> <a> <a>", tree.Symbols())
	require.True(t, f.tracker.Covered("x"))
	require.Equal(t, 1, f.selector.Stats().LoopBreaks)
}

func TestRepeatGuardForcesEpsilon(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<l>"},
		"<l>":     {"<item><l>", "<empty>"},
		"<item>":  {"a", "b", "c", "d", "e", "f"},
	}, coverage.ModeTerminal, SelectorConfig{TieBreak: TieFirst})

	prods := f.index.Grammar().Productions("<l>")
	d := Decision{Symbol: "<l>", Candidates: []Candidate{
		{Alt: 0, Production: prods[0]},
		{Alt: 1, Production: prods[1]},
	}}
	for i := 0; i <= DefaultRepeatLimit; i++ {
		got, err := f.selector.Choose(d)
		require.NoError(t, err)
		require.Equal(t, 0, got, "decision %d", i)
	}
	got, err := f.selector.Choose(d)
	require.NoError(t, err)
	require.Equal(t, 1, got)
	require.Equal(t, 1, f.selector.Stats().Guarded)

	_, err = f.selector.Choose(Decision{Symbol: "<item>"})
	require.ErrorIs(t, err, ErrNoCandidates)
}

func TestCoverageSelectorPrefersNewUnits(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1", "2"},
	}, coverage.ModeTerminal, SelectorConfig{})
	f.tracker.Record("0", "2")

	tree, err := f.builder(DefaultOptions()).Build()
	require.NoError(t, err)
	require.Equal(t, "1", tree.Flatten(coverage.ModeTerminal))
}

func TestLeastSeenPolicy(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1", "2"},
	}, coverage.ModeTerminal, SelectorConfig{Policy: PolicyLeastSeen})
	f.tracker.Record("0", "0", "1", "2", "2")

	tree, err := f.builder(DefaultOptions()).Build()
	require.NoError(t, err)
	require.Equal(t, "1", tree.Flatten(coverage.ModeTerminal))
	require.Equal(t, 2, f.tracker.Hits("1"))
}

func TestWordModeTreeIsSound(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<act>"},
		"<act>":   {"click button", "swipe left"},
	}, coverage.ModeWord, SelectorConfig{})

	tree, err := f.builder(DefaultOptions()).Build()
	require.NoError(t, err)
	out := tree.Flatten(coverage.ModeWord)
	require.Contains(t, []string{"click button", "swipe left"}, out)
	for _, u := range coverage.Words(out) {
		require.True(t, f.tracker.Covered(u), "unit %q not recorded", u)
	}
	require.InDelta(t, 0.5, f.tracker.Fraction(f.selector.cfg.Goal), 1e-9)
	require.Len(t, tree.Leaves(), 2)
}

func TestClosePhaseBoundsRecursion(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<l>"},
		"<l>":     {"<l><l>", "a"},
	}, coverage.ModeTerminal, SelectorConfig{Policy: PolicyRandom})

	b := f.builder(Options{MaxFrontier: 4, MaxNodes: 10})
	for range 50 {
		tree, err := b.Build()
		require.NoError(t, err)
		require.LessOrEqual(t, tree.Len(), 40)
		for _, leaf := range tree.Leaves() {
			require.Equal(t, "a", leaf)
		}
	}
}

func TestClosePhaseRestrictsToCheapest(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<a>"},
		"<a>":     {"<b>", "a"},
		"<b>":     {"b"},
	}, coverage.ModeTerminal, SelectorConfig{})

	var phases []Phase
	b := f.builder(Options{MaxNodes: 2})
	b.Observe = func(e Expansion) { phases = append(phases, e.Phase) }

	tree, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, "a", tree.Flatten(coverage.ModeTerminal))
	require.Equal(t, []Phase{PhaseGuided, PhaseClose}, phases)
	require.False(t, f.tracker.Covered("b"))
}

func chainRules(n int) grammar.Rules {
	rules := grammar.Rules{"<start>": {"<s0>"}}
	for i := range n - 1 {
		rules[fmt.Sprintf("<s%d>", i)] = []string{fmt.Sprintf("a%d<s%d>", i, i+1)}
	}
	rules[fmt.Sprintf("<s%d>", n-1)] = []string{fmt.Sprintf("a%d", n-1)}
	return rules
}

func TestLongChainOutgrowsMaxNodes(t *testing.T) {
	f := newFixture(t, chainRules(420), coverage.ModeTerminal, SelectorConfig{})

	tree, err := f.builder(DefaultOptions()).Build()
	require.NoError(t, err)
	require.Greater(t, tree.Len(), 4*DefaultOptions().MaxNodes)
	require.Len(t, tree.Leaves(), 420)
	require.True(t, f.tracker.Covered("a419"))
}

func TestWideProductionClosesPastMaxNodes(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<a><a><a><a><a><a><a><a><a><a>"},
		"<a>":     {"a"},
	}, coverage.ModeTerminal, SelectorConfig{})

	tree, err := f.builder(Options{MaxNodes: 2}).Build()
	require.NoError(t, err)
	require.Equal(t, 21, tree.Len())
	require.Equal(t, "aaaaaaaaaa", tree.Flatten(coverage.ModeTerminal))
}

func TestClosingLimitBoundsCheapestCompletion(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<l>"},
		"<l>":     {"<l> <l> <l>", "x y z"},
	}, coverage.ModeWord, SelectorConfig{})
	b := f.builder(Options{MaxNodes: 1})
	require.Equal(t, 3, b.width)

	tr := newTree("<start>")
	frontier := arraylist.New()
	frontier.Add(tr.Root())
	// <start> then <l>: two expansions of at most three nodes each.
	require.Equal(t, 1+2*3, b.closingLimit(f.index.Grammar(), tr, frontier))

	tree, err := b.Build()
	require.NoError(t, err)
	require.LessOrEqual(t, tree.Len(), 1+2*3)
	require.Equal(t, "x y z", tree.Flatten(coverage.ModeWord))
}

func TestGrowPhaseReachesMinNonterminals(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"<l>"},
		"<l>":     {"<l><l>", "a"},
	}, coverage.ModeTerminal, SelectorConfig{Policy: PolicyRandom})

	grown := 0
	b := f.builder(Options{MinNonterminals: 3, MaxFrontier: 6, MaxNodes: 50})
	b.Observe = func(e Expansion) {
		if e.Phase == PhaseGrow {
			grown++
			require.Equal(t, 0, e.Alt, "grow phase took the cheap alternative of %s", e.Symbol)
		}
	}
	tree, err := b.Build()
	require.NoError(t, err)
	require.Positive(t, grown)
	require.GreaterOrEqual(t, len(tree.Leaves()), 3)

	grown = 0
	plain := f.builder(DefaultOptions())
	plain.Observe = b.Observe
	_, err = plain.Build()
	require.NoError(t, err)
	require.Zero(t, grown)
}

func TestChooserOutOfRange(t *testing.T) {
	f := newFixture(t, grammar.Rules{
		"<start>": {"a", "b"},
	}, coverage.ModeTerminal, SelectorConfig{})

	b := NewBuilder(f.index, f.tracker, chooserFunc(func(d Decision) (int, error) {
		return len(d.Candidates), nil
	}), f.rng, DefaultOptions())
	_, err := b.Build()
	require.Error(t, err)
}

func TestParseSelectorSettings(t *testing.T) {
	p, err := ParsePolicy("least-seen")
	require.NoError(t, err)
	require.Equal(t, PolicyLeastSeen, p)
	tb, err := ParseTieBreak("uncovered-first")
	require.NoError(t, err)
	require.Equal(t, TieUncoveredFirst, tb)
	fb, err := ParseFallback("epsilon")
	require.NoError(t, err)
	require.Equal(t, FallbackEpsilon, fb)
	_, err = ParsePolicy("greedy")
	require.Error(t, err)
}

func TestExpandedNodeKeysMatchProductionKeys(t *testing.T) {
	shared := grammar.Rules{
		"<start>":  {"<cmd>"},
		"<target>": {"ok button", "<empty>"},
		"<dir>":    {"left", "right"},
	}
	cmds := map[coverage.Mode][]string{
		coverage.ModeTerminal: {"tap <target>", "swipe <dir>", "<empty>"},
		coverage.ModeWord:     {"tap <target> twice", "swipe <dir>", "<empty>"},
	}
	for mode, cmd := range cmds {
		rules := grammar.Rules{"<cmd>": cmd}
		for sym, alts := range shared {
			rules[sym] = alts
		}
		f := newFixture(t, rules, mode, SelectorConfig{})
		for range 8 {
			tree, err := f.builder(DefaultOptions()).Build()
			require.NoError(t, err)
			for i := range tree.Len() {
				id := NodeID(i)
				n := tree.Node(id)
				if n.Leaf || !n.Expanded || n.Alt < 0 {
					continue
				}
				got, err := tree.Keys(id, mode)
				require.NoError(t, err)
				want := f.index.Keys(n.Symbol, n.Alt)
				require.True(t, coverage.NewSet(got...).Equal(coverage.NewSet(want...)),
					"%s mode, %s#%d: tree keys %v, production keys %v", mode, n.Symbol, n.Alt, got, want)
			}
		}
	}

	_, err := newTree("<start>").Keys(0, coverage.ModeTerminal)
	require.Error(t, err)
}
