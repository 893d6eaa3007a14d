package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"covgram/internal/coverage"
	"covgram/internal/derive"
	"covgram/internal/grammar"
	"covgram/internal/observ"
	"covgram/internal/testkit"
	"covgram/internal/trace"
)

var exprRules = grammar.Rules{
	"<start>":   {"<expr>"},
	"<expr>":    {"<term><addop><expr>", "<term>"},
	"<addop>":   {"+", "-"},
	"<term>":    {"<factor><mulop><term>", "<factor>"},
	"<mulop>":   {"*", "/"},
	"<factor>":  {"<sign><factor>", "<open><expr><close>", "<integer>"},
	"<sign>":    {"+", "-"},
	"<open>":    {"("},
	"<close>":   {")"},
	"<integer>": {"<digit><integer>", "<digit>"},
	"<digit>":   {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
}

func generate(t *testing.T, rules grammar.Rules, opts Options) *Result {
	t.Helper()
	g, err := Compile(rules, opts.Mode)
	require.NoError(t, err)
	res, err := Generate(context.Background(), g, opts)
	require.NoError(t, err)
	require.NoError(t, testkit.CheckResidual(res.Goal, res.Covered, res.Residual, res.Fraction))
	return res
}

func TestDigitsScenario(t *testing.T) {
	opts := DefaultOptions()
	res := generate(t, grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1", "2"},
	}, opts)

	require.Equal(t, coverage.NewSet("0", "1", "2"), res.Goal)
	require.ElementsMatch(t, []string{"0", "1", "2"}, res.Inputs)
	require.Equal(t, 3, res.Attempts)
	require.Nil(t, res.Warning)
	require.True(t, res.Complete())
	require.InDelta(t, 1.0, res.Fraction, 1e-9)
}

func TestSelfRecursiveScenario(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		opts := DefaultOptions()
		opts.Seed = seed
		res := generate(t, grammar.Rules{
			"<start>": {"<a>"},
			"<a>":     {"x<a>", ""},
		}, opts)
		require.True(t, res.Complete(), "seed %d", seed)
		require.Equal(t, []string{"x"}, res.Inputs)
		require.Equal(t, []string{"<start> <a> <a>"}, res.Paths)
	}
}

func TestMalformedScenario(t *testing.T) {
	_, err := Compile(grammar.Rules{"<start>": {"a<x>b"}}, coverage.ModeTerminal)
	var malformed *coverage.MalformedProductionError
	require.ErrorAs(t, err, &malformed)

	g := grammar.MustNew(grammar.Rules{"<start>": {"a<x>b"}, "<x>": {""}})
	_, err = Generate(context.Background(), g, DefaultOptions())
	require.ErrorAs(t, err, &malformed)
}

func TestUnreachableGoalStagnates(t *testing.T) {
	opts := DefaultOptions()
	opts.Tree = derive.Options{MaxNodes: 2}
	res := generate(t, grammar.Rules{
		"<start>": {"<a>"},
		"<a>":     {"<b>", "a"},
		"<b>":     {"b"},
	}, opts)

	require.NotNil(t, res.Warning)
	require.False(t, res.Warning.Capped)
	require.Equal(t, DefaultStrikes, res.Warning.Strikes)
	require.Equal(t, 1, res.Warning.Residual)
	require.Greater(t, res.Fraction, 0.0)
	require.Less(t, res.Fraction, 1.0)
	require.Equal(t, []string{"a"}, res.Inputs)
	require.Equal(t, 1+DefaultStrikes, res.Attempts)
	require.Contains(t, res.Warning.Error(), "0.50")
}

func TestWordModeScenario(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = coverage.ModeWord
	res := generate(t, grammar.Rules{
		"<start>": {"<act>"},
		"<act>":   {"click button", "swipe left"},
	}, opts)

	require.Equal(t, coverage.NewSet("click", "button", "swipe", "left"), res.Goal)
	require.ElementsMatch(t, []string{"click button", "swipe left"}, res.Inputs)
	require.GreaterOrEqual(t, res.Attempts, 2)
	require.NoError(t, testkit.CheckWordsSound(res.Inputs, res.Covered))
}

func TestTerminationOnRecursiveGrammars(t *testing.T) {
	grammars := map[string]grammar.Rules{
		"expr": exprRules,
		"mutual": {
			"<start>": {"<a>"},
			"<a>":     {"a<b>", "<empty>"},
			"<b>":     {"b<a>", "<a><b>", "c"},
		},
		"list": {
			"<start>": {"<list>"},
			"<list>":  {"<item><list>", "<item>"},
			"<item>":  {"k", "l", "m"},
		},
	}
	policies := []derive.Policy{derive.PolicyCoverage, derive.PolicyLeastSeen, derive.PolicyRandom}
	for name, rules := range grammars {
		for _, pol := range policies {
			t.Run(name+"/"+pol.String(), func(t *testing.T) {
				opts := DefaultOptions()
				opts.Policy = pol
				opts.Seed = 7
				opts.MaxAttempts = 500
				res := generate(t, rules, opts)
				require.True(t, res.Complete() || res.Warning != nil)
				require.LessOrEqual(t, res.Attempts, 500)
			})
		}
	}
}

func TestCoveragePolicyCoversExpressions(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		opts := DefaultOptions()
		opts.Seed = seed
		res := generate(t, exprRules, opts)
		require.True(t, res.Complete(), "seed %d residual %v", seed, res.Residual.Sorted())
		require.Len(t, res.Goal, 16)
	}
}

func TestMonotonicAndSoundAttempts(t *testing.T) {
	g, err := Compile(exprRules, coverage.ModeTerminal)
	require.NoError(t, err)
	ix, err := coverage.NewIndex(g, coverage.ModeTerminal)
	require.NoError(t, err)
	tr := coverage.NewTracker()
	eng, err := coverage.NewEngine(ix, tr, coverage.DefaultCacheSize)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(3, 4))
	sel := derive.NewSelector(eng, ix, tr, rng, derive.SelectorConfig{Goal: eng.MaxGoal()})
	b := derive.NewBuilder(ix, tr, sel, rng, derive.DefaultOptions())

	prev := tr.Snapshot()
	for i := 0; i < 30; i++ {
		tree, err := b.Build()
		require.NoError(t, err)
		next := tr.Snapshot()
		require.NoError(t, testkit.CheckMonotonic(prev, next))
		require.NoError(t, testkit.CheckTreeSound(tree, next))
		require.NoError(t, testkit.CheckGoalIdempotent(eng, g.Start(), g.Len()))
		prev = next
	}
}

func TestGranularityEquivalence(t *testing.T) {
	g, err := Compile(exprRules, coverage.ModeTerminal)
	require.NoError(t, err)
	terminal, err := Goal(g, coverage.ModeTerminal)
	require.NoError(t, err)
	word, err := Goal(g, coverage.ModeWord)
	require.NoError(t, err)
	require.Equal(t, terminal.Len(), word.Len())
}

func TestPrecomputedGoal(t *testing.T) {
	opts := DefaultOptions()
	opts.Goal = coverage.NewSet("1")
	res := generate(t, grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1", "2"},
	}, opts)
	require.True(t, res.Complete())
	require.Len(t, res.Goal, 1)
}

func TestMaxAttemptsCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxAttempts = 1
	res := generate(t, grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1", "2"},
	}, opts)
	require.NotNil(t, res.Warning)
	require.True(t, res.Warning.Capped)
	require.Equal(t, 1, res.Attempts)
	require.Len(t, res.Inputs, 1)
}

func TestCancelledContext(t *testing.T) {
	g, err := Compile(exprRules, coverage.ModeTerminal)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Generate(ctx, g, DefaultOptions())
	require.True(t, errors.Is(err, context.Canceled))
}

func TestTraceAndTimings(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)

	g, err := Compile(grammar.Rules{
		"<start>": {"<digit>"},
		"<digit>": {"0", "1"},
	}, coverage.ModeTerminal)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Timer = observ.NewTimer()
	_, err = Generate(ctx, g, opts)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "→ session")
	require.Contains(t, out, "→ attempt")
	require.Contains(t, out, "• covered")
	require.True(t, strings.Contains(opts.Timer.Summary(), "generate"))
}

func TestLongChainCompletes(t *testing.T) {
	const n = 420
	rules := grammar.Rules{"<start>": {"<s0>"}}
	for i := range n - 1 {
		rules[fmt.Sprintf("<s%d>", i)] = []string{fmt.Sprintf("a%d<s%d>", i, i+1)}
	}
	rules[fmt.Sprintf("<s%d>", n-1)] = []string{fmt.Sprintf("a%d", n-1)}

	res := generate(t, rules, DefaultOptions())
	require.Nil(t, res.Warning)
	require.True(t, res.Complete())
	require.Equal(t, n, res.Goal.Len())
	require.Len(t, res.Inputs, 1)
	require.True(t, strings.HasSuffix(res.Inputs[0], "a418a419"))
}
