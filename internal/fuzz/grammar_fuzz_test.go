package fuzztests

import (
	"bytes"
	"testing"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
	"covgram/internal/session"
)

const maxFuzzInput = 1 << 16

func FuzzGrammarBuild(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		rules, err := grammar.Decode(bytes.NewReader(input))
		if err != nil {
			return
		}
		g, bag := grammar.Build(rules)
		if g == nil && !bag.HasErrors() {
			t.Fatalf("nil grammar without errors for %q", input)
		}
		if g != nil && bag.HasErrors() {
			t.Fatalf("grammar returned together with errors for %q", input)
		}
	})
}

func FuzzGoalIsFinite(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		rules, err := grammar.Decode(bytes.NewReader(input))
		if err != nil {
			return
		}
		for _, mode := range []coverage.Mode{coverage.ModeTerminal, coverage.ModeWord} {
			g, err := session.Compile(rules, mode)
			if err != nil {
				continue
			}
			goal, err := session.Goal(g, mode)
			if err != nil {
				t.Fatalf("goal for valid grammar failed in %s mode: %v", mode, err)
			}
			if goal.Has(coverage.EmptyUnit) {
				t.Fatalf("goal contains the empty unit in %s mode", mode)
			}
		}
	})
}
