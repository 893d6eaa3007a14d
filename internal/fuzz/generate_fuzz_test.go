package fuzztests

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"covgram/internal/coverage"
	"covgram/internal/derive"
	"covgram/internal/grammar"
	"covgram/internal/session"
	"covgram/internal/testkit"
)

// generateTimeout bounds a single session; exceeding it means the
// derivation loop failed to terminate.
const generateTimeout = 5 * time.Second

// maxGenerateInput admits the long chain seeds.
const maxGenerateInput = 16 << 10

func FuzzGenerateTerminates(f *testing.F) {
	for i, s := range builtinSeeds {
		f.Add([]byte(s), uint64(i), uint8(i))
	}
	f.Add(chainSeed(420), uint64(7), uint8(0))
	f.Add(chainSeed(300), uint64(8), uint8(3))
	f.Fuzz(func(t *testing.T, input []byte, seed uint64, knobs uint8) {
		if len(input) > maxGenerateInput {
			return
		}
		rules, err := grammar.Decode(bytes.NewReader(input))
		if err != nil {
			return
		}
		mode := coverage.ModeTerminal
		if knobs&1 == 1 {
			mode = coverage.ModeWord
		}
		g, err := session.Compile(rules, mode)
		if err != nil {
			return
		}

		opts := session.DefaultOptions()
		opts.Mode = mode
		opts.Seed = seed
		opts.Policy = derive.Policy(int(knobs>>1) % 3)
		opts.MaxAttempts = 64

		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		done := make(chan struct{})
		var res *session.Result
		var genErr error
		go func() {
			defer close(done)
			res, genErr = session.Generate(ctx, g, opts)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("generation hang detected after %v\ngrammar: %q", generateTimeout, truncateForLog(input, 200))
		}
		if errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded) {
			return
		}
		if genErr != nil {
			t.Fatalf("generate failed on a compiled grammar: %v\ngrammar: %q", genErr, truncateForLog(input, 200))
		}
		if err := testkit.CheckResidual(res.Goal, res.Covered, res.Residual, res.Fraction); err != nil {
			t.Fatalf("residual: %v", err)
		}
		if mode == coverage.ModeWord {
			if err := testkit.CheckWordsSound(res.Inputs, res.Covered); err != nil {
				t.Fatalf("word soundness: %v", err)
			}
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
