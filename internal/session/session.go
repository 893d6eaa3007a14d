package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"covgram/internal/coverage"
	"covgram/internal/derive"
	"covgram/internal/grammar"
	"covgram/internal/observ"
	"covgram/internal/trace"
)

// DefaultStrikes is the number of consecutive non-progressing attempts
// after which a session gives up.
const DefaultStrikes = 4

// Options configure one session.
type Options struct {
	Mode        coverage.Mode
	Seed        uint64
	Policy      derive.Policy
	TieBreak    derive.TieBreak
	Fallback    derive.Fallback
	Tree        derive.Options
	CacheSize   int // reachability cache entries; <= 0 disables it
	MaxAttempts int // 0 means unbounded
	Strikes     int

	// Goal, when set, replaces the computed goal. It must have been
	// computed for the same grammar and mode.
	Goal coverage.Set

	Timer *observ.Timer
}

func DefaultOptions() Options {
	return Options{
		Mode:      coverage.ModeTerminal,
		Tree:      derive.DefaultOptions(),
		CacheSize: coverage.DefaultCacheSize,
		Strikes:   DefaultStrikes,
	}
}

// Result is the outcome of a session.
type Result struct {
	Inputs   []string // kept inputs in the order they were found
	Paths    []string // nonterminal path form of each kept input
	Goal     coverage.Set
	Covered  coverage.Set
	Residual coverage.Set
	Fraction float64
	Attempts int
	Warning  *StagnationWarning
	Cache    coverage.CacheStats
	Choices  derive.SelectorStats
}

// Complete reports whether every goal unit was covered.
func (r *Result) Complete() bool {
	return r.Residual.Len() == 0
}

// Compile builds a grammar that is valid for mode, rejecting productions the
// mode cannot account for before anything else is checked.
func Compile(rules grammar.Rules, mode coverage.Mode, opts ...grammar.Option) (*grammar.Grammar, error) {
	opts = append(opts, grammar.WithProductionCheck(coverage.Check(mode)))
	return grammar.New(rules, opts...)
}

// Goal computes the coverage goal of g under mode from an empty covered set.
func Goal(g *grammar.Grammar, mode coverage.Mode) (coverage.Set, error) {
	ix, err := coverage.NewIndex(g, mode)
	if err != nil {
		return nil, err
	}
	eng, err := coverage.NewEngine(ix, coverage.NewTracker(), 0)
	if err != nil {
		return nil, err
	}
	return eng.MaxGoal(), nil
}

// Generate runs one session over g.
func Generate(ctx context.Context, g *grammar.Grammar, opts Options) (*Result, error) {
	if opts.Strikes <= 0 {
		opts.Strikes = DefaultStrikes
	}

	done := opts.Timer.Track("index")
	index, err := coverage.NewIndex(g, opts.Mode)
	if err != nil {
		done("failed")
		return nil, fmt.Errorf("session: %w", err)
	}
	tracker := coverage.NewTracker()
	engine, err := coverage.NewEngine(index, tracker, opts.CacheSize)
	if err != nil {
		done("failed")
		return nil, fmt.Errorf("session: %w", err)
	}
	done(opts.Mode.String())

	goal := opts.Goal
	if goal == nil {
		done = opts.Timer.Track("goal")
		goal = engine.MaxGoal()
		done(fmt.Sprintf("%d units", goal.Len()))
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	sel := derive.NewSelector(engine, index, tracker, rng, derive.SelectorConfig{
		Policy:   opts.Policy,
		TieBreak: opts.TieBreak,
		Fallback: opts.Fallback,
		Goal:     goal,
	})
	builder := derive.NewBuilder(index, tracker, sel, rng, opts.Tree)

	span, ctx := trace.Start(ctx, trace.ScopeSession, "session")
	span.WithExtra("seed", strconv.FormatUint(opts.Seed, 10)).
		WithExtra("goal", strconv.Itoa(goal.Len()))

	attemptCtx := ctx
	builder.Observe = func(e derive.Expansion) {
		if e.Added == 0 {
			return
		}
		trace.Point(attemptCtx, trace.ScopeNode, "covered", string(e.Symbol), map[string]string{
			"alt":   strconv.Itoa(e.Alt),
			"phase": e.Phase.String(),
			"new":   strconv.Itoa(e.Added),
		})
	}

	res := &Result{Goal: goal}
	seen := make(map[string]struct{})
	strikes := 0

	done = opts.Timer.Track("generate")
	for tracker.Residual(goal).Len() > 0 {
		if err := ctx.Err(); err != nil {
			done("cancelled")
			span.End("cancelled")
			return nil, err
		}
		if opts.MaxAttempts > 0 && res.Attempts >= opts.MaxAttempts {
			res.Warning = stagnation(res.Attempts, strikes, tracker, goal)
			res.Warning.Capped = true
			break
		}

		res.Attempts++
		before := tracker.Residual(goal).Len()

		var aspan *trace.Span
		aspan, attemptCtx = trace.Start(ctx, trace.ScopeAttempt, "attempt")
		tree, err := builder.Build()
		if err != nil {
			aspan.End(err.Error())
			done("failed")
			span.End("failed")
			return nil, fmt.Errorf("session: attempt %d: %w", res.Attempts, err)
		}
		input := tree.Flatten(opts.Mode)
		after := tracker.Residual(goal).Len()

		if after < before {
			strikes = 0
			if _, dup := seen[input]; !dup {
				seen[input] = struct{}{}
				res.Inputs = append(res.Inputs, input)
				res.Paths = append(res.Paths, tree.Symbols())
			}
			aspan.WithExtra("gained", strconv.Itoa(before-after))
		} else {
			strikes++
			aspan.WithExtra("strikes", strconv.Itoa(strikes))
		}
		aspan.End(strconv.Quote(input))

		if strikes >= opts.Strikes {
			res.Warning = stagnation(res.Attempts, strikes, tracker, goal)
			trace.Point(ctx, trace.ScopeSession, "stagnation", res.Warning.Error(), nil)
			break
		}
	}
	done(fmt.Sprintf("%d attempts", res.Attempts))

	res.Covered = tracker.Snapshot()
	res.Residual = tracker.Residual(goal)
	res.Fraction = tracker.Fraction(goal)
	res.Cache = engine.Stats()
	res.Choices = sel.Stats()

	span.WithExtra("inputs", strconv.Itoa(len(res.Inputs))).
		WithExtra("fraction", strconv.FormatFloat(res.Fraction, 'f', 2, 64))
	span.End("")
	return res, nil
}

func stagnation(attempts, strikes int, tracker *coverage.Tracker, goal coverage.Set) *StagnationWarning {
	return &StagnationWarning{
		Attempts: attempts,
		Strikes:  strikes,
		Residual: tracker.Residual(goal).Len(),
		Goal:     goal.Len(),
		Fraction: tracker.Fraction(goal),
	}
}
