// Package pipeline runs all seeds of a package: load the grammar, compute
// (or fetch) the goal, fan the independent sessions out, and write one
// input file per seed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"covgram/internal/corpus"
	"covgram/internal/coverage"
	"covgram/internal/diag"
	"covgram/internal/goalcache"
	"covgram/internal/grammar"
	"covgram/internal/observ"
	"covgram/internal/session"
	"covgram/internal/trace"
)

// Request describes one run.
type Request struct {
	Layout   corpus.Layout
	Seeds    int
	SeedBase uint64
	Jobs     int // <= 0 means GOMAXPROCS
	Session  session.Options
	Cache    *goalcache.Cache // nil disables the goal cache
	Progress ProgressSink
	DryRun   bool // generate without writing files
	Timer    *observ.Timer
}

// SeedResult is the outcome of one seed.
type SeedResult struct {
	Index   int
	Seed    uint64
	Path    string
	Result  *session.Result
	Elapsed time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Grammar    *grammar.Grammar
	Bag        *diag.Bag
	Goal       coverage.Set
	GoalCached bool
	Seeds      []SeedResult
	Timings    Timings
}

// Stagnated counts seeds that stopped early.
func (r *Result) Stagnated() int {
	n := 0
	for _, s := range r.Seeds {
		if s.Result != nil && s.Result.Warning != nil {
			n++
		}
	}
	return n
}

// Load reads and validates the grammar of layout. The bag always carries
// every finding; the error is the first fatal one.
func Load(layout corpus.Layout) (*grammar.Grammar, *diag.Bag, error) {
	rules, err := layout.LoadRules()
	if err != nil {
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.IOLoadFileError, diag.Location{}, err.Error()))
		return nil, bag, err
	}
	check := grammar.WithProductionCheck(coverage.Check(layout.Mode))
	g, bag := grammar.Build(rules, check)
	if bag.HasErrors() {
		_, err := grammar.New(rules, check)
		return nil, bag, fmt.Errorf("%s: %w", layout.GrammarPath(), err)
	}
	return g, bag, nil
}

// Run executes req.
func Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errors.New("pipeline: missing request")
	}
	if req.Seeds <= 0 {
		return nil, fmt.Errorf("pipeline: seeds must be positive, got %d", req.Seeds)
	}
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "generate")
	span.WithExtra("package", req.Layout.Package).WithExtra("mode", req.Layout.Mode.String())
	defer span.End("")

	res := &Result{}
	report := func(ev Event) {
		if req.Progress != nil {
			req.Progress.OnEvent(ev)
		}
	}

	start := time.Now()
	report(Event{Seed: -1, Stage: StageLoad, Status: StatusWorking})
	done := req.Timer.Track("load")
	g, bag, err := Load(req.Layout)
	res.Bag = bag
	res.Timings.Set(StageLoad, time.Since(start))
	if err != nil {
		done("failed")
		report(Event{Seed: -1, Stage: StageLoad, Status: StatusError, Err: err})
		return res, err
	}
	done(fmt.Sprintf("%d nonterminals", g.Len()))
	res.Grammar = g

	start = time.Now()
	report(Event{Seed: -1, Stage: StageGoal, Status: StatusWorking})
	goal, cached, err := resolveGoal(req, g)
	if err != nil {
		report(Event{Seed: -1, Stage: StageGoal, Status: StatusError, Err: err})
		return res, err
	}
	res.Goal, res.GoalCached = goal, cached
	res.Timings.Set(StageGoal, time.Since(start))
	trace.Point(ctx, trace.ScopeDriver, "goal", strconv.Itoa(goal.Len())+" units", map[string]string{
		"cached": strconv.FormatBool(cached),
	})

	for i := 0; i < req.Seeds; i++ {
		report(Event{Seed: i, Stage: StageGenerate, Status: StatusQueued})
	}

	rules := g.Rules()
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	res.Seeds = make([]SeedResult, req.Seeds)

	start = time.Now()
	done = req.Timer.Track("generate")
	var writeMu sync.Mutex
	var writeTotal time.Duration

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(min(jobs, req.Seeds))
	for i := 0; i < req.Seeds; i++ {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seedStart := time.Now()
			report(Event{Seed: i, Stage: StageGenerate, Status: StatusWorking})

			// Sessions never share a grammar instance.
			sg, err := session.Compile(rules, req.Layout.Mode, grammar.WithStart(g.Start()))
			if err != nil {
				report(Event{Seed: i, Stage: StageGenerate, Status: StatusError, Err: err})
				return err
			}
			opts := req.Session
			opts.Mode = req.Layout.Mode
			offset, err := safecast.Conv[uint64](i)
			if err != nil {
				return err
			}
			opts.Seed = req.SeedBase + offset
			opts.Goal = goal.Clone()
			opts.Timer = nil

			sctx := trace.WithLabel(gctx, SeedLabel(i))
			sres, err := session.Generate(sctx, sg, opts)
			if err != nil {
				report(Event{Seed: i, Stage: StageGenerate, Status: StatusError, Err: err})
				return fmt.Errorf("seed %d: %w", i, err)
			}

			out := SeedResult{Index: i, Seed: opts.Seed, Result: sres}
			if !req.DryRun {
				report(Event{Seed: i, Stage: StageWrite, Status: StatusWorking})
				writeStart := time.Now()
				out.Path = req.Layout.InputsPath(i)
				if err := corpus.WriteInputs(out.Path, sres.Inputs); err != nil {
					report(Event{Seed: i, Stage: StageWrite, Status: StatusError, Err: err})
					return fmt.Errorf("seed %d: %w", i, err)
				}
				writeMu.Lock()
				writeTotal += time.Since(writeStart)
				writeMu.Unlock()
			}
			out.Elapsed = time.Since(seedStart)
			res.Seeds[i] = out

			status := StatusDone
			if sres.Warning != nil {
				status = StatusWarning
			}
			report(Event{
				Seed:     i,
				Stage:    StageGenerate,
				Status:   status,
				Elapsed:  out.Elapsed,
				Inputs:   len(sres.Inputs),
				Fraction: sres.Fraction,
			})
			return nil
		})
	}
	err = eg.Wait()
	res.Timings.Set(StageGenerate, time.Since(start))
	res.Timings.Set(StageWrite, writeTotal)
	done(fmt.Sprintf("%d seeds", req.Seeds))
	if err != nil {
		return res, err
	}
	report(Event{Seed: -1, Stage: StageGenerate, Status: StatusDone})
	return res, nil
}

func resolveGoal(req *Request, g *grammar.Grammar) (coverage.Set, bool, error) {
	done := req.Timer.Track("goal")
	if goal, ok, err := req.Cache.Lookup(g, req.Layout.Mode); err == nil && ok {
		done("cached")
		return goal, true, nil
	}
	goal, err := session.Goal(g, req.Layout.Mode)
	if err != nil {
		done("failed")
		return nil, false, err
	}
	if err := req.Cache.Store(g, req.Layout.Mode, goal); err != nil {
		done("not cached: " + err.Error())
		return goal, false, nil
	}
	done(fmt.Sprintf("%d units", goal.Len()))
	return goal, false, nil
}
