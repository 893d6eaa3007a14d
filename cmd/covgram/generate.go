package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"covgram/internal/corpus"
	"covgram/internal/diagfmt"
	"covgram/internal/goalcache"
	"covgram/internal/observ"
	"covgram/internal/pipeline"
)

const cacheApp = "covgram"

var generateCmd = &cobra.Command{
	Use:   "generate [package]",
	Short: "Generate covering inputs for a package grammar",
	Long: `Generate reads <inputs>/<package>/grammar.txt (or grammarWithCoverage.txt in word
mode) and writes one inputsNN.txt (coverageInputsNN.txt) file per seed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("inputs", "inputs", "root directory holding one directory per package")
	f.Int("seeds", 10, "number of independent seeds")
	f.Uint64("seed-base", 0, "seed of the first session; later sessions add their index")
	f.String("mode", "terminal", "coverage mode (terminal|word)")
	f.String("policy", "coverage", "expansion policy (coverage|least-seen|random)")
	f.String("tie-break", "random", "tie-break between equally scored alternatives (random|first|uncovered-first)")
	f.String("fallback", "random", "choice for saturated expansions (random|epsilon)")
	f.Int("jobs", 0, "sessions to run in parallel (0: GOMAXPROCS)")
	f.Int("min-nonterminals", 1, "keep taking the largest productions while fewer nonterminals are open")
	f.Int("max-frontier", 10, "open nonterminals before the tree starts closing")
	f.Int("max-nodes", 200, "tree nodes before the tree starts closing")
	f.Int("cache-size", 4096, "reachability cache entries (0 disables)")
	f.Int("max-attempts", 0, "attempt cap per seed (0: until stagnation)")
	f.Bool("no-cache", false, "do not read or write the goal cache")
	f.Bool("dry-run", false, "generate without writing input files")
	f.String("ui", "auto", "user interface (auto|on|off)")
	f.String("format", "table", "summary format (table|json)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, workDir, os.Getenv)
	if err != nil {
		return err
	}
	pkg := s.Package
	if len(args) > 0 {
		pkg = args[0]
	}
	if strings.TrimSpace(pkg) == "" {
		return errors.New("no package given\nplease name one, e.g.:\n  covgram generate json")
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be table or json)", format)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	ui, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts, err := s.sessionOptions()
	if err != nil {
		return err
	}
	req := &pipeline.Request{
		Layout:   corpus.Layout{Root: s.Inputs, Package: pkg, Mode: opts.Mode},
		Seeds:    s.Seeds,
		SeedBase: s.SeedBase,
		Jobs:     s.Jobs,
		Session:  opts,
		DryRun:   dryRun,
	}
	if showTimings {
		req.Timer = observ.NewTimer()
	}
	if !noCache {
		cache, err := goalcache.Open(cacheApp)
		if err != nil {
			warnf(cmd.ErrOrStderr(), "goal cache disabled: %v", err)
		} else {
			req.Cache = cache
		}
	}

	var res *pipeline.Result
	if shouldUseTUI(ui, isTerminal(os.Stdout), quiet(cmd), s.Seeds) && format == "table" {
		res, err = runWithUI(cmd.Context(), "covgram "+pkg, req)
	} else {
		res, err = pipeline.Run(cmd.Context(), req)
	}
	if err != nil {
		if res != nil && res.Bag != nil && res.Bag.HasErrors() {
			res.Bag.Sort()
			diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, diagfmt.PrettyOpts{Color: !color.NoColor, ShowNotes: true})
			return errReported
		}
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := writeGenerateJSON(out, pkg, res); err != nil {
			return err
		}
	} else if !quiet(cmd) {
		if res.GoalCached {
			fmt.Fprintf(out, "goal: %d units (cached)\n", res.Goal.Len())
		} else {
			fmt.Fprintf(out, "goal: %d units\n", res.Goal.Len())
		}
		printSeedTable(out, res)
	}
	for _, sr := range res.Seeds {
		if sr.Result != nil && sr.Result.Warning != nil {
			warnf(cmd.ErrOrStderr(), "seed %02d: %v", sr.Index, sr.Result.Warning)
		}
	}
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings)
		printTimerSummary(cmd.ErrOrStderr(), req.Timer)
	}
	return nil
}

type seedSummary struct {
	Seed      int      `json:"seed"`
	RNGSeed   uint64   `json:"rng_seed"`
	File      string   `json:"file,omitempty"`
	Inputs    int      `json:"inputs"`
	Attempts  int      `json:"attempts"`
	Fraction  float64  `json:"fraction"`
	Residual  []string `json:"residual,omitempty"`
	Stagnated bool     `json:"stagnated"`
}

type generateSummary struct {
	Package    string        `json:"package"`
	Goal       int           `json:"goal"`
	GoalCached bool          `json:"goal_cached"`
	Seeds      []seedSummary `json:"seeds"`
}

func writeGenerateJSON(out io.Writer, pkg string, res *pipeline.Result) error {
	payload := generateSummary{
		Package:    pkg,
		Goal:       res.Goal.Len(),
		GoalCached: res.GoalCached,
		Seeds:      make([]seedSummary, 0, len(res.Seeds)),
	}
	for _, sr := range res.Seeds {
		if sr.Result == nil {
			continue
		}
		residual := make([]string, 0, sr.Result.Residual.Len())
		for _, u := range sr.Result.Residual.Sorted() {
			residual = append(residual, string(u))
		}
		payload.Seeds = append(payload.Seeds, seedSummary{
			Seed:      sr.Index,
			RNGSeed:   sr.Seed,
			File:      sr.Path,
			Inputs:    len(sr.Result.Inputs),
			Attempts:  sr.Result.Attempts,
			Fraction:  sr.Result.Fraction,
			Residual:  residual,
			Stagnated: sr.Result.Warning != nil,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow, color.Bold).Sprint("warning:"), fmt.Sprintf(format, args...))
}
