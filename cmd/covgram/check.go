package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"covgram/internal/coverage"
	"covgram/internal/diag"
	"covgram/internal/diagfmt"
	"covgram/internal/grammar"
)

var checkCmd = &cobra.Command{
	Use:   "check <grammar>",
	Short: "Validate a grammar and print diagnostics",
	Long: `Check reports undefined references, nonterminals that never terminate,
unreachable or unused rules, and productions the coverage mode cannot count.
It exits with status 1 when any error is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("mode", "terminal", "coverage mode (terminal|word)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Bool("notes", true, "include notes")
	checkCmd.Flags().Bool("warnings-as-errors", false, "fail on warnings too")
}

func runCheck(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, workDir, os.Getenv)
	if err != nil {
		return err
	}
	mode, err := s.mode()
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	notes, err := cmd.Flags().GetBool("notes")
	if err != nil {
		return fmt.Errorf("failed to get notes flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	bag := checkGrammar(args[0], mode, maxDiagnostics)
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		if bag.Len() == 0 {
			if !quiet(cmd) {
				fmt.Fprintf(out, "%s: ok\n", args[0])
			}
		} else {
			diagfmt.Pretty(out, bag, diagfmt.PrettyOpts{Color: !color.NoColor, ShowNotes: notes})
		}
	case "short":
		fmt.Fprint(out, diag.FormatShort(bag.Items(), notes))
	case "json":
		if err := diagfmt.JSON(out, bag, diagfmt.JSONOpts{IncludeNotes: notes, IncludeTitle: true}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}

	if n := bag.Dropped(); n > 0 && format != "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d more diagnostics not shown (raise --max-diagnostics)\n", n)
	}
	if bag.HasErrors() || (strict && bag.HasWarnings()) {
		return errReported
	}
	return nil
}

// checkGrammar collects every finding for path, including I/O and decode
// failures, into one bag.
func checkGrammar(path string, mode coverage.Mode, maxDiagnostics int) *diag.Bag {
	rules, err := grammar.ReadFile(path)
	if err != nil {
		code := diag.GramDecode
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			code = diag.IOLoadFileError
		}
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(code, diag.Location{}, err.Error()))
		return bag
	}
	_, bag := grammar.Build(rules,
		grammar.WithMaxFindings(maxDiagnostics),
		grammar.WithProductionCheck(coverage.Check(mode)),
	)
	bag.Sort()
	return bag
}
