package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"covgram/internal/grammar"
	"covgram/internal/observ"
	"covgram/internal/session"
	"covgram/internal/trace"
)

var goalCmd = &cobra.Command{
	Use:   "goal <grammar>",
	Short: "Print the coverage goal of a grammar",
	Long:  "Goal lists every unit reachable from the start symbol, i.e. everything a complete run of generate must emit.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoal,
}

func init() {
	goalCmd.Flags().String("mode", "terminal", "coverage mode (terminal|word)")
	goalCmd.Flags().String("format", "table", "output format (table|list|json)")
	goalCmd.Flags().Int("columns", 4, "units per row in table format")
}

type goalPayload struct {
	Grammar string   `json:"grammar"`
	Mode    string   `json:"mode"`
	Digest  string   `json:"digest"`
	Size    int      `json:"size"`
	Units   []string `json:"units"`
}

func runGoal(cmd *cobra.Command, args []string) error {
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
	columns, err := cmd.Flags().GetInt("columns")
	if err != nil {
		return fmt.Errorf("failed to get columns flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}

	span, _ := trace.Start(cmd.Context(), trace.ScopeDriver, "goal")
	defer span.End("")

	done := timer.Track("load")
	rules, err := grammar.ReadFile(args[0])
	if err != nil {
		done("failed")
		return err
	}
	g, err := session.Compile(rules, mode)
	if err != nil {
		done("failed")
		return fmt.Errorf("%s: %w", args[0], err)
	}
	done(fmt.Sprintf("%d nonterminals", g.Len()))

	done = timer.Track("goal")
	goal, err := session.Goal(g, mode)
	if err != nil {
		done("failed")
		return err
	}
	done(fmt.Sprintf("%d units", goal.Len()))
	units := goal.Sorted()

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		payload := goalPayload{
			Grammar: args[0],
			Mode:    mode.String(),
			Digest:  g.Digest().Hex(),
			Size:    len(units),
			Units:   make([]string, len(units)),
		}
		for i, u := range units {
			payload.Units[i] = string(u)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	case "list":
		for _, u := range units {
			fmt.Fprintln(out, string(u))
		}
	case "table":
		printGoalTable(out, units, columns)
		fmt.Fprintf(out, "%d units (%s mode)\n", len(units), mode)
	default:
		return fmt.Errorf("unsupported format %q (must be table, list or json)", format)
	}
	if showTimings {
		printTimerSummary(cmd.ErrOrStderr(), timer)
	}
	return nil
}
