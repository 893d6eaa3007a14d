package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covgram/internal/corpus"
	"covgram/internal/coverage"
	"covgram/internal/diag"
	"covgram/internal/pipeline"
	"covgram/internal/session"
)

func TestColorEnabled(t *testing.T) {
	cases := []struct {
		value   string
		tty     bool
		noColor bool
		want    bool
	}{
		{"auto", true, false, true},
		{"auto", false, false, false},
		{"auto", true, true, false},
		{"on", false, true, true},
		{"off", true, false, false},
	}
	for _, tc := range cases {
		got, err := colorEnabled(tc.value, tc.tty, tc.noColor)
		if err != nil {
			t.Fatalf("colorEnabled(%q): %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("colorEnabled(%q, tty=%v, NO_COLOR=%v) = %v, want %v", tc.value, tc.tty, tc.noColor, got, tc.want)
		}
	}
	if _, err := colorEnabled("rainbow", true, false); err == nil {
		t.Fatalf("expected error for invalid value")
	}
}

func TestUIMode(t *testing.T) {
	mode, err := readUIMode(" AUTO ")
	if err != nil || mode != uiModeAuto {
		t.Fatalf("readUIMode: %v %v", mode, err)
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Fatalf("expected error")
	}
	if !shouldUseTUI(uiModeOn, false, true, 1) {
		t.Fatalf("on must force the TUI")
	}
	if shouldUseTUI(uiModeAuto, true, false, 1) {
		t.Fatalf("a single seed does not need the TUI")
	}
	if !shouldUseTUI(uiModeAuto, true, false, 4) || shouldUseTUI(uiModeAuto, true, true, 4) {
		t.Fatalf("auto must follow tty and quiet")
	}
}

func TestCheckGrammar(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	writeFile(t, good, `{"<start>": ["<a>"], "<a>": ["a", "b"]}`)
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"<start>": ["<a>"], "<a>": ["a<missing>"]}`)
	multi := filepath.Join(dir, "multi.json")
	writeFile(t, multi, `{"<start>": ["a<b>c"], "<b>": ["b"]}`)

	if bag := checkGrammar(good, coverage.ModeTerminal, 10); bag.HasErrors() {
		t.Fatalf("unexpected errors: %s", diag.FormatShort(bag.Items(), true))
	}
	bag := checkGrammar(bad, coverage.ModeTerminal, 10)
	if bag.First(diag.GramUnresolvedSymbol) == nil {
		t.Fatalf("missing unresolved symbol: %s", diag.FormatShort(bag.Items(), true))
	}
	if bag := checkGrammar(multi, coverage.ModeTerminal, 10); bag.First(diag.GramMalformedProduction) == nil {
		t.Fatalf("two terminal runs must be malformed in terminal mode")
	}
	if bag := checkGrammar(multi, coverage.ModeWord, 10); bag.HasErrors() {
		t.Fatalf("word mode accepts several runs: %s", diag.FormatShort(bag.Items(), true))
	}
	if bag := checkGrammar(filepath.Join(dir, "nope.json"), coverage.ModeTerminal, 10); bag.First(diag.IOLoadFileError) == nil {
		t.Fatalf("missing file must be an I/O error")
	}
	writeFile(t, filepath.Join(dir, "broken.json"), `["not", "an", "object"]`)
	if bag := checkGrammar(filepath.Join(dir, "broken.json"), coverage.ModeTerminal, 10); bag.First(diag.GramDecode) == nil {
		t.Fatalf("bad JSON must be a decode error")
	}
}

func TestRemoveInputs(t *testing.T) {
	root := t.TempDir()
	layout := corpus.Layout{Root: root, Package: "pkg", Mode: coverage.ModeTerminal}
	for i := range 3 {
		if err := corpus.WriteInputs(layout.InputsPath(i), []string{"x"}); err != nil {
			t.Fatal(err)
		}
	}
	wordLayout := layout
	wordLayout.Mode = coverage.ModeWord
	if err := corpus.WriteInputs(wordLayout.InputsPath(0), []string{"y"}); err != nil {
		t.Fatal(err)
	}

	n, err := removeInputs(layout)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("removed %d files, want 3", n)
	}
	if _, err := os.Stat(wordLayout.InputsPath(0)); err != nil {
		t.Fatalf("word mode inputs must survive: %v", err)
	}
}

func TestPrintSeedTable(t *testing.T) {
	g, err := session.Compile(map[string][]string{
		"<start>": {"<d>"},
		"<d>":     {"0", "1"},
	}, coverage.ModeTerminal)
	if err != nil {
		t.Fatal(err)
	}
	goal, err := session.Goal(g, coverage.ModeTerminal)
	if err != nil {
		t.Fatal(err)
	}
	res := &pipeline.Result{
		Goal: goal,
		Seeds: []pipeline.SeedResult{
			{Index: 0, Path: "inputs/pkg/inputs00.txt", Result: &session.Result{
				Inputs:   []string{"0", "1"},
				Residual: coverage.NewSet(),
				Fraction: 1,
				Attempts: 2,
			}},
			{Index: 1, Result: &session.Result{
				Inputs:   []string{"0"},
				Residual: coverage.NewSet("1"),
				Fraction: 0.5,
				Attempts: 5,
				Warning:  &session.StagnationWarning{Attempts: 5, Strikes: 4},
			}},
		},
	}
	var buf bytes.Buffer
	printSeedTable(&buf, res)
	out := buf.String()
	for _, want := range []string{"SEED", "COVERED", "2/2", "1/2", "0.50", "yes", "(dry run)", "inputs00.txt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintGoalTable(t *testing.T) {
	var buf bytes.Buffer
	printGoalTable(&buf, []coverage.Unit{"a", "b", "c"}, 2)
	out := buf.String()
	if strings.Count(out, "UNIT") != 2 {
		t.Fatalf("expected two columns:\n%s", out)
	}
	for _, want := range []string{`"a"`, `"b"`, `"c"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s:\n%s", want, out)
		}
	}
}

func TestSeedLabels(t *testing.T) {
	got := strings.Join(seedLabels([]int{0, 7, 12}), ",")
	if got != "seed00,seed07,seed12" {
		t.Fatalf("seedLabels = %q", got)
	}
	if len(seedLabels(nil)) != 0 {
		t.Fatal("expected no labels")
	}
}
