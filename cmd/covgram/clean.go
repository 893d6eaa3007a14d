package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"covgram/internal/corpus"
	"covgram/internal/goalcache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [package]",
	Short: "Drop the goal cache, and the generated inputs of a package",
	Long: `Clean removes the on-disk goal cache. Given a package, it also removes the
inputsNN.txt (or coverageInputsNN.txt) files previously generated for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("inputs", "inputs", "root directory holding one directory per package")
	cleanCmd.Flags().String("mode", "terminal", "coverage mode whose input files are removed (terminal|word)")
	cleanCmd.Flags().Bool("inputs-only", false, "keep the goal cache")
}

func runClean(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, workDir, os.Getenv)
	if err != nil {
		return err
	}
	inputsOnly, err := cmd.Flags().GetBool("inputs-only")
	if err != nil {
		return fmt.Errorf("failed to get inputs-only flag: %w", err)
	}
	out := cmd.OutOrStdout()

	if !inputsOnly {
		cache, err := goalcache.Open(cacheApp)
		if err != nil {
			return fmt.Errorf("failed to open goal cache: %w", err)
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("failed to drop goal cache: %w", err)
		}
		if !quiet(cmd) {
			fmt.Fprintf(out, "removed goal cache %s\n", cache.Dir())
		}
	}

	pkg := s.Package
	if len(args) > 0 {
		pkg = args[0]
	}
	if strings.TrimSpace(pkg) == "" {
		return nil
	}
	mode, err := s.mode()
	if err != nil {
		return err
	}
	removed, err := removeInputs(corpus.Layout{Root: s.Inputs, Package: pkg, Mode: mode})
	if err != nil {
		return err
	}
	if !quiet(cmd) {
		fmt.Fprintf(out, "removed %d input files from %s\n", removed, pkg)
	}
	return nil
}

func removeInputs(layout corpus.Layout) (int, error) {
	files, err := layout.Existing()
	if err != nil {
		return 0, fmt.Errorf("failed to list %q: %w", layout.Dir(), err)
	}
	for i, path := range files {
		if err := os.Remove(path); err != nil {
			return i, fmt.Errorf("failed to remove %q: %w", path, err)
		}
	}
	return len(files), nil
}
