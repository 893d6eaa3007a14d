// Package fuzztests houses Go fuzz harnesses for grammar loading and input
// generation. The goal is to smoke test robustness and guard against panics
// or runaway derivations on arbitrary grammars.
//
// It does not generate corpora, write files or run the CLI.
package fuzztests
