// Package grammar holds the immutable context-free grammar model used by the
// generator.
//
// A grammar maps each nonterminal to an ordered list of alternative
// productions. Nonterminals are bracketed names such as <expr>; everything
// else inside a production is terminal text. The start symbol is <start> and
// the epsilon marker is <empty>.
//
// Grammars arrive as JSON objects (nonterminal -> list of production
// strings). Build validates them and reports findings into a diag.Bag;
// New and LoadFile turn the first fatal finding into a typed error.
package grammar
