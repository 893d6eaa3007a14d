// Package derive builds derivation trees from a grammar.
//
// A Builder grows an arena-backed Tree from the start symbol using an
// explicit frontier worklist. At every expansion a Selector picks one of the
// candidate productions; the default coverage policy prefers productions
// that lead to units the session has not covered yet.
package derive
