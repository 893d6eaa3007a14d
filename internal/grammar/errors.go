package grammar

import (
	"errors"
	"fmt"
)

// ErrMissingStart is returned when the start symbol has no rule.
var ErrMissingStart = errors.New("grammar: start symbol is not defined")

// UnresolvedSymbolError reports a production that references a nonterminal
// absent from the grammar.
type UnresolvedSymbolError struct {
	Symbol   Symbol // the undefined nonterminal
	Referrer Symbol // rule containing the reference
	Alt      int    // alternative index within Referrer
}

func (e *UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("grammar: %s (alternative %d of %s) references undefined nonterminal %s",
		e.Referrer, e.Alt, e.Referrer, e.Symbol)
}

// EmptyRuleError reports a nonterminal without alternatives.
type EmptyRuleError struct {
	Symbol Symbol
}

func (e *EmptyRuleError) Error() string {
	return fmt.Sprintf("grammar: %s has no alternatives", e.Symbol)
}

// NonterminatingSymbolError reports a nonterminal whose every derivation is
// infinite, so no tree rooted at it can ever be completed.
type NonterminatingSymbolError struct {
	Symbol Symbol
}

func (e *NonterminatingSymbolError) Error() string {
	return fmt.Sprintf("grammar: %s never derives a finite string", e.Symbol)
}
