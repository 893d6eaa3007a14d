package grammar

import "regexp"

// Symbol is a grammar symbol: a bracketed nonterminal or plain terminal text.
type Symbol string

const (
	// Start is the default start symbol.
	Start Symbol = "<start>"
	// Empty is the epsilon marker; it derives the empty string.
	Empty Symbol = "<empty>"
)

var (
	nonterminalRE     = regexp.MustCompile(`<[^<> ]*>`)
	fullNonterminalRE = regexp.MustCompile(`^<[^<> ]*>$`)
)

// IsNonterminal reports whether s is a bracketed nonterminal name.
func (s Symbol) IsNonterminal() bool {
	return fullNonterminalRE.MatchString(string(s))
}

func (s Symbol) String() string {
	return string(s)
}
