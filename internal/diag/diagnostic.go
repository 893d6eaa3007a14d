package diag

import "fmt"

// Location points at a grammar rule: the defining nonterminal and, when the
// finding concerns a single alternative, its zero-based index.
type Location struct {
	Symbol string
	Alt    int // -1 for the whole rule
}

// RuleLocation addresses a whole rule.
func RuleLocation(symbol string) Location {
	return Location{Symbol: symbol, Alt: -1}
}

// AltLocation addresses one alternative of a rule.
func AltLocation(symbol string, alt int) Location {
	return Location{Symbol: symbol, Alt: alt}
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.Symbol == ""
}

func (l Location) String() string {
	if l.Symbol == "" {
		return "-"
	}
	if l.Alt < 0 {
		return l.Symbol
	}
	return fmt.Sprintf("%s#%d", l.Symbol, l.Alt)
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Location, msg string) *Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d *Diagnostic) WithNote(loc Location, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}
