package coverage

import (
	"errors"
	"fmt"
	"strings"

	"covgram/internal/grammar"
)

// MalformedProductionError reports a production with more than one terminal
// run under terminal mode. It signals a grammar built for another mode.
type MalformedProductionError struct {
	Symbol grammar.Symbol
	Alt    int // -1 when raised for an expanded subtree
	Runs   []string
}

func (e *MalformedProductionError) Error() string {
	quoted := make([]string, len(e.Runs))
	for i, r := range e.Runs {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	where := string(e.Symbol)
	if e.Alt >= 0 {
		where = fmt.Sprintf("%s alternative %d", e.Symbol, e.Alt)
	}
	return fmt.Sprintf("coverage: %s has %d terminal runs [%s]; terminal mode allows one",
		where, len(e.Runs), strings.Join(quoted, ", "))
}

// RunKeys maps the terminal runs of a production, or of a flattened
// expanded subtree, to units.
func RunKeys(mode Mode, sym grammar.Symbol, runs []string) ([]Unit, error) {
	if mode == ModeWord {
		var units []Unit
		for _, run := range runs {
			for _, tok := range strings.Fields(run) {
				units = append(units, Unit(tok))
			}
		}
		return units, nil
	}

	nonEmpty := make([]string, 0, len(runs))
	for _, run := range runs {
		if run != "" {
			nonEmpty = append(nonEmpty, run)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return []Unit{EmptyUnit}, nil
	case 1:
		return []Unit{Unit(nonEmpty[0])}, nil
	default:
		return nil, &MalformedProductionError{Symbol: sym, Alt: -1, Runs: nonEmpty}
	}
}

// ProductionKeys returns the units contributed by alternative alt of sym.
func ProductionKeys(mode Mode, sym grammar.Symbol, alt int, p grammar.Production) ([]Unit, error) {
	units, err := RunKeys(mode, sym, p.TerminalRuns())
	if err != nil {
		var malformed *MalformedProductionError
		if errors.As(err, &malformed) {
			malformed.Alt = alt
		}
		return nil, err
	}
	return units, nil
}

// Check returns a grammar.ProductionCheck enforcing mode's shape rules, so
// grammar construction fails fast on malformed productions.
func Check(mode Mode) grammar.ProductionCheck {
	return func(sym grammar.Symbol, alt int, p grammar.Production) error {
		_, err := ProductionKeys(mode, sym, alt, p)
		return err
	}
}

// Words tokenizes generated word-mode output the same way productions are.
func Words(s string) []Unit {
	fields := strings.Fields(s)
	out := make([]Unit, len(fields))
	for i, f := range fields {
		out[i] = Unit(f)
	}
	return out
}
