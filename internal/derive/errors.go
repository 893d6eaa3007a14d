package derive

import "errors"

var (
	// ErrTreeBudget is returned when a derivation exceeds the hard node budget.
	ErrTreeBudget = errors.New("derive: derivation tree exceeded node budget")
	// ErrNoCandidates signals an expansion with nothing to choose from.
	ErrNoCandidates = errors.New("derive: no candidate productions")
)
