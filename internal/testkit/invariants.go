package testkit

import (
	"fmt"

	"covgram/internal/coverage"
	"covgram/internal/derive"
	"covgram/internal/grammar"
)

// CheckGoalIdempotent computes goal(sym, depth) twice against an unchanged
// tracker and compares the results.
func CheckGoalIdempotent(e *coverage.Engine, sym grammar.Symbol, depth int) error {
	first := e.Goal(sym, depth)
	second := e.Goal(sym, depth)
	if !first.Equal(second) {
		return fmt.Errorf("goal(%s, %d) changed between calls: %v vs %v", sym, depth, first.Sorted(), second.Sorted())
	}
	return nil
}

// CheckMonotonic verifies that next contains every unit of prev.
func CheckMonotonic(prev, next coverage.Set) error {
	if missing := prev.Minus(next); missing.Len() > 0 {
		return fmt.Errorf("covered set shrank: lost %v", missing.Sorted())
	}
	return nil
}

// CheckTreeSound verifies that every terminal leaf of t is covered.
func CheckTreeSound(t *derive.Tree, covered coverage.Set) error {
	for _, leaf := range t.Leaves() {
		if !covered.Has(coverage.Unit(leaf)) {
			return fmt.Errorf("leaf %q of %q was not recorded", leaf, t.Flatten(coverage.ModeTerminal))
		}
	}
	return nil
}

// CheckWordsSound re-tokenises word-mode inputs and verifies every token
// is covered.
func CheckWordsSound(inputs []string, covered coverage.Set) error {
	for _, in := range inputs {
		for _, w := range coverage.Words(in) {
			if !covered.Has(w) {
				return fmt.Errorf("token %q of %q was not recorded", w, in)
			}
		}
	}
	return nil
}

// CheckResidual verifies residual == goal - covered and that the fraction
// agrees with it.
func CheckResidual(goal, covered, residual coverage.Set, fraction float64) error {
	want := goal.Minus(covered)
	want = want.Minus(coverage.NewSet(coverage.EmptyUnit))
	if !want.Equal(residual) {
		return fmt.Errorf("residual %v, want %v", residual.Sorted(), want.Sorted())
	}
	if goal.Len() == 0 {
		return nil
	}
	exp := float64(goal.Len()-residual.Len()) / float64(goal.Len())
	if diff := exp - fraction; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("fraction %.4f, want %.4f", fraction, exp)
	}
	return nil
}
