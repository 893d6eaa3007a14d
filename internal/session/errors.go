package session

import "fmt"

// StagnationWarning reports an early stop. It is not a failure: the result
// it accompanies is valid, just incomplete.
type StagnationWarning struct {
	Attempts int
	Strikes  int
	Residual int // goal units left uncovered
	Goal     int
	Fraction float64
	Capped   bool // stopped by MaxAttempts rather than strikes
}

func (w *StagnationWarning) Error() string {
	if w.Capped {
		return fmt.Sprintf("attempt limit %d reached: %d of %d goal units uncovered (%.2f covered)",
			w.Attempts, w.Residual, w.Goal, w.Fraction)
	}
	return fmt.Sprintf("unable to produce %d of %d goal units after %d attempts without progress (%.2f covered)",
		w.Residual, w.Goal, w.Strikes, w.Fraction)
}
