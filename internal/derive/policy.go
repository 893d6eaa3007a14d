package derive

import (
	"fmt"
	"strings"
)

// Policy selects how a Selector ranks candidate productions.
type Policy uint8

const (
	// PolicyCoverage maximises not-yet-covered reachable units.
	PolicyCoverage Policy = iota
	// PolicyLeastSeen prefers the production whose units were recorded least often.
	PolicyLeastSeen
	// PolicyRandom picks uniformly.
	PolicyRandom
)

func (p Policy) String() string {
	switch p {
	case PolicyCoverage:
		return "coverage"
	case PolicyLeastSeen:
		return "least-seen"
	case PolicyRandom:
		return "random"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "coverage":
		return PolicyCoverage, nil
	case "least-seen", "leastseen":
		return PolicyLeastSeen, nil
	case "random":
		return PolicyRandom, nil
	}
	return PolicyCoverage, fmt.Errorf("unknown policy %q (want coverage|least-seen|random)", s)
}

// TieBreak orders candidates that score equally.
type TieBreak uint8

const (
	TieRandom TieBreak = iota
	TieFirst
	// TieUncoveredFirst prefers candidates whose own units are still uncovered.
	TieUncoveredFirst
)

func (t TieBreak) String() string {
	switch t {
	case TieRandom:
		return "random"
	case TieFirst:
		return "first"
	case TieUncoveredFirst:
		return "uncovered-first"
	default:
		return fmt.Sprintf("TieBreak(%d)", t)
	}
}

func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return TieRandom, nil
	case "first":
		return TieFirst, nil
	case "uncovered-first", "uncovered":
		return TieUncoveredFirst, nil
	}
	return TieRandom, fmt.Errorf("unknown tie-break %q (want random|first|uncovered-first)", s)
}

// Fallback decides saturated expansions that the loop detector leaves open.
type Fallback uint8

const (
	FallbackRandom Fallback = iota
	// FallbackEpsilon takes the epsilon alternative when there is one.
	FallbackEpsilon
)

func (f Fallback) String() string {
	switch f {
	case FallbackRandom:
		return "random"
	case FallbackEpsilon:
		return "epsilon"
	default:
		return fmt.Sprintf("Fallback(%d)", f)
	}
}

func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return FallbackRandom, nil
	case "epsilon", "empty":
		return FallbackEpsilon, nil
	}
	return FallbackRandom, fmt.Errorf("unknown fallback %q (want random|epsilon)", s)
}
