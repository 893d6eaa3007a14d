package derive

import (
	"fmt"
	"math/rand/v2"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

// DefaultRepeatLimit is how many consecutive decisions on one symbol are
// allowed before the epsilon alternative is forced.
const DefaultRepeatLimit = 3

// Candidate is one production offered for an expansion.
type Candidate struct {
	Alt        int
	Production grammar.Production
}

// Decision describes one expansion to the selector.
type Decision struct {
	Symbol     grammar.Symbol
	Candidates []Candidate
	Emitted    int // runes of terminal text already in the tree
}

// Chooser picks an index into Decision.Candidates.
type Chooser interface {
	Choose(d Decision) (int, error)
}

// SelectorConfig configures a Selector.
type SelectorConfig struct {
	Policy      Policy
	TieBreak    TieBreak
	Fallback    Fallback
	RepeatLimit int
	// Goal is the session goal, consulted by the loop detector.
	Goal coverage.Set
}

// SelectorStats counts how decisions were made.
type SelectorStats struct {
	Decisions  int
	Guarded    int // epsilon forced by the repeat guard
	LoopBreaks int // epsilon picked by the loop detector
	Saturated  int
	Fallbacks  int
}

// Selector is the session's expansion chooser. It keeps per-session repeat
// state and must not be shared between sessions.
type Selector struct {
	cfg     SelectorConfig
	engine  *coverage.Engine
	index   *coverage.Index
	tracker *coverage.Tracker
	rng     *rand.Rand

	last    grammar.Symbol
	repeats int
	stats   SelectorStats
}

// NewSelector returns a selector bound to one session's coverage state.
func NewSelector(engine *coverage.Engine, index *coverage.Index, tracker *coverage.Tracker, rng *rand.Rand, cfg SelectorConfig) *Selector {
	if cfg.RepeatLimit <= 0 {
		cfg.RepeatLimit = DefaultRepeatLimit
	}
	return &Selector{
		cfg:     cfg,
		engine:  engine,
		index:   index,
		tracker: tracker,
		rng:     rng,
	}
}

func (s *Selector) Stats() SelectorStats {
	return s.stats
}

// Choose implements Chooser.
func (s *Selector) Choose(d Decision) (int, error) {
	if len(d.Candidates) == 0 {
		return -1, fmt.Errorf("%w for %s", ErrNoCandidates, d.Symbol)
	}
	s.stats.Decisions++

	eps := epsilonIndex(d.Candidates)
	if s.repeated(d.Symbol) && eps >= 0 {
		s.stats.Guarded++
		return eps, nil
	}
	if len(d.Candidates) == 1 {
		return 0, nil
	}

	switch s.cfg.Policy {
	case PolicyRandom:
		return s.rng.IntN(len(d.Candidates)), nil
	case PolicyLeastSeen:
		return s.leastSeen(d), nil
	default:
		return s.mostNew(d, eps), nil
	}
}

// repeated tracks consecutive decisions on the same symbol and reports
// whether the repeat limit has been passed.
func (s *Selector) repeated(sym grammar.Symbol) bool {
	if sym != s.last {
		s.last = sym
		s.repeats = 0
		return false
	}
	if s.repeats < s.cfg.RepeatLimit {
		s.repeats++
		return false
	}
	return true
}

func (s *Selector) mostNew(d Decision, eps int) int {
	covs := s.newCoverage(d)
	if covs == nil {
		s.stats.Saturated++
		if eps >= 0 && (d.Emitted > s.index.Grammar().Len() || s.tracker.ContainsAll(s.cfg.Goal)) {
			s.stats.LoopBreaks++
			return eps
		}
		return s.fallback(d, eps)
	}

	best := 0
	for _, c := range covs {
		best = max(best, c.Len())
	}
	top := make([]int, 0, len(covs))
	for i, c := range covs {
		if c.Len() == best {
			top = append(top, i)
		}
	}
	return s.tieBreak(d, top)
}

// newCoverage scores every candidate at the shallowest depth where any of
// them still reaches an uncovered unit. It returns nil when none do.
func (s *Selector) newCoverage(d Decision) []coverage.Set {
	for depth := 0; depth < s.engine.MaxDepth(); depth++ {
		covs := make([]coverage.Set, len(d.Candidates))
		found := false
		for i, c := range d.Candidates {
			set := coverage.NewSet(s.index.Keys(d.Symbol, c.Alt)...)
			for _, child := range c.Production.Nonterminals() {
				set.AddAll(s.engine.Goal(child, depth))
			}
			covs[i] = s.tracker.Uncovered(set)
			if covs[i].Len() > 0 {
				found = true
			}
		}
		if found {
			return covs
		}
	}
	return nil
}

func (s *Selector) leastSeen(d Decision) int {
	scores := make([]int, len(d.Candidates))
	lowest := -1
	for i, c := range d.Candidates {
		for _, u := range s.index.Keys(d.Symbol, c.Alt) {
			scores[i] += s.tracker.Hits(u)
		}
		if lowest < 0 || scores[i] < lowest {
			lowest = scores[i]
		}
	}
	top := make([]int, 0, len(scores))
	for i, sc := range scores {
		if sc == lowest {
			top = append(top, i)
		}
	}
	return s.tieBreak(d, top)
}

func (s *Selector) tieBreak(d Decision, top []int) int {
	switch s.cfg.TieBreak {
	case TieFirst:
		return top[0]
	case TieUncoveredFirst:
		fresh := make([]int, 0, len(top))
		for _, i := range top {
			own := coverage.NewSet(s.index.Keys(d.Symbol, d.Candidates[i].Alt)...)
			if s.tracker.Uncovered(own).Len() > 0 {
				fresh = append(fresh, i)
			}
		}
		if len(fresh) > 0 {
			top = fresh
		}
	}
	return top[s.rng.IntN(len(top))]
}

func (s *Selector) fallback(d Decision, eps int) int {
	s.stats.Fallbacks++
	if s.cfg.Fallback == FallbackEpsilon && eps >= 0 {
		return eps
	}
	return s.rng.IntN(len(d.Candidates))
}

func epsilonIndex(cands []Candidate) int {
	for i, c := range cands {
		if c.Production.IsEpsilon() {
			return i
		}
	}
	return -1
}
