package coverage

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	lru "github.com/hashicorp/golang-lru/v2"

	"covgram/internal/grammar"
)

// DefaultCacheSize bounds the (symbol, depth) reachability cache.
const DefaultCacheSize = 4096

type cacheKey struct {
	sym   grammar.Symbol
	depth int
}

// CacheStats reports reachability cache effectiveness.
type CacheStats struct {
	Hits   int
	Misses int
	Len    int
}

// Engine computes depth-bounded reachable coverage.
type Engine struct {
	index   *Index
	tracker *Tracker
	cache   *lru.Cache[cacheKey, Set]
	hits    int
	misses  int
}

// NewEngine wires an engine to an index and the session tracker.
// cacheSize <= 0 disables memoisation.
func NewEngine(index *Index, tracker *Tracker, cacheSize int) (*Engine, error) {
	e := &Engine{index: index, tracker: tracker}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, Set](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("coverage: reachability cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// MaxDepth is the depth bound used for the session goal: the number of
// nonterminals in the grammar.
func (e *Engine) MaxDepth() int {
	return e.index.g.Len()
}

// MaxGoal returns every unit reachable from the start symbol within
// MaxDepth layers that is not yet covered.
func (e *Engine) MaxGoal() Set {
	return e.Goal(e.index.g.Start(), e.MaxDepth())
}

// Goal returns the not-yet-covered units reachable from sym within
// maxDepth expansion layers. The result is owned by the caller.
func (e *Engine) Goal(sym grammar.Symbol, maxDepth int) Set {
	if maxDepth <= 0 {
		return make(Set)
	}
	key := cacheKey{sym: sym, depth: maxDepth}
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			e.hits++
			return e.tracker.Uncovered(cached)
		}
	}
	e.misses++
	net := e.tracker.Uncovered(e.Reachable(sym, maxDepth))
	if e.cache != nil {
		e.cache.Add(key, net)
	}
	return net.Clone()
}

// Reachable is the uncached, unfiltered breadth-first walk. Each nonterminal
// is processed at most once; layers are counted so that the walk stops
// after maxDepth of them.
func (e *Engine) Reachable(sym grammar.Symbol, maxDepth int) Set {
	units := make(Set)
	if maxDepth <= 0 || !e.index.g.Has(sym) {
		return units
	}

	seen := map[grammar.Symbol]bool{sym: true}
	queue := linkedlistqueue.New()
	queue.Enqueue(sym)

	depth := 0
	layerLeft, nextLayer := 1, 0
	for !queue.Empty() {
		v, _ := queue.Dequeue()
		cur := v.(grammar.Symbol)

		for alt, p := range e.index.g.Productions(cur) {
			for _, u := range e.index.Keys(cur, alt) {
				units.Add(u)
			}
			for _, ref := range p.Nonterminals() {
				if seen[ref] {
					continue
				}
				seen[ref] = true
				queue.Enqueue(ref)
				nextLayer++
			}
		}

		layerLeft--
		if layerLeft == 0 {
			depth++
			if depth >= maxDepth {
				break
			}
			layerLeft, nextLayer = nextLayer, 0
		}
	}
	return units
}

// Stats returns cache counters.
func (e *Engine) Stats() CacheStats {
	st := CacheStats{Hits: e.hits, Misses: e.misses}
	if e.cache != nil {
		st.Len = e.cache.Len()
	}
	return st
}

// Purge drops every cached entry.
func (e *Engine) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}
