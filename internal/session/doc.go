// Package session runs the coverage-guided generation loop.
//
// A session owns its tracker, reachability engine, selector and random
// source. It keeps deriving inputs until every goal unit is covered or four
// consecutive attempts make no progress, in which case the partial result
// is returned together with a *StagnationWarning.
package session
