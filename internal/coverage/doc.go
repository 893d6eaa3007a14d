// Package coverage measures grammar coverage.
//
// A production contributes coverage units according to a Mode: in terminal
// mode its single terminal run is one unit, in word mode every
// whitespace-separated token is. Index precomputes the units of every
// production, Tracker holds the session's covered set, and Engine answers
// "which not-yet-covered units are reachable from this symbol within d
// expansion layers", memoised per (symbol, depth).
package coverage
