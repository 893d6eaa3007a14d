// Package trace records what a generation run is doing.
//
// Events are spans (begin/end pairs) and points, tagged with a scope:
//
//   - ScopeDriver: CLI command and seed fan-out
//   - ScopeSession: one generation session
//   - ScopeAttempt: one derivation attempt inside a session
//   - ScopeNode: individual expansions
//
// The level decides which scopes are emitted: phase shows driver and
// session, detail adds attempts, debug adds node events.
//
// Tracers travel in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "session", 0)
//	defer span.End("")
//
// A stream tracer writes text or NDJSON as events arrive; a ring tracer
// keeps the last events in memory so they can be dumped after a failure.
package trace
