// Package diag defines the diagnostic model shared by grammar validation and
// generation sessions.
//
// # Scope
//
// Package diag performs no formatting beyond the one-line short form, no IO
// and no CLI integration. Rendering lives in internal/diagfmt.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – numeric identifier with a stable string form (codes.go).
//     GRM codes describe grammar structure, GEN codes generation outcomes.
//   - Message – short and actionable.
//   - Primary – the grammar Location (nonterminal and optional alternative).
//   - Notes – secondary locations, e.g. "referenced from <expr>#1".
//
// # Emitting diagnostics
//
// Producers use a Reporter; BagReporter collects into a Bag, which supports
// sorting and deduplication. ReportBuilder chains notes before Emit.
package diag
