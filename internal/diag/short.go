package diag

import (
	"fmt"
	"sort"
	"strings"
)

// FormatShort renders diagnostics one per line in a stable order:
//
//	ERROR GRM1004 <expr>#2: reference to <term> is not defined
//
// Notes follow their diagnostic indented by two spaces when includeNotes is set.
func FormatShort(diags []*Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	sorted := make([]*Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d != nil {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i], sorted[j]
		if di.Primary.Symbol != dj.Primary.Symbol {
			return di.Primary.Symbol < dj.Primary.Symbol
		}
		if di.Primary.Alt != dj.Primary.Alt {
			return di.Primary.Alt < dj.Primary.Alt
		}
		return di.Code < dj.Code
	})

	var sb strings.Builder
	for _, d := range sorted {
		fmt.Fprintf(&sb, "%s %s %s: %s\n", d.Severity, d.Code.ID(), d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "  note %s: %s\n", n.Loc, n.Msg)
		}
	}
	return sb.String()
}
