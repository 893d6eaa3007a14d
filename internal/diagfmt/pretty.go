package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"covgram/internal/diag"
)

// Pretty renders diagnostics for humans. Items are printed in bag order, so
// callers are expected to Sort the bag first. Each diagnostic looks like
//
//	<expr>#2: error GRM1004: reference to <term> is not defined
//	  = note <term>: closest defined symbol is <terms>
//
// followed by a summary line with error and warning counts.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	p := newPalette(opts.Color)
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(d.Primary.String()),
			p.severity(d.Severity),
			p.code.Sprint(d.Code.ID()),
			clip(d.Message, opts.Width),
		)
		if opts.ShowTitle {
			fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("="), d.Code.Title())
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("= note"), p.loc.Sprint(n.Loc.String()), clip(n.Msg, opts.Width))
		}
	}
	fmt.Fprintf(w, "%s\n", summary(errs, warns, p))
}

type palette struct {
	loc   *color.Color
	code  *color.Color
	note  *color.Color
	err   *color.Color
	warn  *color.Color
	info  *color.Color
	plain bool
}

func newPalette(enabled bool) palette {
	p := palette{
		loc:  color.New(color.Bold),
		code: color.New(color.FgHiBlack),
		note: color.New(color.FgCyan),
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.loc, p.code, p.note, p.err, p.warn, p.info} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	p.plain = !enabled
	return p
}

func (p palette) severity(s diag.Severity) string {
	label := strings.ToLower(s.String())
	switch s {
	case diag.SevError:
		return p.err.Sprint(label)
	case diag.SevWarning:
		return p.warn.Sprint(label)
	default:
		return p.info.Sprint(label)
	}
}

func summary(errs, warns int, p palette) string {
	parts := make([]string, 0, 2)
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	if len(parts) == 0 {
		return "no errors"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}
