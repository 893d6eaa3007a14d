package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Width     uint8 // max message width, 0 means unlimited
	ShowNotes bool
	// ShowTitle appends the code title under each diagnostic.
	ShowTitle bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // truncates the output, not the Bag
	IncludeNotes bool
	IncludeTitle bool
}
