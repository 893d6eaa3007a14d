package trace

import "errors"

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit hands each tracer its own copy so none can see another's edits.
// Tracers whose own level filters the scope are skipped.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		if !tr.Enabled() || !tr.Level().ShouldEmit(ev.Scope) {
			continue
		}
		cp := *ev
		tr.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error {
	errs := make([]error, 0, len(t.tracers))
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	errs := make([]error, 0, len(t.tracers))
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// LabelFilter drops labelled events whose label is not listed. Unlabelled
// events (driver spans, heartbeats) always pass.
type LabelFilter struct {
	inner  Tracer
	labels map[string]struct{}
}

// NewLabelFilter wraps inner. With no labels it returns inner unchanged.
func NewLabelFilter(inner Tracer, labels ...string) Tracer {
	if len(labels) == 0 {
		return inner
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return &LabelFilter{inner: inner, labels: set}
}

func (f *LabelFilter) Emit(ev *Event) {
	if ev.Label != "" {
		if _, ok := f.labels[ev.Label]; !ok {
			return
		}
	}
	f.inner.Emit(ev)
}

func (f *LabelFilter) Flush() error  { return f.inner.Flush() }
func (f *LabelFilter) Close() error  { return f.inner.Close() }
func (f *LabelFilter) Level() Level  { return f.inner.Level() }
func (f *LabelFilter) Enabled() bool { return f.inner.Enabled() }
