package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	done := tm.Track("load")
	done("grammar.txt")
	idx := tm.Begin("generate")
	tm.End(idx, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0].Note != "grammar.txt" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	if !strings.Contains(tm.Summary(), "generate") {
		t.Fatalf("summary missing phase:\n%s", tm.Summary())
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Track("seed")("")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("phases = %d, want 8", got)
	}
}

func TestNilTimerTrack(t *testing.T) {
	var tm *Timer
	tm.Track("noop")("")
}
