package pipeline

import (
	"fmt"
	"time"
)

// Stage is a step of a generation run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageGoal     Stage = "goal"
	StageGenerate Stage = "generate"
	StageWrite    Stage = "write"
)

// Status is the progress state of a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusWarning Status = "stagnated"
	StatusError   Status = "error"
)

// Event reports progress of one seed, or of the whole run when Seed is -1.
type Event struct {
	Seed     int
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	Inputs   int
	Fraction float64
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

// Timings holds stage durations of the run as a whole.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum adds the durations of stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// SeedLabel is the trace label of the session for seed index i.
func SeedLabel(i int) string {
	return fmt.Sprintf("seed%02d", i)
}
