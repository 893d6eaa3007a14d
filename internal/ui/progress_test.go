package ui

import (
	"errors"
	"math"
	"strings"
	"testing"

	"covgram/internal/pipeline"
)

func TestApplyEventTracksSeeds(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("generate pkg", 2, events).(*progressModel)

	m.applyEvent(pipeline.Event{Seed: -1, Stage: pipeline.StageGoal, Status: pipeline.StatusWorking})
	if m.stageLabel != "goal" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}

	m.applyEvent(pipeline.Event{Seed: 0, Stage: pipeline.StageGenerate, Status: pipeline.StatusDone, Inputs: 4, Fraction: 1})
	m.applyEvent(pipeline.Event{Seed: 1, Stage: pipeline.StageGenerate, Status: pipeline.StatusWorking})
	if got := m.percent(); math.Abs(got-0.65) > 1e-9 {
		t.Fatalf("percent = %v, want 0.65", got)
	}

	m.applyEvent(pipeline.Event{Seed: 1, Stage: pipeline.StageWrite, Status: pipeline.StatusError, Err: errors.New("disk full")})
	view := m.View()
	for _, want := range []string{"seed 00", "4 inputs, 100% covered", "disk full"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
	m.applyEvent(pipeline.Event{Seed: 7, Status: pipeline.StatusDone})
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ab", 6); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
