package main

import (
	"fmt"
	"io"
	"time"

	"covgram/internal/observ"
	"covgram/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	stages := []struct {
		stage pipeline.Stage
		label string
	}{
		{pipeline.StageLoad, "loaded"},
		{pipeline.StageGoal, "goal"},
		{pipeline.StageGenerate, "generated"},
		{pipeline.StageWrite, "written"},
	}
	for _, s := range stages {
		if timings.Has(s.stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", s.label, toMillis(timings.Duration(s.stage)))
		}
	}
}

func printTimerSummary(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
