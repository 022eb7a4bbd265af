package model

import "testing"

func TestCountersResetClearsPriorCounts(t *testing.T) {
	c := Counters{Clusters: 3, Stacks: 5, Modules: 8}
	c.Reset()

	if c.Clusters != 0 || c.Stacks != 0 || c.Modules != 0 {
		t.Errorf("Reset left stale counts: %+v", c)
	}
	if c.StartTime.IsZero() {
		t.Error("Reset did not latch a start time")
	}
}

func TestCountersStopRecordsElapsed(t *testing.T) {
	var c Counters
	c.Reset()
	c.Stop()

	if c.Time < 0 {
		t.Errorf("Time = %v, want non-negative", c.Time)
	}
}
