package model

import "time"

// Counters aggregates per-build statistics. Reset latches the start time;
// Stop records elapsed seconds. Not safe for concurrent increment, matching
// the single-threaded build traversal of §5.
type Counters struct {
	Clusters  int           `json:"clusters"`
	Stacks    int           `json:"stacks"`
	Modules   int           `json:"modules"`
	Time      time.Duration `json:"time"`
	StartTime time.Time     `json:"start_time"`
}

func (c *Counters) Reset() {
	*c = Counters{StartTime: time.Now()}
}

func (c *Counters) Stop() {
	c.Time = time.Since(c.StartTime)
}
