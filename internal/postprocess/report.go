// Package postprocess runs the independent steps that follow a scaffold
// (dependency install, repository init) concurrently and reports each one.
package postprocess

import "time"

// Status is the terminal state of a task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome is the result of one task.
type Outcome struct {
	Task     string
	Status   Status
	Reason   string // empty on success
	Duration time.Duration
}

// Report holds outcomes in scheduling order.
type Report struct {
	Outcomes []Outcome
}

// Outcome returns the outcome of the named task.
func (r Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Task == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed returns the failed outcomes.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// AllSucceeded reports whether no task failed. Skipped tasks count as
// succeeded.
func (r Report) AllSucceeded() bool {
	return len(r.Failed()) == 0
}
