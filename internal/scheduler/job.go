package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: the scheduled job interface is defined only here
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression with a seconds field, e.g. "0 10 0 * * *", or a descriptor like "@daily"
	Schedule() string
}

// historySize is the number of results kept per job
const historySize = 100

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobStats summarizes the kept history of a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// jobHistory keeps the latest results of one job, oldest first.
// It is guarded by the scheduler's mutex.
type jobHistory struct {
	results []JobResult
}

func (h *jobHistory) add(result JobResult) {
	h.results = append(h.results, result)
	if n := len(h.results); n > historySize {
		h.results = append(h.results[:0:0], h.results[n-historySize:]...)
	}
}

// snapshot returns a copy that callers may keep
func (h *jobHistory) snapshot() []JobResult {
	return append([]JobResult(nil), h.results...)
}

func (h *jobHistory) stats(name, schedule string) JobStats {
	s := JobStats{JobName: name, Schedule: schedule, TotalRuns: len(h.results)}

	for i := range h.results {
		r := &h.results[i]
		start := r.StartTime
		s.LastRun = &start
		if r.Success {
			s.SuccessCount++
			s.LastSuccess = &start
		} else {
			s.FailureCount++
			s.LastFailure = &start
		}
	}

	if s.TotalRuns > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalRuns)
	}
	return s
}
