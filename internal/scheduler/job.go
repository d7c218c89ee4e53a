package scheduler

import (
	"context"
	"time"
)

// Job is one unit of scheduled work (가격 동기화, 재최적화)
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes one attempt; 실패 시 스케줄러가 재시도
	Run(ctx context.Context) error

	// Schedule returns a 6-field cron expression (초 필드 포함)
	// 예: "0 30 18 * * 1-5" (평일 18:30), "@every 1h"
	Schedule() string
}

// maxHistory 작업별 보관 실행 기록 수
const maxHistory = 100

// JobResult is one finished run of a job (재시도 포함 한 번)
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"` // 마지막 시도의 에러
}

// JobHistory keeps the most recent maxHistory results, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result and drops the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if n := len(h.Results); n > maxHistory {
		h.Results = append(h.Results[:0:0], h.Results[n-maxHistory:]...)
	}
}

// Latest returns the most recent result
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// GetLatestResults returns the latest n results (n > len이면 전체)
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// HistorySummary aggregates a job's retained history
type HistorySummary struct {
	Runs                int
	Failures            int
	Retried             int // 두 번 이상 시도한 실행 수
	ConsecutiveFailures int // 가장 최근부터 연속 실패 수
	LastSuccess         *time.Time
	LastFailure         *time.Time
}

// SuccessRate returns successes / runs (0.0 - 1.0)
func (s HistorySummary) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Runs-s.Failures) / float64(s.Runs)
}

// Summary walks the history once, newest first
func (h *JobHistory) Summary() HistorySummary {
	sum := HistorySummary{Runs: len(h.Results)}
	streak := true

	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		if r.Attempts > 1 {
			sum.Retried++
		}
		if r.Success {
			streak = false
			if sum.LastSuccess == nil {
				t := r.StartTime
				sum.LastSuccess = &t
			}
			continue
		}
		sum.Failures++
		if streak {
			sum.ConsecutiveFailures++
		}
		if sum.LastFailure == nil {
			t := r.StartTime
			sum.LastFailure = &t
		}
	}
	return sum
}
