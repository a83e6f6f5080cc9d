package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests    uint64
	errorRequests    uint64
	rateLimited      uint64
	totalDurationMs  uint64
	dupChecks        uint64
	dupCheckFailures uint64
	submissions      uint64
	submitBlocked    uint64
	submitFailed     uint64
	openForms        int64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) DupCheck(failed bool) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.dupChecks, 1)
	if failed {
		atomic.AddUint64(&c.dupCheckFailures, 1)
	}
}

// Submission counts one submit attempt by outcome: "blocked", "failed" or "succeeded".
func (c *Collector) Submission(outcome string) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.submissions, 1)
	switch outcome {
	case "blocked":
		atomic.AddUint64(&c.submitBlocked, 1)
	case "failed":
		atomic.AddUint64(&c.submitFailed, 1)
	}
}

func (c *Collector) FormOpened() {
	if c != nil {
		atomic.AddInt64(&c.openForms, 1)
	}
}

func (c *Collector) FormClosed() {
	if c != nil {
		atomic.AddInt64(&c.openForms, -1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"rateLimitedTotal":       limited,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"dupChecksTotal":         atomic.LoadUint64(&c.dupChecks),
		"dupCheckFailuresTotal":  atomic.LoadUint64(&c.dupCheckFailures),
		"submissionsTotal":       atomic.LoadUint64(&c.submissions),
		"submissionsBlocked":     atomic.LoadUint64(&c.submitBlocked),
		"submissionsFailedTotal": atomic.LoadUint64(&c.submitFailed),
		"openForms":              atomic.LoadInt64(&c.openForms),
	}
}
