package jobs

import (
	"context"
	"log/slog"
	"time"
)

const (
	JobFormSweep = "form_sweep"
	JobFormClose = "form_close"
)

type Service struct {
	queue chan job
}

type job struct {
	Type string
	Run  func(context.Context) error
}

func New(queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{queue: make(chan job, queueSize)}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Every enqueues run on each tick until ctx is done.
func (s *Service) Every(ctx context.Context, jobType string, interval time.Duration, run func(context.Context) error) {
	if interval <= 0 {
		return
	}
	go s.schedule(ctx, jobType, interval, run)
}

func (s *Service) Enqueue(jobType string, run func(context.Context) error) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	start := time.Now()
	err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	slog.Debug("job run", "jobType", j.Type, "status", status, "durationMs", time.Since(start).Milliseconds())
	return err
}

func (s *Service) schedule(ctx context.Context, jobType string, interval time.Duration, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}
