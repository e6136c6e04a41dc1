package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/platform/metrics"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Recorder persists job runs. A nil Recorder skips bookkeeping.
type Recorder interface {
	Start(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

type Service struct {
	recorder Recorder
	metrics  *metrics.Registry
	queue    chan job

	mu        sync.Mutex
	schedules []schedule
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

type schedule struct {
	jobType  string
	interval time.Duration
	run      func(context.Context) (any, error)
}

func New(recorder Recorder, reg *metrics.Registry) *Service {
	return &Service{
		recorder: recorder,
		metrics:  reg,
		queue:    make(chan job, 128),
	}
}

// Every registers a periodic job. Schedules start with Start.
func (s *Service) Every(jobType string, interval time.Duration, run func(context.Context) (any, error)) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule{jobType: jobType, interval: interval, run: run})
}

// Start runs the single worker and the registered schedules until ctx ends.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sch := range s.schedules {
		go s.tick(ctx, sch)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		s.metrics.JobRun(jobType, "dropped")
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) tick(ctx context.Context, sch schedule) {
	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sch.jobType, "", sch.run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.recorder != nil {
		id, err := s.recorder.Start(ctx, j.TenantID, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	started := time.Now()
	details, err := s.safeRun(ctx, j)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	s.metrics.JobRun(j.Type, status)
	slog.Debug("job finished", "jobType", j.Type, "status", status, "duration", time.Since(started))

	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if updErr := s.recorder.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) safeRun(ctx context.Context, j job) (details any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("job panicked: %v", rec)
		}
	}()
	return j.Run(ctx)
}

// PGRecorder writes runs to job_runs. Scheduled jobs have no tenant.
type PGRecorder struct {
	DB *pgxpool.Pool
}

func (r PGRecorder) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES (NULLIF($1, '')::uuid, $2, $3)
    RETURNING id
  `, tenantID, jobType, StatusRunning).Scan(&id)
	return id, errors.Wrap(err, "insert job run")
}

func (r PGRecorder) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := r.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return errors.Wrap(err, "update job run")
}
