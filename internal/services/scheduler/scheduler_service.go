package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	enabled   bool
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// JobStatus is a read-only snapshot of one registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Enabled   bool       `json:"enabled"`
	IsRunning bool       `json:"is_running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Service schedules recurring jobs with cron expressions evaluated in the
// configured market timezone. Each job is single-flight: a tick that lands
// while the previous run is still going is skipped.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	jobMu   sync.Mutex
	jobs    map[string]*jobEntry
	running bool
	runMu   sync.Mutex
}

// NewService creates a scheduler whose expressions fire in loc.
func NewService(loc *time.Location, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob registers a new job with the scheduler
func (s *Service) RegisterJob(name string, schedule string, handler func() error) error {
	if err := common.ValidateJobSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
		enabled:  true,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// Start begins firing registered jobs. Starting a running scheduler is a
// logged no-op, indistinguishable from success to the caller.
func (s *Service) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		s.logger.Warn().Msg("Scheduler already running, ignoring start")
		return nil
	}

	s.cron.Start()
	s.running = true

	s.jobMu.Lock()
	count := len(s.jobs)
	s.jobMu.Unlock()

	s.logger.Info().
		Int("job_count", count).
		Msg("Scheduler started")

	return nil
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Service) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// TriggerJob manually runs a job outside its schedule. The run is rejected if
// the job is already executing.
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}

	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.jobMu.Unlock()

	s.logger.Info().
		Str("job_name", name).
		Msg("Manually triggering job execution")

	go s.executeJob(name)

	return nil
}

// GetJobStatus returns the snapshot for one job.
func (s *Service) GetJobStatus(name string) (*JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	return s.snapshotLocked(entry), nil
}

// GetAllJobStatuses returns snapshots for every registered job.
func (s *Service) GetAllJobStatuses() map[string]*JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	statuses := make(map[string]*JobStatus, len(s.jobs))
	for name, entry := range s.jobs {
		statuses[name] = s.snapshotLocked(entry)
	}
	return statuses
}

func (s *Service) snapshotLocked(entry *jobEntry) *JobStatus {
	status := &JobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		Enabled:   entry.enabled,
		IsRunning: entry.isRunning,
		LastRun:   entry.lastRun,
		LastError: entry.lastError,
	}
	if cronEntry := s.cron.Entry(entry.cronID); cronEntry.ID == entry.cronID && !cronEntry.Next.IsZero() {
		next := cronEntry.Next
		status.NextRun = &next
	}
	return status
}

func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("job_name", name).
			Msg("Job not found")
		return
	}

	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("job_name", name).
			Msg("Job still running from previous tick, skipping")
		return
	}

	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	start := time.Now()
	s.logger.Info().
		Str("job_name", name).
		Msg("Job execution started")

	err := handler()

	completionTime := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job execution failed")
	} else {
		entry.lastError = ""
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(start)).
			Msg("Job execution completed successfully")
	}
	s.jobMu.Unlock()
}
