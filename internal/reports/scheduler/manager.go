package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"employee-portal/employee-portal-backend/internal/reports"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Deliverer renders and mails the employees report
type Deliverer interface {
	DeliverScheduled(ctx context.Context, req reports.EmailRequest) (*reports.Report, error)
}

// Schedule is a recurring emailed employees report
type Schedule struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CronExpression string    `json:"cron_expression"`
	Timezone       string    `json:"timezone"`
	Recipients     []string  `json:"recipients"`
	Subject        string    `json:"subject,omitempty"`
	Body           string    `json:"body,omitempty"`
}

// ScheduleManagerConfig configuration for the schedule manager
type ScheduleManagerConfig struct {
	JobTimeout time.Duration `json:"job_timeout"`
}

// DefaultScheduleManagerConfig returns default configuration
func DefaultScheduleManagerConfig() ScheduleManagerConfig {
	return ScheduleManagerConfig{
		JobTimeout: 5 * time.Minute,
	}
}

// ScheduleManager runs report schedules on a cron
type ScheduleManager struct {
	cron      *cron.Cron
	jobs      map[uuid.UUID]cron.EntryID
	deliverer Deliverer
	config    ScheduleManagerConfig
	logger    *zap.Logger
	mu        sync.RWMutex
	running   bool
}

// NewScheduleManager creates a new schedule manager
func NewScheduleManager(deliverer Deliverer, logger *zap.Logger, config ScheduleManagerConfig) *ScheduleManager {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultScheduleManagerConfig().JobTimeout
	}
	return &ScheduleManager{
		cron:      cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		jobs:      make(map[uuid.UUID]cron.EntryID),
		deliverer: deliverer,
		config:    config,
		logger:    logger,
	}
}

// Start starts the schedule manager
func (m *ScheduleManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("schedule manager already running")
	}
	m.running = true

	m.logger.Info("Starting schedule manager", zap.Int("schedules", len(m.jobs)))
	m.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *ScheduleManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Stopping schedule manager")
	<-m.cron.Stop().Done()
}

// AddSchedule registers schedule, replacing any schedule with the same ID
func (m *ScheduleManager) AddSchedule(schedule *Schedule) error {
	if len(schedule.Recipients) == 0 {
		return fmt.Errorf("schedule %s has no recipients", schedule.Name)
	}

	loc := time.UTC
	if schedule.Timezone != "" {
		l, err := time.LoadLocation(schedule.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", schedule.Timezone, err)
		}
		loc = l
	}

	spec, err := parser.Parse(schedule.CronExpression)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpression, err)
	}
	if loc != time.UTC {
		spec, err = parser.Parse("CRON_TZ=" + loc.String() + " " + schedule.CronExpression)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpression, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entryID, ok := m.jobs[schedule.ID]; ok {
		m.cron.Remove(entryID)
	}

	s := *schedule
	m.jobs[schedule.ID] = m.cron.Schedule(spec, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.config.JobTimeout)
		defer cancel()
		m.executeSchedule(ctx, &s)
	}))

	m.logger.Info("Added schedule",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("name", schedule.Name),
		zap.String("cron", schedule.CronExpression),
		zap.String("timezone", loc.String()))

	return nil
}

// RemoveSchedule removes a schedule from the manager
func (m *ScheduleManager) RemoveSchedule(scheduleID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entryID, ok := m.jobs[scheduleID]; ok {
		m.cron.Remove(entryID)
		delete(m.jobs, scheduleID)

		m.logger.Info("Removed schedule", zap.String("schedule_id", scheduleID.String()))
	}
}

// executeSchedule delivers one scheduled report
func (m *ScheduleManager) executeSchedule(ctx context.Context, schedule *Schedule) {
	m.logger.Info("Executing scheduled report",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("schedule_name", schedule.Name))

	report, err := m.deliverer.DeliverScheduled(ctx, reports.EmailRequest{
		To:      schedule.Recipients,
		Subject: schedule.Subject,
		Body:    schedule.Body,
	})
	if err != nil {
		m.logger.Error("Failed to execute scheduled report",
			zap.String("schedule_id", schedule.ID.String()),
			zap.Error(err))
		return
	}

	m.logger.Info("Scheduled report execution completed",
		zap.String("schedule_id", schedule.ID.String()),
		zap.Int("rows", report.Rows),
		zap.Int("pages", report.Pages))
}

// GetActiveJobs returns the number of registered schedules
func (m *ScheduleManager) GetActiveJobs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// JobStatus represents the status of a scheduled job
type JobStatus struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	NextRun    time.Time `json:"next_run"`
	PrevRun    time.Time `json:"prev_run"`
}

// GetJobStatus returns the status of a scheduled job. NextRun is zero until
// the manager is started.
func (m *ScheduleManager) GetJobStatus(scheduleID uuid.UUID) (*JobStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entryID, ok := m.jobs[scheduleID]
	if !ok {
		return nil, fmt.Errorf("job not found")
	}

	entry := m.cron.Entry(entryID)
	return &JobStatus{
		ScheduleID: scheduleID,
		NextRun:    entry.Next,
		PrevRun:    entry.Prev,
	}, nil
}

// NextRun returns the first activation of expr after from
func NextRun(expr string, from time.Time) (time.Time, error) {
	spec, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return spec.Next(from), nil
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// DescribeCronExpression returns a human-readable description of a cron expression
func DescribeCronExpression(expr string) string {
	switch expr {
	case "0 * * * *", "@hourly":
		return "Every hour"
	case "0 0 * * *", "@daily", "@midnight":
		return "Every day at midnight"
	case "0 0 * * 0", "@weekly":
		return "Every Sunday at midnight"
	case "0 0 1 * *", "@monthly":
		return "First day of every month at midnight"
	case "0 9 * * 1-5":
		return "Every weekday at 9:00 AM"
	default:
		return expr
	}
}
