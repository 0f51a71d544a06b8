package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/models"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	reportLockName = "scheduled_report"
	// reportLockTTL bounds how long a crashed run blocks the day's report.
	reportLockTTL = 30 * time.Minute
)

// ReportScheduler generates the periodic report on working days. A
// SchedulerLock row per day lets only one instance run it.
type ReportScheduler struct {
	db       *gorm.DB
	configs  *SystemConfigService
	holidays *HolidayService
	reports  *ReportService
	instance string
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewReportScheduler(db *gorm.DB, configs *SystemConfigService, holidays *HolidayService, reports *ReportService) *ReportScheduler {
	host, _ := os.Hostname()
	return &ReportScheduler{
		db:       db,
		configs:  configs,
		holidays: holidays,
		reports:  reports,
		instance: fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		now:      time.Now,
	}
}

func (s *ReportScheduler) Start() error {
	s.mu.Lock()
	s.cron = cron.New()
	s.mu.Unlock()

	if err := s.Reschedule(); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[ReportScheduler] Scheduler started")
	return nil
}

func (s *ReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Reschedule reads the configured time again. The job is registered even
// when scheduling is disabled; RunOnce checks the flag on every tick.
func (s *ReportScheduler) Reschedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	sched := s.configs.GetReportSchedule()
	hour, minute, err := parseClock(sched.Time)
	if err != nil {
		logger.Warnf("[ReportScheduler] %v, using 18:00", err)
		hour, minute = 18, 0
	}
	expr := fmt.Sprintf("%d %d * * *", minute, hour)

	entryID, err := s.cron.AddFunc(expr, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Errorf("[ReportScheduler] Scheduled report failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule report: %w", err)
	}
	s.entryID = entryID
	logger.Infof("[ReportScheduler] Scheduled at %02d:%02d (cron: %s, enabled: %v)", hour, minute, expr, sched.Enabled)
	return nil
}

// RunOnce generates today's scheduled report. It returns a nil report when
// the run is skipped: scheduling disabled, a non-working day, or another
// instance holds the day's lock.
func (s *ReportScheduler) RunOnce(ctx context.Context) (*feedback.Report, error) {
	sched := s.configs.GetReportSchedule()
	if !sched.Enabled {
		return nil, nil
	}

	now := s.now()
	if !s.holidays.IsWorkday(now, sched.HolidayCountry) {
		logger.Infof("[ReportScheduler] %s is not a working day in %s, skipping", now.Format("2006-01-02"), sched.HolidayCountry)
		return nil, nil
	}

	key := now.Format("2006-01-02")
	claimed, err := s.claim(key, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		logger.Infof("[ReportScheduler] Report for %s already claimed, skipping", key)
		return nil, nil
	}

	saved, err := s.reports.Generate(ctx, sched.Tab, feedback.FilterState{}, TriggerScheduled)
	if err != nil {
		s.release(key)
		return nil, err
	}
	s.finish(key, now)
	return saved, nil
}

// claim takes the day's lock, or reclaims it if the holder let it expire.
func (s *ReportScheduler) claim(key string, now time.Time) (bool, error) {
	lock := models.SchedulerLock{
		LockName:  reportLockName,
		LockKey:   key,
		LockedBy:  s.instance,
		LockedAt:  now,
		ExpiresAt: now.Add(reportLockTTL),
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock)
	if result.Error != nil {
		return false, fmt.Errorf("claim report lock: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var held models.SchedulerLock
	if err := s.db.Where(&models.SchedulerLock{LockName: reportLockName, LockKey: key}).First(&held).Error; err != nil {
		return false, fmt.Errorf("read report lock: %w", err)
	}
	if !held.Expired(now) {
		return false, nil
	}
	takeover := s.db.Model(&models.SchedulerLock{}).
		Where("id = ? AND locked_by = ? AND expires_at = ?", held.ID, held.LockedBy, held.ExpiresAt).
		Updates(map[string]interface{}{"locked_by": s.instance, "locked_at": now, "expires_at": now.Add(reportLockTTL)})
	if takeover.Error != nil {
		return false, fmt.Errorf("reclaim report lock: %w", takeover.Error)
	}
	return takeover.RowsAffected == 1, nil
}

// endOfLocalDay is the last millisecond of t's calendar day in t's zone,
// the same day that names the lock key.
func endOfLocalDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
}

// finish keeps the lock until the day is over.
func (s *ReportScheduler) finish(key string, now time.Time) {
	endOfDay := endOfLocalDay(now)
	err := s.db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND locked_by = ?", reportLockName, key, s.instance).
		Update("expires_at", endOfDay).Error
	if err != nil {
		logger.Warnf("[ReportScheduler] Failed to extend lock %s: %v", key, err)
	}
}

func (s *ReportScheduler) release(key string) {
	err := s.db.Where("lock_name = ? AND lock_key = ? AND locked_by = ?", reportLockName, key, s.instance).
		Delete(&models.SchedulerLock{}).Error
	if err != nil {
		logger.Warnf("[ReportScheduler] Failed to release lock %s: %v", key, err)
	}
}
