package models

import "time"

// SchedulerLock is a row-level lock that lets one instance claim a
// scheduled run. LockKey is typically the run's date.
type SchedulerLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LockName  string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_name"`
	LockKey   string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_key"`
	LockedBy  string    `gorm:"size:100" json:"locked_by"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }

// Expired reports whether the lock may be reclaimed at now.
func (l *SchedulerLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
