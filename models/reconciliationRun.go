package models

import "time"

const (
	RunStatusQueued  = "queued"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

const (
	TriggerScheduler = "scheduler"
	TriggerManual    = "manual"
	TriggerCli       = "cli"
)

const (
	RunJobDeals     = "deals"
	RunJobReminders = "reminders"
	RunJobExpired   = "expired"
)

// ReconciliationRun is one execution of an engine entry point. Rows exist for
// observability only; correctness rests on the ScheduledAction log.
type ReconciliationRun struct {
	ID          uint       `gorm:"primary_key" json:"id"`
	RunId       string     `gorm:"size:64;uniqueIndex;not null" json:"run_id"`
	Job         string     `gorm:"size:20;not null;index" json:"job"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	TriggeredBy string     `gorm:"size:20" json:"triggered_by"`
	TotalFound  int        `json:"total_found"`
	Performed   int        `json:"performed"`
	SkipCount   int        `json:"skip_count"`
	ErrorCount  int        `json:"error_count"`
	StatsJSON   []byte     `gorm:"type:json" json:"stats"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	DurationMs  int64      `json:"duration_ms"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
