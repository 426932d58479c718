package models

import (
	"context"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionTypeSessionCreated ActionType = "session_created"
	ActionTypeReminderSent   ActionType = "reminder_sent"
)

// ErrDuplicateAction signals that an identical (deal, due date, action type)
// row already exists. Callers treat it as confirmation of already-done work.
var ErrDuplicateAction = errors.New("scheduled action already recorded")

// ScheduledAction is the durable idempotency log. One row per logical event:
// rows are inserted after a side effect is confirmed, never updated or
// deleted. The unique constraint doubles as the cross-process mutex.
type ScheduledAction struct {
	ID         int        `gorm:"primary_key" json:"id"`
	DealId     int        `gorm:"not null;index:uniq_action,unique" json:"deal_id"`
	DueDate    string     `gorm:"size:10;not null;index:uniq_action,unique" json:"due_date"`
	ActionType ActionType `gorm:"size:32;not null;index:uniq_action,unique" json:"action_type"`
	SessionId  string     `gorm:"size:255" json:"session_id"`
	Trigger    string     `gorm:"size:32" json:"trigger"`
	RunId      string     `gorm:"size:64;index" json:"run_id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// GormActionStore is the MySQL-backed idempotency store.
type GormActionStore struct {
	DB *gorm.DB
}

func NewActionStore(db *gorm.DB) *GormActionStore {
	return &GormActionStore{DB: db}
}

// Insert writes the record, mapping a unique-constraint violation to
// ErrDuplicateAction so a concurrent run's win reads as success.
func (s *GormActionStore) Insert(ctx context.Context, action *ScheduledAction) error {
	err := s.DB.WithContext(ctx).Create(action).Error
	if err != nil && isDuplicateKeyErr(err) {
		return ErrDuplicateAction
	}
	return err
}

func (s *GormActionStore) Query(ctx context.Context, dealId int, dueDate string) ([]ScheduledAction, error) {
	var actions []ScheduledAction
	err := s.DB.WithContext(ctx).
		Where("deal_id = ? AND due_date = ?", dealId, dueDate).
		Find(&actions).Error
	return actions, err
}
