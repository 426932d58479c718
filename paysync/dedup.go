package paysync

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

// ActionLog gates every side effect. The in-process set covers repetition
// within one run; the durable store covers repetition across runs and
// restarts. The cache is never the only gate.
type ActionLog struct {
	store ActionStore

	mu   sync.Mutex
	seen map[string]bool
}

func NewActionLog(store ActionStore) *ActionLog {
	return &ActionLog{store: store, seen: map[string]bool{}}
}

// DueDateKey normalizes a due date to its calendar-day key in the business
// timezone. All idempotency rows are keyed at day granularity.
func DueDateKey(t time.Time) string {
	return t.In(utils.BusinessLocation()).Format("2006-01-02")
}

func cacheKey(dealId int, dueDate string) string {
	return strconv.Itoa(dealId) + "|" + dueDate
}

// WasActionTaken reports whether any action is already recorded for the
// (deal, due date) pair. A hit from the durable store populates the cache.
func (l *ActionLog) WasActionTaken(ctx context.Context, dealId int, dueDate string) (bool, error) {
	key := cacheKey(dealId, dueDate)

	l.mu.Lock()
	hit := l.seen[key]
	l.mu.Unlock()
	if hit {
		return true, nil
	}

	actions, err := l.store.Query(ctx, dealId, dueDate)
	if err != nil {
		return false, err
	}
	if len(actions) == 0 {
		return false, nil
	}

	l.mu.Lock()
	l.seen[key] = true
	l.mu.Unlock()
	return true, nil
}

// RecordAction inserts the idempotency row after the side effect is
// confirmed. A duplicate-key insert means a concurrent run already recorded
// the same logical event and reads as success.
func (l *ActionLog) RecordAction(ctx context.Context, action *models.ScheduledAction) error {
	err := l.store.Insert(ctx, action)
	if err != nil && !errors.Is(err, models.ErrDuplicateAction) {
		return err
	}

	l.mu.Lock()
	l.seen[cacheKey(action.DealId, action.DueDate)] = true
	l.mu.Unlock()
	return nil
}
