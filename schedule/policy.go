// Package schedule decides which payment plan applies to a deal and when the
// second instalment of a split plan falls due. Everything here is pure
// calendar arithmetic in the business timezone; no I/O.
package schedule

import (
	"strings"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

type Plan string

const (
	PlanSplit  Plan = "split"
	PlanSingle Plan = "single"
)

// splitThresholdDays is how far out the expected close date must be for the
// deal to be invoiced in two instalments.
const splitThresholdDays = 30

// Decision is the derived schedule for a deal at a point in time. It is never
// stored; the plan in force when the deposit was paid is recovered from the
// payment record's schedule tag instead.
type Decision struct {
	Plan          Plan
	SecondDueDate *time.Time
	DaysUntilDue  int
}

// Determine classifies a deal into a plan from its expected close date.
// The plan is split when the close date is at least splitThresholdDays away
// from now; otherwise the whole amount is collected up front.
func Determine(expectedClose string, now time.Time) Decision {
	closeDate := parseDate(expectedClose)
	if closeDate == nil {
		return Decision{Plan: PlanSingle}
	}

	loc := utils.BusinessLocation()
	today := midnight(now.In(loc))
	days := int(closeDate.Sub(today).Hours() / 24)

	if days < splitThresholdDays {
		return Decision{Plan: PlanSingle, DaysUntilDue: days}
	}

	due := SecondInstalmentDueDate(expectedClose)
	return Decision{Plan: PlanSplit, SecondDueDate: due, DaysUntilDue: days}
}

// SecondInstalmentDueDate is the expected close date minus one calendar
// month, midnight-normalized. Returns nil on unparsable input.
func SecondInstalmentDueDate(expectedClose string) *time.Time {
	closeDate := parseDate(expectedClose)
	if closeDate == nil {
		return nil
	}
	due := closeDate.AddDate(0, -1, 0)
	return &due
}

// IsDueDateReached reports whether d is on or before today. The comparison is
// by calendar day in the business timezone, not by instant: a due date of
// "today" is reached at 00:00 local, not 24 hours after creation.
func IsDueDateReached(d time.Time, now time.Time) bool {
	loc := utils.BusinessLocation()
	due := midnight(d.In(loc))
	today := midnight(now.In(loc))
	return !due.After(today)
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	loc := utils.BusinessLocation()
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			d := midnight(t.In(loc))
			return &d
		}
	}
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
