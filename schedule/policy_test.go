package schedule

import (
	"testing"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

func locNow() (*time.Location, time.Time) {
	loc := utils.BusinessLocation()
	return loc, time.Date(2026, 8, 28, 12, 0, 0, 0, loc)
}

func TestDetermine_SplitThresholdBoundary(t *testing.T) {
	_, now := locNow()

	// Exactly 30 days out: split.
	at := Determine("2026-09-27", now)
	if at.Plan != PlanSplit {
		t.Fatalf("30 days out: expected split, got %s (days=%d)", at.Plan, at.DaysUntilDue)
	}
	if at.SecondDueDate == nil {
		t.Fatal("split decision must carry a due date")
	}

	// 29 days out: single.
	under := Determine("2026-09-26", now)
	if under.Plan != PlanSingle {
		t.Fatalf("29 days out: expected single, got %s", under.Plan)
	}
	if under.SecondDueDate != nil {
		t.Fatal("single decision must not carry a due date")
	}
}

func TestDetermine_UnparsableCloseDate(t *testing.T) {
	_, now := locNow()
	decision := Determine("soon-ish", now)
	if decision.Plan != PlanSingle || decision.SecondDueDate != nil {
		t.Fatalf("unparsable input must fall back to single, got %+v", decision)
	}
}

func TestSecondInstalmentDueDate_MinusOneMonth(t *testing.T) {
	loc, _ := locNow()

	due := SecondInstalmentDueDate("2026-09-28")
	if due == nil {
		t.Fatal("expected a due date")
	}
	want := time.Date(2026, 8, 28, 0, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Fatalf("expected %s, got %s", want, due)
	}

	if got := SecondInstalmentDueDate(""); got != nil {
		t.Fatalf("empty input must yield nil, got %s", got)
	}
	if got := SecondInstalmentDueDate("garbage"); got != nil {
		t.Fatalf("garbage input must yield nil, got %s", got)
	}
}

func TestIsDueDateReached_CalendarDaySemantics(t *testing.T) {
	loc, _ := locNow()

	// 00:01 on the due date: reached, even though less than 24h may have
	// passed since anything happened.
	justAfterMidnight := time.Date(2026, 8, 28, 0, 1, 0, 0, loc)
	due := time.Date(2026, 8, 28, 0, 0, 0, 0, loc)
	if !IsDueDateReached(due, justAfterMidnight) {
		t.Fatal("a due date of today is reached at 00:00 local")
	}

	// 23:59 the evening before: not reached.
	eveBefore := time.Date(2026, 8, 27, 23, 59, 0, 0, loc)
	if IsDueDateReached(due, eveBefore) {
		t.Fatal("a due date of tomorrow is not reached at 23:59")
	}

	// Past due dates stay reached.
	lastWeek := due.AddDate(0, 0, -7)
	if !IsDueDateReached(lastWeek, justAfterMidnight) {
		t.Fatal("past due dates are reached")
	}
}
