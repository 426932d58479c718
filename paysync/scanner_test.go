package paysync

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
)

func TestScanner_FiltersExpiredList(t *testing.T) {
	now := testNow()
	sessions := newFakeSessions()

	keep := expiredSession("cs_keep", 21, "rest", now.AddDate(0, 0, -5), now.AddDate(0, 0, -4))
	sessions.add(keep)

	noDeal := expiredSession("cs_nodeal", 0, "rest", now.AddDate(0, 0, -5), now.AddDate(0, 0, -4))
	delete(noDeal.Metadata, checkout.MetaDealId)
	sessions.add(noDeal)

	badRole := expiredSession("cs_badrole", 22, "subscription", now.AddDate(0, 0, -5), now.AddDate(0, 0, -4))
	sessions.add(badRole)

	synthetic := expiredSession("cs_synth", 23, "rest", now.AddDate(0, 0, -5), now.AddDate(0, 0, -4))
	synthetic.CustomerEmail = "qa+test@agency.pl"
	sessions.add(synthetic)

	paid := expiredSession("cs_paid", 24, "rest", now.AddDate(0, 0, -5), now.AddDate(0, 0, -4))
	paid.PaymentStatus = checkout.PaymentStatusPaid
	sessions.add(paid)

	scanner := NewScanner(sessions, DefaultConfig())
	scanner.Clock = testNow

	got, err := scanner.FindExpiredUnpaidSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "cs_keep" {
		t.Fatalf("expected only cs_keep to survive filtering, got %v", got)
	}
}

// endlessSessions always reports another page; the scanner must stop at its
// page ceiling instead of walking the whole remote history.
type endlessSessions struct {
	fakeSessions
	calls int
}

func (e *endlessSessions) ListSessions(ctx context.Context, filter checkout.ListFilter) (checkout.SessionPage, error) {
	e.calls++
	session := expiredSession("cs_page_"+strconv.Itoa(e.calls), 30+e.calls, "rest",
		time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour))
	return checkout.SessionPage{
		Sessions:   []checkout.Session{session},
		HasMore:    true,
		NextCursor: strconv.Itoa(e.calls),
	}, nil
}

func TestScanner_CapsPagesScanned(t *testing.T) {
	endless := &endlessSessions{}
	cfg := DefaultConfig()
	cfg.ScannerMaxPages = 3

	scanner := NewScanner(endless, cfg)
	got, err := scanner.FindExpiredUnpaidSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endless.calls != 3 {
		t.Fatalf("expected exactly 3 list calls, got %d", endless.calls)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions from 3 pages, got %d", len(got))
	}
}

func TestScanner_SyntheticSessionID(t *testing.T) {
	scanner := NewScanner(newFakeSessions(), DefaultConfig())

	cases := map[string]bool{
		"cs_test_abc123": true,
		"test_555":       true,
		"":               true,
		"cs_live_999":    false,
	}
	for id, want := range cases {
		if got := scanner.IsSyntheticSessionID(id); got != want {
			t.Fatalf("IsSyntheticSessionID(%q) = %v, want %v", id, got, want)
		}
	}
}
