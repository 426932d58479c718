package paysync

import (
	"context"
	"strings"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
)

// Scanner pages through the processor's expired sessions. The local ledger
// can miss sessions (out-of-band creation, lost webhook), so the remote list
// is scanned directly, windowed and page-capped to bound latency.
type Scanner struct {
	Sessions SessionAPI
	Cfg      Config
	Clock    func() time.Time
}

func NewScanner(sessions SessionAPI, cfg Config) *Scanner {
	return &Scanner{Sessions: sessions, Cfg: cfg, Clock: time.Now}
}

// FindExpiredUnpaidSessions returns expired, unpaid sessions within the
// lookback window that carry a deal id and a recognized instalment role in
// metadata. Synthetic/test sessions are dropped. The result is deal-agnostic;
// grouping belongs to the caller.
func (s *Scanner) FindExpiredUnpaidSessions(ctx context.Context) ([]checkout.Session, error) {
	createdAfter := s.Clock().Add(-s.Cfg.ScannerLookback)

	var out []checkout.Session
	cursor := ""
	for page := 0; page < s.Cfg.ScannerMaxPages; page++ {
		result, err := s.Sessions.ListSessions(ctx, checkout.ListFilter{
			Status:        checkout.SessionStatusExpired,
			CreatedAfter:  createdAfter,
			Limit:         s.Cfg.ScannerPageSize,
			StartingAfter: cursor,
		})
		if err != nil {
			return nil, err
		}

		for _, session := range result.Sessions {
			if session.Status != checkout.SessionStatusExpired {
				continue
			}
			if session.PaymentStatus == checkout.PaymentStatusPaid {
				continue
			}
			if _, ok := session.DealId(); !ok {
				continue
			}
			if _, ok := session.Role(); !ok {
				continue
			}
			if s.IsSyntheticEmail(session.CustomerEmail) {
				continue
			}
			out = append(out, session)
		}

		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return out, nil
}

// IsSyntheticEmail reports whether the customer identity matches a known
// test-traffic pattern.
func (s *Scanner) IsSyntheticEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, fragment := range s.Cfg.SyntheticEmailFragments {
		if strings.Contains(email, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// IsSyntheticSessionID reports whether the session id is fabricated and must
// not be resolved against the live processor.
func (s *Scanner) IsSyntheticSessionID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return true
	}
	for _, prefix := range s.Cfg.SyntheticSessionPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
