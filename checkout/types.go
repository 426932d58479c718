package checkout

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

type SessionPaymentStatus string

const (
	PaymentStatusPaid   SessionPaymentStatus = "paid"
	PaymentStatusUnpaid SessionPaymentStatus = "unpaid"
	PaymentStatusNotDue SessionPaymentStatus = "no_payment_required"
)

// Metadata keys the engine writes on session creation and reads back when
// scanning. Sessions missing MetaDealId or MetaRole are not ours.
const (
	MetaDealId   = "deal_id"
	MetaRole     = "payment_role"
	MetaSchedule = "schedule"
)

// Session is the processor-owned checkout session. The engine only reads it;
// lifecycle (expiry, completion) belongs to the processor.
type Session struct {
	ID            string
	Status        SessionStatus
	PaymentStatus SessionPaymentStatus
	AmountTotal   decimal.Decimal
	Currency      string
	URL           string
	CustomerEmail string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Metadata      map[string]string
}

// DealId extracts the deal reference from metadata; false when absent or
// malformed.
func (s Session) DealId() (int, bool) {
	raw, ok := s.Metadata[MetaDealId]
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Role returns the normalized instalment role from metadata.
func (s Session) Role() (models.PaymentRole, bool) {
	return models.NormalizeRole(s.Metadata[MetaRole])
}

type ListFilter struct {
	Status        SessionStatus
	CreatedAfter  time.Time
	Limit         int
	StartingAfter string
}

type SessionPage struct {
	Sessions   []Session
	HasMore    bool
	NextCursor string
}

// SessionContext carries the instalment semantics a new session is created
// with. CustomAmount overrides the role-derived amount when set.
type SessionContext struct {
	Role                 models.PaymentRole
	Schedule             models.ScheduleTag
	InstalmentIndex      int
	CustomAmount         *decimal.Decimal
	SuppressNotification bool
}

type CreateResult struct {
	SessionId string
	URL       string
	Amount    decimal.Decimal
	Currency  string
}

// rawSession is the wire shape: unix timestamps, minor-unit amounts.
type rawSession struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   json.Number       `json:"amount_total"`
	Currency      string            `json:"currency"`
	URL           string            `json:"url"`
	CustomerEmail string            `json:"customer_email"`
	Created       int64             `json:"created"`
	ExpiresAt     int64             `json:"expires_at"`
	Metadata      map[string]string `json:"metadata"`
}

func (r rawSession) normalize() Session {
	amount := decimal.Zero
	if r.AmountTotal.String() != "" {
		if d, err := decimal.NewFromString(r.AmountTotal.String()); err == nil {
			// Amounts travel in minor units.
			amount = d.Div(decimal.NewFromInt(100))
		}
	}
	meta := r.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return Session{
		ID:            r.ID,
		Status:        SessionStatus(r.Status),
		PaymentStatus: SessionPaymentStatus(r.PaymentStatus),
		AmountTotal:   amount,
		Currency:      normalizeCurrency(r.Currency),
		URL:           r.URL,
		CustomerEmail: r.CustomerEmail,
		CreatedAt:     time.Unix(r.Created, 0),
		ExpiresAt:     time.Unix(r.ExpiresAt, 0),
		Metadata:      meta,
	}
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
