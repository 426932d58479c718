// Package paysync is the second-payment reconciliation and scheduling engine.
// It merges the local payment ledger with the checkout processor's session
// list, decides per deal whether a second-instalment session, a reminder, or a
// recreation is owed, and performs at most one action per deal per run.
package paysync

import (
	"context"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

// DealSource is the read interface over the CRM.
type DealSource interface {
	GetDeal(ctx context.Context, id int) (*crm.Deal, error)
	GetDealWithRelatedData(ctx context.Context, id int) (*crm.DealBundle, error)
	ListDeals(ctx context.Context, filter crm.ListFilter) ([]crm.Deal, error)
}

// SessionAPI is the checkout processor interface. The processor owns session
// lifecycle; the engine only lists, retrieves, and asks for new sessions.
type SessionAPI interface {
	ListSessions(ctx context.Context, filter checkout.ListFilter) (checkout.SessionPage, error)
	RetrieveSession(ctx context.Context, id string) (*checkout.Session, error)
	CreateSession(ctx context.Context, deal crm.Deal, sc checkout.SessionContext) (*checkout.CreateResult, error)
}

// PaymentStore is the local payment ledger.
type PaymentStore interface {
	ListForDeal(ctx context.Context, dealId int) ([]models.Payment, error)
	ListAll(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
}

// ActionStore is the durable idempotency log.
type ActionStore interface {
	Insert(ctx context.Context, action *models.ScheduledAction) error
	Query(ctx context.Context, dealId int, dueDate string) ([]models.ScheduledAction, error)
}

// Notifier delivers payment links and reminders to the deal's contact.
type Notifier interface {
	Send(ctx context.Context, recipientID string, text string) error
	UpdateRecipientMetadata(ctx context.Context, recipientID string, fields map[string]string) error
}

// Skip reasons recorded in run summaries. Skips are policy outcomes, not
// errors; a skipped deal is retried on the next scheduled run.
const (
	SkipDealExcluded             = "deal_excluded"
	SkipNoDueDate                = "no_due_date"
	SkipDueDateNotReached        = "due_date_not_reached"
	SkipDealFullyPaid            = "deal_fully_paid"
	SkipNotSplitPlan             = "not_split_plan"
	SkipFirstPaymentUnpaid       = "first_payment_unpaid"
	SkipSecondPaymentAlreadyPaid = "second_payment_already_paid"
	SkipActiveSessionExists      = "active_session_exists"
	SkipRecentSessionExists      = "recent_session_exists"
	SkipNewerOpenSession         = "newer_open_session"
	SkipAlreadyNotified          = "already_notified"
	SkipNoPaymentLink            = "no_payment_link"
	SkipNoRecipient              = "no_recipient"
)

type SkipEntry struct {
	DealId int    `json:"deal_id"`
	Reason string `json:"reason"`
}

type ErrorEntry struct {
	DealId  int    `json:"deal_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Summary is the outcome of one engine entry point. Per-deal failures land in
// Errors and never abort the batch.
type Summary struct {
	TotalFound int          `json:"total_found"`
	Created    int          `json:"created"`
	Sent       int          `json:"sent"`
	Recreated  int          `json:"recreated"`
	Skipped    []SkipEntry  `json:"skipped"`
	Errors     []ErrorEntry `json:"errors"`
}

func (s *Summary) skip(dealId int, reason string) {
	s.Skipped = append(s.Skipped, SkipEntry{DealId: dealId, Reason: reason})
}

func (s *Summary) fail(dealId int, stage string, err error) {
	s.Errors = append(s.Errors, ErrorEntry{DealId: dealId, Stage: stage, Message: err.Error()})
}

// Performed is the count of side effects this run dispatched.
func (s *Summary) Performed() int {
	return s.Created + s.Sent + s.Recreated
}

// ReminderTask is one deal that may be owed a second-instalment reminder,
// with the expired sessions the scanner attributed to it.
type ReminderTask struct {
	DealId          int
	ExpiredSessions []checkout.Session
}

// RecreationTask is one expired session elected for recreation. Per deal and
// role only the most recently expired session survives the collapse.
type RecreationTask struct {
	DealId  int
	Role    models.PaymentRole
	Session checkout.Session
}

// RunPayload travels through Pub/Sub from the trigger endpoint to the worker.
type RunPayload struct {
	RunId       string `json:"run_id"`
	Job         string `json:"job"`
	TriggeredBy string `json:"triggered_by"`
}

// PubSubPushEnvelope is the push-subscription wrapper around RunPayload.
type PubSubPushEnvelope struct {
	Message struct {
		Data        []byte            `json:"data"`
		Attributes  map[string]string `json:"attributes"`
		MessageId   string            `json:"messageId"`
		PublishTime time.Time         `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
