package paysync

// NOTE: These tests are intentionally DB-free. The gorm-backed stores are thin
// projections; the semantics under test live in the engine, and the fakes
// reproduce the store contracts (including the unique-constraint behavior of
// the idempotency log).

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

type fakeDeals struct {
	bundles map[int]*crm.DealBundle
}

func (f *fakeDeals) GetDeal(ctx context.Context, id int) (*crm.Deal, error) {
	bundle, ok := f.bundles[id]
	if !ok {
		return nil, fmt.Errorf("deal %d not found", id)
	}
	deal := bundle.Deal
	return &deal, nil
}

func (f *fakeDeals) GetDealWithRelatedData(ctx context.Context, id int) (*crm.DealBundle, error) {
	bundle, ok := f.bundles[id]
	if !ok {
		return nil, fmt.Errorf("deal %d not found", id)
	}
	return bundle, nil
}

func (f *fakeDeals) ListDeals(ctx context.Context, filter crm.ListFilter) ([]crm.Deal, error) {
	var deals []crm.Deal
	for _, bundle := range f.bundles {
		deals = append(deals, bundle.Deal)
	}
	return deals, nil
}

type createCall struct {
	Deal crm.Deal
	SC   checkout.SessionContext
}

type fakeSessions struct {
	byStatus map[checkout.SessionStatus][]checkout.Session
	byId     map[string]checkout.Session

	created   []createCall
	createFn  func(deal crm.Deal, sc checkout.SessionContext) (*checkout.CreateResult, error)
	listCalls int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		byStatus: map[checkout.SessionStatus][]checkout.Session{},
		byId:     map[string]checkout.Session{},
	}
}

func (f *fakeSessions) add(session checkout.Session) {
	f.byStatus[session.Status] = append(f.byStatus[session.Status], session)
	f.byId[session.ID] = session
}

func (f *fakeSessions) ListSessions(ctx context.Context, filter checkout.ListFilter) (checkout.SessionPage, error) {
	f.listCalls++
	list := f.byStatus[filter.Status]

	start := 0
	if filter.StartingAfter != "" {
		start, _ = strconv.Atoi(filter.StartingAfter)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if start >= len(list) {
		return checkout.SessionPage{}, nil
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}
	return checkout.SessionPage{
		Sessions:   list[start:end],
		HasMore:    end < len(list),
		NextCursor: strconv.Itoa(end),
	}, nil
}

func (f *fakeSessions) RetrieveSession(ctx context.Context, id string) (*checkout.Session, error) {
	session, ok := f.byId[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return &session, nil
}

func (f *fakeSessions) CreateSession(ctx context.Context, deal crm.Deal, sc checkout.SessionContext) (*checkout.CreateResult, error) {
	f.created = append(f.created, createCall{Deal: deal, SC: sc})
	if f.createFn != nil {
		return f.createFn(deal, sc)
	}
	amount := deal.Amount
	if sc.CustomAmount != nil {
		amount = *sc.CustomAmount
	} else if sc.Role == models.PaymentRoleDeposit || sc.Role == models.PaymentRoleRest {
		amount = deal.Amount.Div(decimal.NewFromInt(2))
	}
	id := fmt.Sprintf("cs_live_%d_%d", deal.ID, len(f.created))
	return &checkout.CreateResult{
		SessionId: id,
		URL:       "https://pay.example.net/" + id,
		Amount:    amount,
		Currency:  deal.Currency,
	}, nil
}

type fakePayments struct {
	mu     sync.Mutex
	rows   []models.Payment
	nextId int
}

func (f *fakePayments) ListForDeal(ctx context.Context, dealId int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.rows {
		if p.DealId == dealId {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) ListAll(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.rows {
		if filter.DealId != 0 && p.DealId != filter.DealId {
			continue
		}
		if filter.Role != "" {
			role, ok := models.NormalizeRole(string(p.Role))
			if !ok || role != filter.Role {
				continue
			}
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePayments) Save(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment.ID == 0 {
		f.nextId++
		payment.ID = f.nextId
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = time.Now()
		}
		f.rows = append(f.rows, *payment)
		return nil
	}
	for i := range f.rows {
		if f.rows[i].ID == payment.ID {
			f.rows[i] = *payment
			return nil
		}
	}
	f.rows = append(f.rows, *payment)
	return nil
}

// fakeActions enforces the (deal, due date, action type) unique constraint
// the MySQL store implements, so idempotency races behave as in production.
type fakeActions struct {
	mu        sync.Mutex
	rows      []models.ScheduledAction
	insertErr error
}

func (f *fakeActions) Insert(ctx context.Context, action *models.ScheduledAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.rows {
		if existing.DealId == action.DealId &&
			existing.DueDate == action.DueDate &&
			existing.ActionType == action.ActionType {
			return models.ErrDuplicateAction
		}
	}
	action.ID = len(f.rows) + 1
	f.rows = append(f.rows, *action)
	return nil
}

func (f *fakeActions) Query(ctx context.Context, dealId int, dueDate string) ([]models.ScheduledAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScheduledAction
	for _, a := range f.rows {
		if a.DealId == dealId && a.DueDate == dueDate {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActions) countByType(actionType models.ActionType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.rows {
		if a.ActionType == actionType {
			count++
		}
	}
	return count
}

type sentMessage struct {
	Recipient string
	Text      string
}

type fakeNotify struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (f *fakeNotify) Send(ctx context.Context, recipientID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{Recipient: recipientID, Text: text})
	return nil
}

func (f *fakeNotify) UpdateRecipientMetadata(ctx context.Context, recipientID string, fields map[string]string) error {
	return nil
}

var errUnavailable = errors.New("collaborator unavailable")
