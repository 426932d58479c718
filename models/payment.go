package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRole string

const (
	PaymentRoleDeposit PaymentRole = "deposit"
	PaymentRoleRest    PaymentRole = "rest"
	PaymentRoleSingle  PaymentRole = "single"
)

// NormalizeRole folds the legacy role spellings into the canonical set.
// Older sessions were tagged "second" or "final" for the rest instalment.
func NormalizeRole(raw string) (PaymentRole, bool) {
	switch raw {
	case "deposit", "first":
		return PaymentRoleDeposit, true
	case "rest", "second", "final":
		return PaymentRoleRest, true
	case "single", "full":
		return PaymentRoleSingle, true
	default:
		return "", false
	}
}

// RoleAliases lists every raw spelling that normalizes to the role, the
// inverse of NormalizeRole. Ledger queries filter with this set so rows
// written under a legacy spelling are still enumerated.
func RoleAliases(role PaymentRole) []string {
	switch role {
	case PaymentRoleDeposit:
		return []string{"deposit", "first"}
	case PaymentRoleRest:
		return []string{"rest", "second", "final"}
	case PaymentRoleSingle:
		return []string{"single", "full"}
	default:
		return []string{string(role)}
	}
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "open"
	SessionStatusComplete  SessionStatus = "complete"
	SessionStatusProcessed SessionStatus = "processed"
)

type ScheduleTag string

const (
	ScheduleTagSplit  ScheduleTag = "split"
	ScheduleTagSingle ScheduleTag = "single"
)

// Payment is one locally persisted fact about a checkout session or a manual
// payment. Rows are never deleted, only superseded; a deal can legitimately
// accumulate several rows of the same role, so consumers sum amounts instead
// of trusting row counts.
type Payment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	DealId        int             `gorm:"index;not null" json:"deal_id"`
	Role          PaymentRole     `gorm:"size:20;not null;index" json:"role"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Currency      string          `gorm:"size:8;not null" json:"currency"`
	Status        PaymentStatus   `gorm:"size:20;not null;index" json:"status"`
	SessionStatus SessionStatus   `gorm:"size:20" json:"session_status"`
	Schedule      ScheduleTag     `gorm:"size:20" json:"schedule"`
	SessionId     string          `gorm:"size:255;index" json:"session_id"`
	SessionURL    string          `gorm:"type:text" json:"session_url"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentFilter narrows ListAll. Zero values mean "no filter".
type PaymentFilter struct {
	DealId int
	Role   PaymentRole
	Status PaymentStatus
}

// GormPaymentStore is the MySQL-backed payment ledger view.
type GormPaymentStore struct {
	DB *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *GormPaymentStore {
	return &GormPaymentStore{DB: db}
}

func (s *GormPaymentStore) ListForDeal(ctx context.Context, dealId int) ([]Payment, error) {
	var payments []Payment
	err := s.DB.WithContext(ctx).
		Where("deal_id = ?", dealId).
		Order("created_at").
		Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) ListAll(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	dbCtx := s.DB.WithContext(ctx).Model(&Payment{})
	if filter.DealId != 0 {
		dbCtx = dbCtx.Where("deal_id = ?", filter.DealId)
	}
	if filter.Role != "" {
		dbCtx = dbCtx.Where("role IN ?", RoleAliases(filter.Role))
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	var payments []Payment
	err := dbCtx.Order("created_at").Find(&payments).Error
	return payments, err
}

func (s *GormPaymentStore) Save(ctx context.Context, payment *Payment) error {
	if payment.ID == 0 {
		return s.DB.WithContext(ctx).Create(payment).Error
	}
	return s.DB.WithContext(ctx).Save(payment).Error
}
