package paysync

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

// Payment-tolerance thresholds. The full-deal threshold absorbs rounding and
// processor fee deltas; the rest-instalment threshold is looser because
// partial second payments are accepted in practice. The two values are
// intentionally distinct.
var (
	fullPaidThreshold = decimal.NewFromFloat(0.95)
	restPaidThreshold = decimal.NewFromFloat(0.90)
)

func sameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func roleOf(p models.Payment) (models.PaymentRole, bool) {
	return models.NormalizeRole(string(p.Role))
}

// paidSum totals paid ledger rows matching the deal currency and one of the
// given roles (all roles when none given). Cross-currency rows are excluded,
// never converted; a wrong-by-omission total is safer than a silently wrong
// converted one. Rows are summed, not counted, because duplicate paid rows
// for one role are a tolerated input.
func paidSum(payments []models.Payment, currency string, roles ...models.PaymentRole) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.Status != models.PaymentStatusPaid {
			continue
		}
		if !sameCurrency(p.Currency, currency) {
			continue
		}
		if len(roles) > 0 {
			role, ok := roleOf(p)
			if !ok {
				continue
			}
			matched := false
			for _, want := range roles {
				if role == want {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		sum = sum.Add(p.Amount)
	}
	return sum
}

// FirstPaidDeposit returns the earliest paid deposit row, or nil. Its
// schedule tag is the frozen initial plan for the deal.
func FirstPaidDeposit(payments []models.Payment) *models.Payment {
	var first *models.Payment
	for i := range payments {
		p := &payments[i]
		role, ok := roleOf(*p)
		if !ok || role != models.PaymentRoleDeposit || p.Status != models.PaymentStatusPaid {
			continue
		}
		if first == nil || p.CreatedAt.Before(first.CreatedAt) {
			first = p
		}
	}
	return first
}

// IsFirstInstalmentPaid reports whether any paid deposit row exists.
func IsFirstInstalmentPaid(payments []models.Payment) bool {
	return FirstPaidDeposit(payments) != nil
}

// IsDealFullyPaid reports whether the currency-matched paid total reaches the
// full-deal tolerance threshold of the deal amount.
func IsDealFullyPaid(deal crm.Deal, payments []models.Payment) bool {
	if deal.Amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	sum := paidSum(payments, deal.Currency)
	return sum.GreaterThanOrEqual(deal.Amount.Mul(fullPaidThreshold))
}

// IsSecondInstalmentPaid reports whether the currency-matched paid rest total
// reaches the rest threshold of half the deal amount. Under the split plan
// the rest instalment is nominally half of the total.
func IsSecondInstalmentPaid(deal crm.Deal, payments []models.Payment) bool {
	if deal.Amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	sum := paidSum(payments, deal.Currency, models.PaymentRoleRest)
	half := deal.Amount.Div(decimal.NewFromInt(2))
	return sum.GreaterThanOrEqual(half.Mul(restPaidThreshold))
}

// OutstandingAmount is the deal amount minus everything currency-matched and
// paid, floored at zero.
func OutstandingAmount(deal crm.Deal, payments []models.Payment) decimal.Decimal {
	outstanding := deal.Amount.Sub(paidSum(payments, deal.Currency))
	if outstanding.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return outstanding
}
