package paysync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

func plnDeal(amount int64) crm.Deal {
	return crm.Deal{ID: 1, Amount: decimal.NewFromInt(amount), Currency: "PLN"}
}

func paidRow(role models.PaymentRole, amount float64, currency string) models.Payment {
	return models.Payment{
		DealId: 1, Role: role,
		Amount: decimal.NewFromFloat(amount), Currency: currency,
		Status: models.PaymentStatusPaid,
	}
}

func TestPaidSum_ExcludesCrossCurrency(t *testing.T) {
	payments := []models.Payment{
		paidRow(models.PaymentRoleDeposit, 500, "PLN"),
		paidRow(models.PaymentRoleRest, 120, "EUR"),
		paidRow(models.PaymentRoleRest, 300, "pln"),
	}
	sum := paidSum(payments, "PLN")
	if !sum.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected 800 (EUR row excluded, case-insensitive PLN included), got %s", sum)
	}
}

func TestPaidSum_SumsDuplicateRowsInsteadOfCounting(t *testing.T) {
	// Two paid rows of one role violate the ledger invariant; they are summed,
	// never treated as fatal.
	payments := []models.Payment{
		paidRow(models.PaymentRoleRest, 250, "PLN"),
		paidRow(models.PaymentRoleRest, 250, "PLN"),
	}
	sum := paidSum(payments, "PLN", models.PaymentRoleRest)
	if !sum.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected duplicate rows summed to 500, got %s", sum)
	}
}

func TestPaidSum_NormalizesLegacyRoles(t *testing.T) {
	payments := []models.Payment{
		{DealId: 1, Role: "second", Amount: decimal.NewFromInt(200), Currency: "PLN", Status: models.PaymentStatusPaid},
		{DealId: 1, Role: "final", Amount: decimal.NewFromInt(100), Currency: "PLN", Status: models.PaymentStatusPaid},
		{DealId: 1, Role: "garbage", Amount: decimal.NewFromInt(999), Currency: "PLN", Status: models.PaymentStatusPaid},
	}
	sum := paidSum(payments, "PLN", models.PaymentRoleRest)
	if !sum.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected legacy aliases to count as rest (300), got %s", sum)
	}
}

func TestFirstPaidDeposit_PicksEarliest(t *testing.T) {
	early := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	payments := []models.Payment{
		{DealId: 1, Role: "first", Status: models.PaymentStatusPaid, Schedule: models.ScheduleTagSplit, CreatedAt: late, Currency: "PLN"},
		{DealId: 1, Role: models.PaymentRoleDeposit, Status: models.PaymentStatusPaid, Schedule: models.ScheduleTagSingle, CreatedAt: early, Currency: "PLN"},
		{DealId: 1, Role: models.PaymentRoleDeposit, Status: models.PaymentStatusUnpaid, CreatedAt: early.AddDate(0, -1, 0), Currency: "PLN"},
	}
	first := FirstPaidDeposit(payments)
	if first == nil {
		t.Fatal("expected a paid deposit")
	}
	if !first.CreatedAt.Equal(early) || first.Schedule != models.ScheduleTagSingle {
		t.Fatalf("expected the earliest paid deposit row, got created=%s schedule=%s", first.CreatedAt, first.Schedule)
	}
}

func TestIsDealFullyPaid_ThresholdBoundary(t *testing.T) {
	deal := plnDeal(1000)

	below := []models.Payment{paidRow(models.PaymentRoleDeposit, 949.99, "PLN")}
	if IsDealFullyPaid(deal, below) {
		t.Fatal("949.99 of 1000 is below the tolerance threshold")
	}

	at := []models.Payment{paidRow(models.PaymentRoleDeposit, 950, "PLN")}
	if !IsDealFullyPaid(deal, at) {
		t.Fatal("950 of 1000 meets the tolerance threshold")
	}
}

func TestIsDealFullyPaid_ZeroAmountDeal(t *testing.T) {
	deal := plnDeal(0)
	if IsDealFullyPaid(deal, nil) {
		t.Fatal("a zero-amount deal is never fully paid")
	}
}

func TestIsSecondInstalmentPaid_ThresholdBoundary(t *testing.T) {
	deal := plnDeal(1000)

	// Half is 500; the rest threshold sits at 450.
	below := []models.Payment{paidRow(models.PaymentRoleRest, 449.5, "PLN")}
	if IsSecondInstalmentPaid(deal, below) {
		t.Fatal("449.5 is below 90% of the half instalment")
	}

	at := []models.Payment{paidRow(models.PaymentRoleRest, 450, "PLN")}
	if !IsSecondInstalmentPaid(deal, at) {
		t.Fatal("450 meets 90% of the half instalment")
	}

	// Deposit rows never count toward the rest instalment.
	depositOnly := []models.Payment{paidRow(models.PaymentRoleDeposit, 1000, "PLN")}
	if IsSecondInstalmentPaid(deal, depositOnly) {
		t.Fatal("deposit payments must not satisfy the rest instalment")
	}
}

func TestOutstandingAmount_FloorsAtZero(t *testing.T) {
	deal := plnDeal(1000)
	payments := []models.Payment{
		paidRow(models.PaymentRoleDeposit, 600, "PLN"),
		paidRow(models.PaymentRoleRest, 600, "PLN"),
	}
	if got := OutstandingAmount(deal, payments); !got.Equal(decimal.Zero) {
		t.Fatalf("expected 0 outstanding on overpayment, got %s", got)
	}

	partial := []models.Payment{paidRow(models.PaymentRoleDeposit, 600, "PLN")}
	if got := OutstandingAmount(deal, partial); !got.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected 400 outstanding, got %s", got)
	}
}
