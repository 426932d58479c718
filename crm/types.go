package crm

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type DealStatus string

const (
	DealStatusOpen    DealStatus = "open"
	DealStatusWon     DealStatus = "won"
	DealStatusLost    DealStatus = "lost"
	DealStatusDeleted DealStatus = "deleted"
)

// Deal is the engine's read-mostly view of a CRM deal. The engine never
// mutates CRM state; custom flags are normalized by the client.
type Deal struct {
	ID                int
	Title             string
	Amount            decimal.Decimal
	Currency          string
	ExpectedCloseDate string
	Status            DealStatus
	LostReason        string
	PersonId          int
	OrgId             int

	// InvoicingDelegated marks deals whose invoicing is handled by the
	// payment processor's own billing, not by this engine.
	InvoicingDelegated bool
	// TreatAsDeleted marks deals an operator excluded from invoicing without
	// deleting them in the CRM.
	TreatAsDeleted bool
}

// Excluded reports whether the deal must never receive sessions or reminders.
func (d Deal) Excluded() bool {
	return d.Status == DealStatusLost ||
		d.Status == DealStatusDeleted ||
		d.TreatAsDeleted ||
		d.InvoicingDelegated
}

type Person struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MessengerId string `json:"messenger_id"`
}

type Organization struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DealBundle is a deal with its related person and organization, fetched in
// one round trip.
type DealBundle struct {
	Deal         Deal
	Person       *Person
	Organization *Organization
}

type ListFilter struct {
	Status DealStatus
	Limit  int
	Start  int
}

// rawDeal is the wire shape. Amounts arrive as json.Number and custom flags
// as loosely typed values ("1", 1, true depending on field configuration).
type rawDeal struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Value              json.Number     `json:"value"`
	Currency           string          `json:"currency"`
	ExpectedCloseDate  string          `json:"expected_close_date"`
	Status             string          `json:"status"`
	LostReason         string          `json:"lost_reason"`
	PersonId           int             `json:"person_id"`
	OrgId              int             `json:"org_id"`
	InvoicingDelegated json.RawMessage `json:"invoicing_delegated"`
	TreatAsDeleted     json.RawMessage `json:"treat_as_deleted"`
}

func (r rawDeal) normalize() Deal {
	amount := decimal.Zero
	if r.Value.String() != "" {
		if d, err := decimal.NewFromString(r.Value.String()); err == nil {
			amount = d
		}
	}
	status := DealStatus(r.Status)
	switch status {
	case DealStatusOpen, DealStatusWon, DealStatusLost, DealStatusDeleted:
	default:
		status = DealStatusOpen
	}
	return Deal{
		ID:                 r.ID,
		Title:              r.Title,
		Amount:             amount,
		Currency:           r.Currency,
		ExpectedCloseDate:  r.ExpectedCloseDate,
		Status:             status,
		LostReason:         r.LostReason,
		PersonId:           r.PersonId,
		OrgId:              r.OrgId,
		InvoicingDelegated: parseFlag(r.InvoicingDelegated),
		TreatAsDeleted:     parseFlag(r.TreatAsDeleted),
	}
}

// parseFlag accepts the CRM's inconsistent boolean encodings.
func parseFlag(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "1" || s == "true" || s == "yes"
	}
	return false
}
