// Package checkout is the HTTP client for the hosted checkout / payment
// session processor.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter <-chan time.Time
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("CHECKOUT_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("CHECKOUT_API_BASE_URL is empty")
	}
	apiKey := strings.TrimSpace(os.Getenv("CHECKOUT_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("CHECKOUT_API_KEY is empty")
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("CHECKOUT_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: time.Tick(interval),
	}, nil
}

type listResponse struct {
	Data       []json.RawMessage `json:"data"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader) ([]byte, error) {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// ListSessions returns one page of sessions. Callers own the pagination loop
// and its page cap.
func (c *Client) ListSessions(ctx context.Context, filter ListFilter) (SessionPage, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		params.Set("created_after", strconv.FormatInt(filter.CreatedAfter.Unix(), 10))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))
	if filter.StartingAfter != "" {
		params.Set("starting_after", filter.StartingAfter)
	}

	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions", params, nil)
	if err != nil {
		return SessionPage{}, err
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SessionPage{}, err
	}

	page := SessionPage{HasMore: parsed.HasMore, NextCursor: parsed.NextCursor}
	for _, raw := range parsed.Data {
		var rs rawSession
		if err := json.Unmarshal(raw, &rs); err != nil {
			continue
		}
		page.Sessions = append(page.Sessions, rs.normalize())
	}
	return page, nil
}

func (c *Client) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("session id is empty")
	}
	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var rs rawSession
	if err := json.Unmarshal(body, &rs); err != nil {
		return nil, err
	}
	session := rs.normalize()
	return &session, nil
}

type createSessionRequest struct {
	AmountMinor     int64             `json:"amount"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	Description     string            `json:"description"`
	Metadata        map[string]string `json:"metadata"`
	SuppressMessage bool              `json:"suppress_notification,omitempty"`
}

type createSessionResponse struct {
	Success  bool        `json:"success"`
	ID       string      `json:"id"`
	URL      string      `json:"url"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Error    string      `json:"error"`
}

// CreateSession opens a new hosted checkout session for the deal. The amount
// defaults by role (half for deposit/rest, full for single) unless the
// context carries an explicit override.
func (c *Client) CreateSession(ctx context.Context, deal crm.Deal, sc SessionContext) (*CreateResult, error) {
	amount := sessionAmount(deal.Amount, sc)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("deal %d: non-positive session amount", deal.ID)
	}

	reqBody := createSessionRequest{
		AmountMinor:     amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:        strings.ToLower(deal.Currency),
		Description:     sessionDescription(deal, sc),
		SuppressMessage: sc.SuppressNotification,
		Metadata: map[string]string{
			MetaDealId:   strconv.Itoa(deal.ID),
			MetaRole:     string(sc.Role),
			MetaSchedule: string(sc.Schedule),
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", nil, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}

	var parsed createSessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if !parsed.Success || parsed.ID == "" {
		msg := parsed.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("checkout session rejected: %s", msg)
	}

	created := amount
	if parsed.Amount.String() != "" {
		if d, derr := decimal.NewFromString(parsed.Amount.String()); derr == nil {
			created = d.Div(decimal.NewFromInt(100))
		}
	}
	currency := normalizeCurrency(parsed.Currency)
	if currency == "" {
		currency = normalizeCurrency(deal.Currency)
	}
	return &CreateResult{
		SessionId: parsed.ID,
		URL:       parsed.URL,
		Amount:    created,
		Currency:  currency,
	}, nil
}

func sessionAmount(dealAmount decimal.Decimal, sc SessionContext) decimal.Decimal {
	if sc.CustomAmount != nil {
		return *sc.CustomAmount
	}
	switch sc.Role {
	case models.PaymentRoleDeposit, models.PaymentRoleRest:
		return dealAmount.Div(decimal.NewFromInt(2))
	default:
		return dealAmount
	}
}

func sessionDescription(deal crm.Deal, sc SessionContext) string {
	switch sc.Role {
	case models.PaymentRoleDeposit:
		return fmt.Sprintf("%s - deposit (1/2)", deal.Title)
	case models.PaymentRoleRest:
		return fmt.Sprintf("%s - final instalment (2/2)", deal.Title)
	default:
		return deal.Title
	}
}
