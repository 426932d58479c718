// Package crm is the HTTP client for the external deal-tracking system.
package crm

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
)

type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	limiter  <-chan time.Time
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("CRM_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("CRM_API_BASE_URL is empty")
	}
	apiToken := strings.TrimSpace(os.Getenv("CRM_API_TOKEN"))
	if apiToken == "" {
		return nil, errors.New("CRM_API_TOKEN is empty")
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("CRM_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  time.Tick(interval),
	}, nil
}

type envelope struct {
	Success bool                       `json:"success"`
	Data    json.RawMessage            `json:"data"`
	Related map[string]json.RawMessage `json:"related_objects"`
	Error   string                     `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (envelope, error) {
	<-c.limiter
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiToken)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope{}, fmt.Errorf("crm api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed envelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return envelope{}, err
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "unknown error"
		}
		return envelope{}, fmt.Errorf("crm api rejected request: %s", msg)
	}
	return parsed, nil
}

func (c *Client) GetDeal(ctx context.Context, id int) (*Deal, error) {
	resp, err := c.get(ctx, "/v1/deals/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	var raw rawDeal
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, err
	}
	deal := raw.normalize()
	return &deal, nil
}

// GetDealWithRelatedData fetches the deal plus the person and organization it
// is linked to. Person and organization may be nil when unlinked.
func (c *Client) GetDealWithRelatedData(ctx context.Context, id int) (*DealBundle, error) {
	params := url.Values{}
	params.Set("include", "person,organization")
	resp, err := c.get(ctx, "/v1/deals/"+strconv.Itoa(id), params)
	if err != nil {
		return nil, err
	}

	var raw rawDeal
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, err
	}
	bundle := &DealBundle{Deal: raw.normalize()}

	if rawPerson, ok := resp.Related["person"]; ok && len(rawPerson) > 0 {
		var person Person
		if err := json.Unmarshal(rawPerson, &person); err == nil && person.ID != 0 {
			bundle.Person = &person
		}
	}
	if rawOrg, ok := resp.Related["organization"]; ok && len(rawOrg) > 0 {
		var org Organization
		if err := json.Unmarshal(rawOrg, &org); err == nil && org.ID != 0 {
			bundle.Organization = &org
		}
	}
	return bundle, nil
}

func (c *Client) ListDeals(ctx context.Context, filter ListFilter) ([]Deal, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))
	if filter.Start > 0 {
		params.Set("start", strconv.Itoa(filter.Start))
	}

	resp, err := c.get(ctx, "/v1/deals", params)
	if err != nil {
		return nil, err
	}

	var raws []rawDeal
	if err := json.Unmarshal(resp.Data, &raws); err != nil {
		return nil, err
	}
	deals := make([]Deal, 0, len(raws))
	for _, raw := range raws {
		deals = append(deals, raw.normalize())
	}
	return deals, nil
}
