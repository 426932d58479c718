// Package notify is the HTTP client for the outbound messaging channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("NOTIFY_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("NOTIFY_API_BASE_URL is empty")
	}
	apiKey := strings.TrimSpace(os.Getenv("NOTIFY_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("NOTIFY_API_KEY is empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return err
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("notify api rejected message: %s", msg)
	}
	return nil
}

func (c *Client) Send(ctx context.Context, recipientID string, text string) error {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return errors.New("recipient id is empty")
	}
	return c.post(ctx, "/v1/messages", map[string]string{
		"recipient_id": recipientID,
		"text":         text,
	})
}

func (c *Client) UpdateRecipientMetadata(ctx context.Context, recipientID string, fields map[string]string) error {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return errors.New("recipient id is empty")
	}
	return c.post(ctx, "/v1/recipients/"+url.PathEscape(recipientID)+"/metadata", map[string]any{
		"fields": fields,
	})
}
