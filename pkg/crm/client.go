// Package crm talks to the notification service: a separate origin, no
// authentication, best-effort only. Nothing here is authoritative booking
// state.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EventRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Notification is a read-only activity projection.
type Notification struct {
	ID            int64      `json:"id"`
	BookingID     int64      `json:"booking_id"`
	Action        string     `json:"action"`
	User          *PersonRef `json:"user,omitempty"`
	Event         *EventRef  `json:"event,omitempty"`
	Facilitator   *PersonRef `json:"facilitator,omitempty"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Timestamp     string     `json:"timestamp,omitempty"`
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return fmt.Errorf("missing crm base url")
	}

	u := strings.TrimSuffix(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm service error: status=%d", resp.StatusCode)
	}

	if out != nil {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("decode crm response failed: %w", err)
		}
	}
	return nil
}
