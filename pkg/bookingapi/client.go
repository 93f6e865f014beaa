package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the bearer credential attached to outbound requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-credential TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// APIError is a server-rejected request: a non-2xx response carrying the
// backend's {"error": "..."} envelope. The message is surfaced verbatim.
// Transport failures and responses of any other shape are returned as plain
// errors so callers can tell the two apart.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking api rejected request: status=%d error=%s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// Client is the single outbound path to the booking API. Every request is
// augmented with "Authorization: Bearer <token>" when the token source yields
// one. No retries, no token refresh, no 401 interception.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Tokens     TokenSource
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		return 0, fmt.Errorf("missing api base url")
	}

	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return 0, err
		}
	}

	u := strings.TrimSuffix(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Tokens != nil {
		if token := strings.TrimSpace(c.Tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("booking api unreachable: %w", err)
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The backend contract is {"error": string}. Anything else is an
		// unknown failure, not a server rejection.
		var env errorEnvelope
		if err := json.Unmarshal(b, &env); err == nil && env.Error != "" {
			return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: env.Error}
		}
		return resp.StatusCode, fmt.Errorf("booking api error: status=%d", resp.StatusCode)
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			// Include body for easier debugging (unexpected shape, partial responses, etc).
			return resp.StatusCode, fmt.Errorf("decode booking api response failed: %w body=%s", err, string(b))
		}
	}

	return resp.StatusCode, nil
}
