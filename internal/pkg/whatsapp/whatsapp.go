package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SendError distinguishes transient provider failures (retry on the next
// matching event) from permanent ones such as a malformed number.
type SendError struct {
	To        string
	Status    int
	Temporary bool
	Err       error
}

func (e *SendError) Error() string {
	kind := "permanent"
	if e.Temporary {
		kind = "temporary"
	}
	return fmt.Sprintf("whatsapp send to %s failed (%s, status=%d): %v", e.To, kind, e.Status, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Sender is the outbound messaging channel consumed by the dispatcher and
// the confirmation flow. SendTemplate opens a session window with a
// pre-approved template; SendText requires an open window.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendTemplate(ctx context.Context, to, template string, params []string) (string, error)
}

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// Client talks to the WhatsApp Cloud API. Requests pass through a token
// bucket so a restock burst does not trip the provider's throughput cap.
type Client struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string

	HTTPClient *http.Client
	limiter    *rate.Limiter
}

func NewClientFromEnv() *Client {
	return &Client{
		BaseURL:       strings.TrimRight(env.GetEnv("WHATSAPP_API_BASE_URL", defaultGraphBaseURL), "/"),
		PhoneNumberID: strings.TrimSpace(env.GetEnv("WHATSAPP_PHONE_NUMBER_ID", "")),
		AccessToken:   strings.TrimSpace(env.GetEnv("WHATSAPP_ACCESS_TOKEN", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a free-form text message. Only valid inside a session
// window opened by the subscriber's own inbound message.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.post(ctx, to, payload)
}

// SendTemplate sends a pre-approved template message, the only message kind
// allowed as the first contact of a session.
func (c *Client) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	components := []map[string]interface{}{}
	if len(params) > 0 {
		body := make([]map[string]string, 0, len(params))
		for _, p := range params {
			body = append(body, map[string]string{"type": "text", "text": p})
		}
		components = append(components, map[string]interface{}{
			"type":       "body",
			"parameters": body,
		})
	}
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]interface{}{
			"name":       template,
			"language":   map[string]string{"code": "en"},
			"components": components,
		},
	}
	return c.post(ctx, to, payload)
}

func (c *Client) post(ctx context.Context, to string, payload interface{}) (string, error) {
	if c.AccessToken == "" || c.PhoneNumberID == "" {
		return "", &SendError{To: to, Temporary: false, Err: errors.New("whatsapp credentials are not configured")}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &SendError{To: to, Temporary: true, Err: err}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", &SendError{To: to, Temporary: false, Err: err}
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", &SendError{To: to, Temporary: false, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Network level failures are worth retrying on the next event.
		return "", &SendError{To: to, Temporary: true, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		temporary := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", &SendError{To: to, Status: resp.StatusCode, Temporary: temporary,
			Err: fmt.Errorf("provider rejected message: %s", string(body))}
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &SendError{To: to, Status: resp.StatusCode, Temporary: false, Err: err}
	}
	if len(out.Messages) == 0 {
		return "", &SendError{To: to, Status: resp.StatusCode, Temporary: false, Err: errors.New("response missing message id")}
	}
	return out.Messages[0].ID, nil
}
