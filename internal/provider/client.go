package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"relaydesk/internal/config"
)

// SendRequest is one outbound dispatch to the provider.
type SendRequest struct {
	To          string
	Body        string
	MediaURL    string
	MediaType   string
	TemplateRef string
}

// SendResult carries the provider-assigned message id and the decoded
// response body, stored verbatim on the message row.
type SendResult struct {
	ExternalMessageID string
	Raw               map[string]interface{}
}

// Client talks to the provider's send API with a bearer credential.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.ProviderConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts one message. A transport error, timeout, non-2xx response or
// a response without a message id are all dispatch failures; the caller
// records them on the message row, never propagates them to the agent.
func (c *Client) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	form := url.Values{}
	form.Set("To", req.To)
	if req.Body != "" {
		form.Set("Body", req.Body)
	}
	if req.MediaURL != "" {
		form.Set("MediaUrl", req.MediaURL)
		form.Set("MediaContentType", req.MediaType)
	}
	if req.TemplateRef != "" {
		form.Set("Template", req.TemplateRef)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SendResult{}, fmt.Errorf("provider send: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SendResult{}, fmt.Errorf("provider send: read response: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SendResult{}, fmt.Errorf("provider send: malformed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{Raw: raw}, fmt.Errorf("provider send: status %d", resp.StatusCode)
	}

	sid, _ := raw["sid"].(string)
	if sid == "" {
		return SendResult{Raw: raw}, fmt.Errorf("provider send: response missing message id")
	}
	return SendResult{ExternalMessageID: sid, Raw: raw}, nil
}
