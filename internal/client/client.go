package client

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

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
)

// APIError is a non-2xx answer from the server; Message is its "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the wealth-face-ai server the way the browser does.
type Client struct {
	baseURL  string
	adminKey string
	client   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// WithAdminKey sets the key sent to operator endpoints.
func (c *Client) WithAdminKey(key string) *Client {
	c.adminKey = key
	return c
}

// AnalyzeResponse is the teaser the server returns for an upload.
type AnalyzeResponse struct {
	analysis.Result
	SessionToken string `json:"sessionToken"`
	Fallback     bool   `json:"fallback"`
	Locked       bool   `json:"locked"`
}

// Analyze uploads a data URI image.
func (c *Client) Analyze(ctx context.Context, dataURI string) (*AnalyzeResponse, error) {
	var out AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/api/analyze", "", map[string]string{"image": dataURI}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Checkout asks for an order bound to the session.
func (c *Client) Checkout(ctx context.Context, sessionToken string) (*payment.Order, error) {
	var out payment.Order
	if err := c.do(ctx, http.MethodPost, "/api/payment/checkout", sessionToken, map[string]string{"sessionToken": sessionToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Confirm forwards the redirect triple. sessionToken may be empty.
func (c *Client) Confirm(ctx context.Context, sessionToken string, conf payment.Confirmation) (json.RawMessage, error) {
	body := struct {
		payment.Confirmation
		SessionToken string `json:"sessionToken,omitempty"`
	}{conf, sessionToken}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/payment/confirm", "", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report fetches the unlocked reading; 402 while unpaid.
func (c *Client) Report(ctx context.Context, sessionToken string) (*analysis.Result, error) {
	var out analysis.Result
	if err := c.do(ctx, http.MethodGet, "/api/report", sessionToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Models lists the vendor models visible to the server.
func (c *Client) Models(ctx context.Context) ([]analysis.ModelInfo, error) {
	var out struct {
		Models []analysis.ModelInfo `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/models", c.adminKey, nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	return nil
}
