package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
)

const confirmPath = "/v1/payments/confirm"

// Client calls the Toss Payments settlement API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a secret key is present. Without one nothing can
// be verified.
func (c *Client) Configured() bool {
	return c != nil && c.secretKey != ""
}

// Confirm implements payment.Gateway.
func (c *Client) Confirm(ctx context.Context, conf payment.Confirmation) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, payment.ErrVerificationUnavailable
	}

	body, err := json.Marshal(conf)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+confirmPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+basicToken(c.secretKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call payment confirm: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment confirm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Message == "" {
			e.Message = "Payment Verification Failed"
		}
		return nil, &payment.VendorError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("payment confirm returned invalid JSON")
	}
	return json.RawMessage(data), nil
}

// basicToken is base64("<secret>:"), the Toss convention of an empty password.
func basicToken(secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(secret + ":"))
}
