package push

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

	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
)

const (
	defaultEndpoint             = "https://fcm.googleapis.com/fcm/send"
	responseBodyReadLimit int64 = 1024
	// FCM rejects multicast batches above 500 registration ids.
	maxTokensPerBatch = 500
)

var (
	errServerKeyRequired = errors.New("push server key is required")
)

// Client talks to the FCM legacy HTTP API used for device push delivery.
type Client struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint overrides the configured send endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// NewClient builds the push client given the provider server key.
func NewClient(serverKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(serverKey)
	if trimmedKey == "" {
		return nil, errServerKeyRequired
	}

	client := &Client{
		serverKey:  trimmedKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.endpoint == "" {
		client.endpoint = defaultEndpoint
	}

	return client, nil
}

// Message is the human-readable payload shown on the device.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result summarizes a delivery attempt.
type Result struct {
	Success int
	Failure int
}

type sendRequest struct {
	To              string         `json:"to,omitempty"`
	RegistrationIDs []string       `json:"registration_ids,omitempty"`
	Notification    Message        `json:"notification"`
	Data            map[string]any `json:"data,omitempty"`
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send delivers a notification to a single device token.
func (c *Client) Send(ctx context.Context, token string, msg Message, data map[string]any) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push client not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}

	return c.post(ctx, sendRequest{
		To:           token,
		Notification: msg,
		Data:         data,
	})
}

// SendMulti delivers a notification to many device tokens in provider-sized batches.
func (c *Client) SendMulti(ctx context.Context, tokens []string, msg Message, data map[string]any) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push client not configured")
	}

	clean := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one device token is required")
	}

	total := &Result{}
	for start := 0; start < len(clean); start += maxTokensPerBatch {
		end := start + maxTokensPerBatch
		if end > len(clean) {
			end = len(clean)
		}
		res, err := c.post(ctx, sendRequest{
			RegistrationIDs: clean[start:end],
			Notification:    msg,
			Data:            data,
		})
		if err != nil {
			return nil, err
		}
		total.Success += res.Success
		total.Failure += res.Failure
	}

	return total, nil
}

func (c *Client) post(ctx context.Context, body sendRequest) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal push request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build push request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute push request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "push request failed")
	}

	var apiResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode push response")
	}

	return &Result{
		Success: apiResp.Success,
		Failure: apiResp.Failure,
	}, nil
}
