package scoro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds Scoro client configuration
type Config struct {
	BaseURL          string
	APIKey           string
	CompanyAccountID string
	Lang             string
	PerPage          int
	Timeout          time.Duration
}

// Client talks to the Scoro JSON API. Lookup caches live for the lifetime of
// the client and are not safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	products      map[int64]Product
	productGroups map[int64]string
	financeObjs   map[int64]string
}

// NewClient creates a new Scoro API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 40
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
		products:      make(map[int64]Product),
		productGroups: make(map[int64]string),
		financeObjs:   make(map[int64]string),
	}
}

// url builds the endpoint path for a resource, optional action and record id
func (c *Client) url(resource, action string, recordID int64) string {
	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + resource
	if action != "" {
		u += "/" + action
	}
	if recordID != 0 {
		u += "/" + strconv.FormatInt(recordID, 10)
	}
	return u
}

// fetch issues an authenticated request and returns the data payload. A
// non-OK envelope status is returned as an error carrying the remote message.
func (c *Client) fetch(ctx context.Context, resource, action string, recordID int64, options map[string]interface{}) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"company_account_id": c.cfg.CompanyAccountID,
		"apiKey":             c.cfg.APIKey,
		"lang":               c.cfg.Lang,
		"per_page":           c.cfg.PerPage,
	}
	for k, v := range options {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.url(resource, action, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoro request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	if envelope.Status != "OK" {
		c.logger.Error("Scoro API returned failure",
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Int64("record_id", recordID),
			zap.String("message", envelope.errorText()))
		return nil, fmt.Errorf("scoro API error on %s: %s", resource, envelope.errorText())
	}

	return envelope.Data, nil
}
