package clearbooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the ClearBooks SOAP endpoint
	DefaultEndpoint = "https://secure.clearbooks.co.uk/api/soap/"
	// apiURI is the SOAP namespace URI; combined with an action name it forms
	// the SOAPAction header
	apiURI = "https://secure.clearbooks.co.uk/api/accounting/soap/"
)

const envelope = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope
    xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"
    xmlns:ns1="https://secure.clearbooks.co.uk/api/accounting/soap/"
    xmlns:xsd="http://www.w3.org/2001/XMLSchema">
<SOAP-ENV:Header>
    <ns1:authenticate>
    <apiKey>%s</apiKey>
    </ns1:authenticate>
</SOAP-ENV:Header>
<SOAP-ENV:Body>
    %s
</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

// Config holds ClearBooks client configuration
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client talks to the ClearBooks SOAP API. Every call wraps one body fragment
// in the authenticated envelope and posts it to the single endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new ClearBooks API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// post wraps body in the authenticated envelope, dispatches it with the given
// action name and parses the reply into an XML document.
func (c *Client) post(ctx context.Context, action, body string) (*etree.Document, error) {
	payload := fmt.Sprintf(envelope, escapeText(c.cfg.APIKey), body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("SOAPAction", apiURI+"#"+action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clearbooks %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", action, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s response (HTTP %d): %w", action, resp.StatusCode, err)
	}

	if fault := doc.FindElement("//faultstring"); fault != nil {
		c.logger.Error("ClearBooks API returned fault",
			zap.String("action", action),
			zap.String("fault", fault.Text()))
		return nil, fmt.Errorf("clearbooks %s fault: %s", action, fault.Text())
	}

	return doc, nil
}

// fragment serializes a body element built with etree into a string ready for
// the envelope
func fragment(root *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(root)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize request body: %w", err)
	}
	return s, nil
}

// escapeText escapes the XML special characters in a text value
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
