package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig represents configuration for the shared gateway HTTP client
type HTTPClientConfig struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	DefaultHeaders     map[string]string
}

// HTTPRequest represents a standardized outbound gateway request
type HTTPRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        any
	QueryParams map[string]string
}

// HTTPResponse represents a standardized gateway response
type HTTPResponse struct {
	StatusCode int
	Reason     string
	Headers    http.Header
	Body       []byte
}

// HTTPClient provides the outbound HTTP surface payment plugins use to talk
// to the gateway. One call per operation, no retries: on transport failure the
// operation fails and the gateway is expected to retry the webhook.
type HTTPClient struct {
	config *HTTPClientConfig
	client *http.Client
}

// NewHTTPClient creates the shared gateway HTTP client.
//
// TLS certificate verification toward the gateway is disabled to match the
// legacy integration's transport settings; keep it until the gateway contract
// is renegotiated.
func NewHTTPClient(config *HTTPClientConfig) *HTTPClient {
	if config == nil {
		config = &HTTPClientConfig{}
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}
	if !config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{}
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// DefaultHTTPClient returns a client with the legacy gateway transport
// settings applied.
func DefaultHTTPClient() *HTTPClient {
	return NewHTTPClient(&HTTPClientConfig{
		InsecureSkipVerify: true,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
	})
}

// PostJSON sends a JSON POST request and returns the raw response.
func (c *HTTPClient) PostJSON(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	req.Method = http.MethodPost
	return c.send(ctx, req, "application/json")
}

// Get sends a GET request and returns the raw response.
func (c *HTTPClient) Get(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	req.Method = http.MethodGet
	return c.send(ctx, req, "")
}

func (c *HTTPClient) send(ctx context.Context, req *HTTPRequest, contentType string) (*HTTPResponse, error) {
	fullURL := buildURL(req.URL, req.QueryParams)

	var body io.Reader
	if req.Body != nil {
		switch raw := req.Body.(type) {
		case string:
			body = strings.NewReader(raw)
		case []byte:
			body = bytes.NewReader(raw)
		default:
			jsonData, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			body = bytes.NewReader(jsonData)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Reason: err.Error()}
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// buildURL constructs the full URL with query parameters
func buildURL(rawURL string, queryParams map[string]string) string {
	if len(queryParams) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
