// Copyright 2024-2026 the chutes-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chutes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the chutes management API endpoint, which serves
	// readiness queries.
	DefaultBaseURL = "https://api.chutes.ai"
	// DefaultInferenceURL is the OpenAI-compatible inference endpoint.
	DefaultInferenceURL = "https://llm.chutes.ai/v1"
	// DefaultImageURL is the image-generation endpoint.
	DefaultImageURL = "https://image.chutes.ai"

	defaultUserAgent = "chutes-go"
)

// ClientOption is an option used to customize the behavior of a Client.
type ClientOption interface {
	applyClient(*clientOptions)
}

// WithBaseURL overrides the management API endpoint used for readiness
// probes. Any trailing slash is trimmed.
func WithBaseURL(baseURL string) ClientOption {
	return clientOptionFunc(func(opts *clientOptions) {
		opts.baseURL = strings.TrimSuffix(baseURL, "/")
	})
}

// WithInferenceURL overrides the inference endpoint used for chat
// completions. Any trailing slash is trimmed.
func WithInferenceURL(inferenceURL string) ClientOption {
	return clientOptionFunc(func(opts *clientOptions) {
		opts.inferenceURL = strings.TrimSuffix(inferenceURL, "/")
	})
}

// WithImageURL overrides the image-generation endpoint. Any trailing
// slash is trimmed.
func WithImageURL(imageURL string) ClientOption {
	return clientOptionFunc(func(opts *clientOptions) {
		opts.imageURL = strings.TrimSuffix(imageURL, "/")
	})
}

// WithHTTPClient configures the underlying *http.Client used for all
// requests. If not specified, a client with a 30-second timeout is used.
// Note that streamed chat completions disable the per-request timeout,
// since a stream legitimately outlives it; use the request context to
// bound streams.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return clientOptionFunc(func(opts *clientOptions) {
		opts.httpClient = httpClient
	})
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return clientOptionFunc(func(opts *clientOptions) {
		opts.userAgent = userAgent
	})
}

type clientOptionFunc func(*clientOptions)

func (f clientOptionFunc) applyClient(opts *clientOptions) {
	f(opts)
}

type clientOptions struct {
	baseURL      string
	inferenceURL string
	imageURL     string
	userAgent    string
	httpClient   *http.Client
}

func (opts *clientOptions) applyDefaults() {
	if opts.baseURL == "" {
		opts.baseURL = DefaultBaseURL
	}
	if opts.inferenceURL == "" {
		opts.inferenceURL = DefaultInferenceURL
	}
	if opts.imageURL == "" {
		opts.imageURL = DefaultImageURL
	}
	if opts.userAgent == "" {
		opts.userAgent = defaultUserAgent
	}
	if opts.httpClient == nil {
		opts.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
}

// A Client binds an API key and endpoint configuration once and provides
// the chutes API surface: one-shot readiness probes, per-chute readiness
// monitors, chat completions, and image generation. Configuration is
// read-only after construction; a Client is safe for concurrent use.
//
// Close stops all monitors the Client created. Callers that create
// monitors through a Client should close it when done.
type Client struct {
	apiKey        string
	baseURL       string
	inferenceURL  string
	imageURL      string
	userAgent     string
	httpClient    *http.Client
	prober        Prober
	retryInterval time.Duration

	mu       sync.Mutex
	monitors map[string]*Monitor
	closed   bool
}

// NewClient creates a Client using the given API key and options. The
// API key must be non-empty.
func NewClient(apiKey string, options ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	var opts clientOptions
	for _, opt := range options {
		opt.applyClient(&opts)
	}
	opts.applyDefaults()
	client := &Client{
		apiKey:        apiKey,
		baseURL:       opts.baseURL,
		inferenceURL:  opts.inferenceURL,
		imageURL:      opts.imageURL,
		userAgent:     opts.userAgent,
		httpClient:    opts.httpClient,
		retryInterval: defaultRetryInterval,
		monitors:      make(map[string]*Monitor),
	}
	client.prober = &httpProber{
		client:    opts.httpClient,
		baseURL:   opts.baseURL,
		apiKey:    apiKey,
		userAgent: opts.userAgent,
	}
	return client, nil
}

// Probe issues a single readiness query for the given chute. Unlike a
// Monitor's scheduled probes, errors are surfaced to the caller: a
// non-2xx response yields a *APIError carrying the status code, chute ID,
// and response body.
func (c *Client) Probe(ctx context.Context, chuteID string) (ProbeResult, error) {
	return c.prober.Probe(ctx, chuteID)
}

// Monitor returns the readiness monitor for the given chute, creating it
// on first use. Monitors are cached per chute ID, so the given options
// only take effect when the call creates the monitor.
func (c *Client) Monitor(chuteID string, opts ...MonitorOption) (*Monitor, error) {
	if chuteID == "" {
		return nil, ErrMissingChuteID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	if existing, ok := c.monitors[chuteID]; ok {
		return existing, nil
	}
	monitor, err := NewMonitor(chuteID, c.prober, opts...)
	if err != nil {
		return nil, err
	}
	c.monitors[chuteID] = monitor
	return monitor, nil
}

// WarmUp concurrently waits for all the given chutes to report hot,
// creating (or reusing) a monitor for each and reheating idle ones. It
// returns the first error encountered; waiting on the remaining chutes
// is abandoned at that point. A non-positive timeout means
// DefaultWaitTimeout per chute.
func (c *Client) WarmUp(ctx context.Context, timeout time.Duration, chuteIDs ...string) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, chuteID := range chuteIDs {
		chuteID := chuteID
		group.Go(func() error {
			monitor, err := c.Monitor(chuteID)
			if err != nil {
				return err
			}
			return monitor.WaitUntilHot(ctx, timeout)
		})
	}
	return group.Wait()
}

// Close stops every monitor created through this Client. It is
// idempotent. Monitors created directly with NewMonitor are not
// affected.
func (c *Client) Close() {
	c.mu.Lock()
	monitors := make([]*Monitor, 0, len(c.monitors))
	for _, monitor := range c.monitors {
		monitors = append(monitors, monitor)
	}
	c.monitors = nil
	c.closed = true
	c.mu.Unlock()
	for _, monitor := range monitors {
		monitor.Stop()
	}
}

// Probe issues a single readiness query for the given chute using the
// given API key, without constructing a long-lived Client.
func Probe(ctx context.Context, chuteID, apiKey string, options ...ClientOption) (ProbeResult, error) {
	client, err := NewClient(apiKey, options...)
	if err != nil {
		return ProbeResult{}, err
	}
	defer client.Close()
	return client.Probe(ctx, chuteID)
}

// postJSON sends an authenticated JSON POST and returns the raw
// response. The caller owns the response body.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chutes: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chutes: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpClient.Do(req)
}

// responseError drains the body of a non-2xx response and converts it to
// a *APIError.
func responseError(resp *http.Response, chuteID string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	return &APIError{
		StatusCode: resp.StatusCode,
		ChuteID:    chuteID,
		Message:    apiErrorMessage(body),
		Body:       string(body),
	}
}
