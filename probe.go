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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// maxProbeBodyBytes bounds how much of a readiness response is read. The
// real endpoint returns a few hundred bytes; the limit only guards
// against a misbehaving server.
const maxProbeBodyBytes = 1 << 20

// ProbeResult is the outcome of a single readiness query. It is produced
// fresh on every probe and never mutated afterward.
type ProbeResult struct {
	// Status is the reported readiness of the chute.
	Status Status
	// InstanceCount is the number of live instances backing the chute,
	// as extracted from the diagnostic log text. Zero when the log does
	// not mention a count.
	InstanceCount int
	// Log is the raw diagnostic text reported by the endpoint, if any.
	Log string
}

// A Prober issues single-shot readiness queries for a chute. The HTTP
// implementation is bound to credentials by a Client; tests and callers
// with unusual transports can supply their own.
type Prober interface {
	Probe(ctx context.Context, chuteID string) (ProbeResult, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, chuteID string) (ProbeResult, error)

func (f ProberFunc) Probe(ctx context.Context, chuteID string) (ProbeResult, error) {
	return f(ctx, chuteID)
}

// instanceCountPattern matches the "<N> instances available" phrase the
// readiness endpoint embeds in its log text.
var instanceCountPattern = regexp.MustCompile(`(?i)(\d+)\s+instances?\s+available`)

// parseProbeResult maps a 2xx readiness response body to a ProbeResult.
// An empty or non-JSON body yields StatusUnknown with no instances;
// absence of data is not a failure.
func parseProbeResult(body []byte) ProbeResult {
	var wire struct {
		Status string `json:"status"`
		Log    string `json:"log"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return ProbeResult{}
	}
	return ProbeResult{
		Status:        statusFromWire(wire.Status),
		InstanceCount: parseInstanceCount(wire.Log),
		Log:           wire.Log,
	}
}

func parseInstanceCount(log string) int {
	match := instanceCountPattern.FindStringSubmatch(log)
	if match == nil {
		return 0
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// httpProber queries the readiness endpoint over HTTP. It is a purely
// functional mapping of the response to a ProbeResult; the only side
// effect is the network call itself.
type httpProber struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	userAgent string
}

var _ Prober = (*httpProber)(nil)

func (p *httpProber) Probe(ctx context.Context, chuteID string) (ProbeResult, error) {
	if chuteID == "" {
		return ProbeResult{}, ErrMissingChuteID
	}
	if p.apiKey == "" {
		return ProbeResult{}, ErrMissingAPIKey
	}
	endpoint := p.baseURL + "/chutes/warmup/" + url.PathEscape(chuteID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("chutes: building probe request for %q: %w", chuteID, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("chutes: readiness probe for %q: %w", chuteID, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	if err != nil {
		return ProbeResult{}, fmt.Errorf("chutes: reading probe response for %q: %w", chuteID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ProbeResult{}, &APIError{
			StatusCode: resp.StatusCode,
			ChuteID:    chuteID,
			Message:    apiErrorMessage(body),
			Body:       string(body),
		}
	}
	return parseProbeResult(body), nil
}
