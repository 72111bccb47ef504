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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

//nolint:gochecknoglobals
var (
	// ErrMissingChuteID is returned when an operation is attempted with
	// an empty chute ID. No network call is made.
	ErrMissingChuteID = errors.New("chute ID must not be empty")

	// ErrMissingAPIKey is returned when a Client is constructed or used
	// without an API key. No network call is made.
	ErrMissingAPIKey = errors.New("API key must not be empty")

	// ErrMonitorStopped is returned by operations on a Monitor after
	// Stop has been called. A stopped monitor cannot be restarted.
	ErrMonitorStopped = errors.New("monitor is stopped")

	// ErrClientClosed is returned by operations on a Client after Close
	// has been called.
	ErrClientClosed = errors.New("client is closed")
)

// APIError is returned when the chutes API responds with a non-2xx
// status. It carries enough context that a caller debugging a specific
// chute can always recover which chute failed, even after wrapping.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// ChuteID identifies the chute the failed request was for. Empty for
	// requests not scoped to a single chute.
	ChuteID string
	// Message is the best-effort human-readable error extracted from the
	// response body.
	Message string
	// Body is the raw response body.
	Body string
}

func (e *APIError) Error() string {
	if e.ChuteID != "" {
		return fmt.Sprintf("chutes: API error for chute %q (status %d): %s", e.ChuteID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chutes: API error (status %d): %s", e.StatusCode, e.Message)
}

// TimeoutError is returned by Monitor.WaitUntilHot when the chute does
// not become hot before the deadline.
type TimeoutError struct {
	// ChuteID identifies the chute that was being waited on.
	ChuteID string
	// Timeout is the deadline that elapsed.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("chutes: chute %q did not become hot within %v", e.ChuteID, e.Timeout)
}

// apiErrorMessage extracts a human-readable message from an error
// response body. JSON bodies are tried first, looking for the fields the
// API is known to use; anything else falls back to the raw text.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, candidate := range []string{parsed.Error, parsed.Message, parsed.Detail} {
			if candidate != "" {
				return candidate
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "no error details in response"
	}
	return text
}
