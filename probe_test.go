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

package chutes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/chutes-ai/chutes-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProbeServer(t *testing.T, statusCode int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		writer.WriteHeader(statusCode)
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestProbeSuccess(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		body          string
		status        chutes.Status
		instanceCount int
	}{
		{
			name:          "hot with instances",
			body:          `{"status": "hot", "log": "chute is hot, 3 instances available"}`,
			status:        chutes.StatusHot,
			instanceCount: 3,
		},
		{
			name:          "case insensitive status",
			body:          `{"status": "HOT", "log": "1 INSTANCE AVAILABLE"}`,
			status:        chutes.StatusHot,
			instanceCount: 1,
		},
		{
			name:   "warming without count",
			body:   `{"status": "warming", "log": "instances are starting"}`,
			status: chutes.StatusWarming,
		},
		{
			name:   "cold",
			body:   `{"status": "cold"}`,
			status: chutes.StatusCold,
		},
		{
			name:   "unrecognized status maps to unknown",
			body:   `{"status": "tepid"}`,
			status: chutes.StatusUnknown,
		},
		{
			name:   "empty body is not an error",
			body:   "",
			status: chutes.StatusUnknown,
		},
		{
			name:   "non-JSON body is not an error",
			body:   "ok",
			status: chutes.StatusUnknown,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newProbeServer(t, http.StatusOK, testCase.body)
			result, err := chutes.Probe(context.Background(), "my-chute", "test-key",
				chutes.WithBaseURL(server.URL))
			require.NoError(t, err)
			assert.Equal(t, testCase.status, result.Status)
			assert.Equal(t, testCase.instanceCount, result.InstanceCount)
		})
	}
}

func TestProbeRequestPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chutes/warmup/my-chute", req.URL.Path)
		_, _ = writer.Write([]byte(`{"status": "hot"}`))
	}))
	t.Cleanup(server.Close)

	result, err := chutes.Probe(context.Background(), "my-chute", "test-key",
		chutes.WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Equal(t, chutes.StatusHot, result.Status)
}

func TestProbeAPIError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		statusCode int
		body       string
		message    string
	}{
		{
			name:       "JSON detail field",
			statusCode: http.StatusNotFound,
			body:       `{"detail": "chute not found"}`,
			message:    "chute not found",
		},
		{
			name:       "JSON error field",
			statusCode: http.StatusUnauthorized,
			body:       `{"error": "invalid token"}`,
			message:    "invalid token",
		},
		{
			name:       "raw text fallback",
			statusCode: http.StatusInternalServerError,
			body:       "upstream exploded",
			message:    "upstream exploded",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newProbeServer(t, testCase.statusCode, testCase.body)
			_, err := chutes.Probe(context.Background(), "my-chute", "test-key",
				chutes.WithBaseURL(server.URL))
			var apiErr *chutes.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, testCase.statusCode, apiErr.StatusCode)
			assert.Equal(t, "my-chute", apiErr.ChuteID)
			assert.Equal(t, testCase.message, apiErr.Message)
			assert.Equal(t, testCase.body, apiErr.Body)
		})
	}
}

func TestProbeValidation(t *testing.T) {
	t.Parallel()

	server, requests := newProbeServer(t, http.StatusOK, `{"status": "hot"}`)

	_, err := chutes.Probe(context.Background(), "", "test-key",
		chutes.WithBaseURL(server.URL))
	assert.ErrorIs(t, err, chutes.ErrMissingChuteID)

	_, err = chutes.Probe(context.Background(), "my-chute", "",
		chutes.WithBaseURL(server.URL))
	assert.ErrorIs(t, err, chutes.ErrMissingAPIKey)

	// Validation failures never reach the network.
	assert.EqualValues(t, 0, requests.Load())
}
