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
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryInterval = 500 * time.Millisecond
	maxGenerateRetries   = 4
)

// ImageRequest describes an image-generation call.
type ImageRequest struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Steps          int     `json:"num_inference_steps,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
}

// ImageResult is a generated image.
type ImageResult struct {
	// Data is the raw image bytes.
	Data []byte
	// ContentType is the MIME type reported by the endpoint.
	ContentType string
}

// GenerateImage generates an image. Transport errors, HTTP 429, and 5xx
// responses are retried with exponential backoff; other non-2xx
// responses fail immediately. This retry loop is stateless and separate
// from readiness monitoring, which deliberately polls at a fixed
// interval with no backoff.
func (c *Client) GenerateImage(ctx context.Context, request ImageRequest) (*ImageResult, error) {
	if request.Model == "" {
		return nil, errors.New("chutes: image request requires a model")
	}
	if request.Prompt == "" {
		return nil, errors.New("chutes: image request requires a prompt")
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	operation := func() (*ImageResult, error) {
		return c.generateImageOnce(ctx, request)
	}
	return backoff.RetryWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, maxGenerateRetries), ctx),
	)
}

func (c *Client) generateImageOnce(ctx context.Context, request ImageRequest) (*ImageResult, error) {
	resp, err := c.postJSON(ctx, c.imageURL+"/generate", request)
	if err != nil {
		return nil, fmt.Errorf("chutes: image generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := responseError(resp, "")
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chutes: reading image response: %w", err)
	}
	return &ImageResult{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
