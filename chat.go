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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chutes-ai/chutes-go/internal/sse"
)

// ChatMessage is a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a chat completion call against the inference
// endpoint. The wire format is OpenAI-compatible.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatResponse is a complete, non-streamed chat completion.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatChunk is one increment of a streamed chat completion.
type ChatChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Chat performs a chat completion and waits for the full response. If
// the target chute is cold this call can stall for the duration of a
// cold start; use a Monitor to check readiness first.
func (c *Client) Chat(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	if request.Model == "" {
		return nil, errors.New("chutes: chat request requires a model")
	}
	request.Stream = false
	resp, err := c.postJSON(ctx, c.inferenceURL+"/chat/completions", request)
	if err != nil {
		return nil, fmt.Errorf("chutes: chat completion: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp, "")
	}
	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("chutes: decoding chat response: %w", err)
	}
	return &response, nil
}

// ChatStream performs a streamed chat completion. The returned stream
// must be closed by the caller. The per-request timeout of the
// underlying HTTP client is not applied, since a stream legitimately
// outlives it; bound the stream with ctx instead.
func (c *Client) ChatStream(ctx context.Context, request ChatRequest) (*ChatStream, error) {
	if request.Model == "" {
		return nil, errors.New("chutes: chat request requires a model")
	}
	request.Stream = true
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("chutes: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inferenceURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chutes: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	// Shallow copy sharing the transport, minus the overall timeout.
	streamClient := *c.httpClient
	streamClient.Timeout = 0
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chutes: chat stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, responseError(resp, "")
	}
	return &ChatStream{body: resp.Body, decoder: sse.NewDecoder(resp.Body)}, nil
}

// ChatStream yields the chunks of one streamed chat completion.
type ChatStream struct {
	body    io.ReadCloser
	decoder *sse.Decoder
}

// Recv returns the next chunk. It returns io.EOF once the stream has
// finished, whether via the explicit [DONE] terminator or the underlying
// stream ending.
func (s *ChatStream) Recv() (*ChatChunk, error) {
	for {
		event, err := s.decoder.Next()
		if err != nil {
			return nil, err
		}
		data := bytes.TrimSpace(event.Data)
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, []byte("[DONE]")) {
			return nil, io.EOF
		}
		var chunk ChatChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("chutes: decoding stream chunk: %w", err)
		}
		return &chunk, nil
	}
}

// Close releases the stream's connection. It is safe to call more than
// once.
func (s *ChatStream) Close() error {
	return s.body.Close()
}
