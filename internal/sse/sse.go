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

// Package sse incrementally decodes Server-Sent-Events streams as used
// by OpenAI-compatible chat completion endpoints.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Event is a single decoded server-sent event.
type Event struct {
	// Name is the event type from any "event:" field, or empty.
	Name string
	// Data is the event payload. Multiple "data:" lines are joined with
	// newlines, per the SSE specification.
	Data []byte
}

// A Decoder reads events from a stream one at a time.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Model outputs can produce long single-line data payloads.
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Decoder{scanner: scanner}
}

// Next returns the next event in the stream. It returns io.EOF when the
// stream ends cleanly, or the underlying read error otherwise. Comment
// lines and unknown fields are skipped.
func (d *Decoder) Next() (Event, error) {
	var event Event
	var data [][]byte
	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")
		switch {
		case line == "":
			// Blank line dispatches the accumulated event, if any.
			if len(data) > 0 || event.Name != "" {
				event.Data = bytes.Join(data, []byte("\n"))
				return event, nil
			}
		case strings.HasPrefix(line, ":"):
			// Comment line.
		case strings.HasPrefix(line, "data:"):
			data = append(data, []byte(trimFieldValue(line[len("data:"):])))
		case strings.HasPrefix(line, "event:"):
			event.Name = trimFieldValue(line[len("event:"):])
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	// A final event without a trailing blank line still counts.
	if len(data) > 0 || event.Name != "" {
		event.Data = bytes.Join(data, []byte("\n"))
		return event, nil
	}
	return Event{}, io.EOF
}

// trimFieldValue strips the single optional leading space after an SSE
// field colon.
func trimFieldValue(value string) string {
	return strings.TrimPrefix(value, " ")
}
