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
	"time"

	"github.com/chutes-ai/chutes-go/internal"
)

// WithClock configures the clock a monitor schedules with, so tests can
// drive virtual time.
func WithClock(clock internal.Clock) MonitorOption {
	return monitorOptionFunc(func(opts *monitorOptions) {
		opts.clock = clock
	})
}

// SubscriberCount reports the number of registered subscribers,
// including any temporary WaitUntilHot listeners.
func (m *Monitor) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// SetRetryInterval overrides the initial backoff interval used by
// GenerateImage.
func (c *Client) SetRetryInterval(interval time.Duration) {
	c.retryInterval = interval
}
