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
	"sync"
	"time"

	"github.com/chutes-ai/chutes-go/internal"
)

const (
	// DefaultPollInterval is the interval between readiness probes for
	// monitors that do not configure one with WithPollInterval.
	DefaultPollInterval = 30 * time.Second

	// DefaultWaitTimeout is the deadline used by Monitor.WaitUntilHot
	// when the caller passes a non-positive timeout.
	DefaultWaitTimeout = 2 * time.Minute
)

// MonitorOption is an option used to customize the behavior of a Monitor.
type MonitorOption interface {
	applyMonitor(*monitorOptions)
}

// WithPollInterval configures the interval between readiness probes.
// If not specified, DefaultPollInterval is used.
func WithPollInterval(interval time.Duration) MonitorOption {
	return monitorOptionFunc(func(opts *monitorOptions) {
		opts.pollInterval = interval
	})
}

// WithoutAutoStart creates the monitor idle, without an immediate probe
// or a polling schedule. Polling begins on the first call to Reheat or
// WaitUntilHot.
func WithoutAutoStart() MonitorOption {
	return monitorOptionFunc(func(opts *monitorOptions) {
		opts.autoStart = false
	})
}

type monitorOptionFunc func(*monitorOptions)

func (f monitorOptionFunc) applyMonitor(opts *monitorOptions) {
	f(opts)
}

type monitorOptions struct {
	pollInterval time.Duration
	autoStart    bool
	clock        internal.Clock
}

func defaultMonitorOptions() monitorOptions {
	return monitorOptions{
		pollInterval: DefaultPollInterval,
		autoStart:    true,
		clock:        internal.NewRealClock(),
	}
}

// A Monitor tracks the readiness of a single chute by probing its
// readiness endpoint on a fixed interval. It maintains the last-known
// status, notifies subscribers when the status changes, and pauses the
// schedule on its own once the chute reports hot, since further probes
// would be wasted. Paused polling can be resumed with Reheat.
//
// Probe failures during scheduled polling are absorbed: the status
// degrades to StatusUnknown and the schedule keeps its fixed interval
// indefinitely. There is deliberately no backoff and no retry ceiling on
// this path, so a chute that is genuinely cold and a readiness endpoint
// that is persistently failing both present as sustained StatusUnknown.
//
// A Monitor owns a background goroutine while polling. Callers must call
// Stop when done with it; there is no finalizer.
type Monitor struct {
	chuteID  string
	prober   Prober
	interval time.Duration
	clock    internal.Clock

	mu          sync.Mutex
	status      Status
	polling     bool
	stopped     bool
	generation  uint64
	cancel      context.CancelFunc
	subscribers []*subscriber
	lastSubID   uint64
}

type subscriber struct {
	id       uint64
	callback func(Status)
}

// NewMonitor creates a monitor for the given chute using the given
// prober. Unless WithoutAutoStart is given, it immediately issues a probe
// and begins polling. The initial status is StatusUnknown.
func NewMonitor(chuteID string, prober Prober, opts ...MonitorOption) (*Monitor, error) {
	if chuteID == "" {
		return nil, ErrMissingChuteID
	}
	if prober == nil {
		return nil, errors.New("prober must not be nil")
	}
	options := defaultMonitorOptions()
	for _, opt := range opts {
		opt.applyMonitor(&options)
	}
	if options.pollInterval <= 0 {
		options.pollInterval = DefaultPollInterval
	}
	monitor := &Monitor{
		chuteID:  chuteID,
		prober:   prober,
		interval: options.pollInterval,
		clock:    options.clock,
	}
	if options.autoStart {
		monitor.mu.Lock()
		monitor.startLocked()
		monitor.mu.Unlock()
	}
	return monitor, nil
}

// ChuteID returns the chute this monitor is bound to.
func (m *Monitor) ChuteID() string {
	return m.chuteID
}

// Status returns the last-known readiness status. It never blocks and
// never triggers a probe.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsPolling reports whether a next probe is currently scheduled.
func (m *Monitor) IsPolling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polling
}

// Reheat resumes polling after the monitor paused itself upon reaching
// hot, starting with an immediate probe. It is a no-op while polling is
// already active (a second concurrent schedule is never created) and
// after Stop.
func (m *Monitor) Reheat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.polling {
		return
	}
	m.startLocked()
}

// Stop tears the monitor down: it clears the polling schedule and
// removes all subscribers. Stop is idempotent and safe to call while a
// probe is in flight; the in-flight result is discarded rather than
// applied to the stopped monitor. A stopped monitor cannot be restarted.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.polling = false
	m.subscribers = nil
	m.stopped = true
}

// OnStatusChange registers a callback invoked with the new status on
// every distinct status transition. It is not invoked at subscription
// time nor when a probe re-reports the current status. Callbacks for one
// transition run in subscriber-registration order, on the monitor's
// polling goroutine, so they should not block.
//
// The returned function removes exactly this subscription. It is
// idempotent and safe to call after Stop.
func (m *Monitor) OnStatusChange(callback func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return func() {}
	}
	return m.subscribeLocked(callback)
}

// WaitUntilHot blocks until the chute reports hot, the timeout elapses,
// or ctx is done. A non-positive timeout means DefaultWaitTimeout.
//
// If the chute is already hot, WaitUntilHot returns immediately without
// issuing a probe. Otherwise it ensures polling is active (the
// equivalent of Reheat if the monitor is idle) and waits for a hot
// transition. On timeout it returns a *TimeoutError; timing out does not
// stop the monitor, whose schedule keeps running independently. The
// temporary subscription is removed on every return path.
func (m *Monitor) WaitUntilHot(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	becameHot := make(chan struct{})
	var once sync.Once

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrMonitorStopped
	}
	if m.status == StatusHot {
		m.mu.Unlock()
		return nil
	}
	// Subscribe before releasing the lock so a hot transition cannot slip
	// between the status check and the subscription.
	unsubscribe := m.subscribeLocked(func(status Status) {
		if status == StatusHot {
			once.Do(func() { close(becameHot) })
		}
	})
	if !m.polling {
		m.startLocked()
	}
	m.mu.Unlock()
	defer unsubscribe()

	timer := m.clock.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-becameHot:
		return nil
	case <-timer.Chan():
		return &TimeoutError{ChuteID: m.chuteID, Timeout: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startLocked begins a new polling generation. The caller must hold m.mu
// and must have checked that polling is not already active.
func (m *Monitor) startLocked() {
	m.generation++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.polling = true
	go m.poll(ctx, m.generation)
}

// poll is the monitor's single-writer loop: each iteration probes,
// applies the result, and only then waits for the next tick, so a tick
// fully completes (status updated, subscribers notified) before the next
// probe can begin. Overlapping in-flight probes cannot occur within one
// generation.
func (m *Monitor) poll(ctx context.Context, generation uint64) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		next := StatusUnknown
		if result, err := m.prober.Probe(ctx, m.chuteID); err == nil {
			next = result.Status
		}
		if !m.apply(generation, next) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}

// apply records a probe outcome, unless the result is stale. It returns
// false when this generation's polling should cease: either Stop or
// Reheat superseded the generation while the probe was in flight, or the
// chute reported hot and the schedule auto-pauses.
func (m *Monitor) apply(generation uint64, next Status) bool {
	m.mu.Lock()
	if generation != m.generation || !m.polling {
		m.mu.Unlock()
		return false
	}
	changed := next != m.status
	m.status = next
	settled := next == StatusHot
	if settled {
		m.polling = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
	}
	var notify []*subscriber
	if changed {
		notify = make([]*subscriber, len(m.subscribers))
		copy(notify, m.subscribers)
	}
	m.mu.Unlock()
	for _, sub := range notify {
		sub.callback(next)
	}
	return !settled
}

func (m *Monitor) subscribeLocked(callback func(Status)) (unsubscribe func()) {
	m.lastSubID++
	sub := &subscriber{id: m.lastSubID, callback: callback}
	m.subscribers = append(m.subscribers, sub)
	id := sub.id
	return func() {
		m.removeSubscriber(id)
	}
}

func (m *Monitor) removeSubscriber(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub.id == id {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}
