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

// Package chutes is a client for elastically scaled compute endpoints
// ("chutes"). Chutes scale to zero when idle, so a request sent to a cold
// chute can stall for minutes while instances spin up. This package lets
// callers find out, ahead of sending real traffic, how close a chute is
// to serving requests.
//
// The central types are [Client], which binds an API key and endpoint
// configuration once, and [Monitor], a background poller that tracks one
// chute's readiness over time. A Monitor probes the readiness endpoint on
// a fixed interval, notifies subscribers whenever the status changes, and
// stops polling on its own once the chute reports hot. Polling can be
// resumed later with [Monitor.Reheat], and [Monitor.WaitUntilHot] blocks
// until the chute is ready or a deadline passes.
//
// For callers that only need a single answer, [Client.Probe] issues a
// one-shot readiness query without any background machinery.
//
// The package also carries the rest of the chutes API surface: chat
// completions (including streamed responses), image generation, and
// model-kind classification.
package chutes
