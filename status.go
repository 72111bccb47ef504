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
	"fmt"
	"strings"
)

// Status represents how close a chute is to serving requests. Their
// natural ordering is for "colder" statuses to be before "warmer" ones,
// so StatusUnknown is the lowest value and StatusHot is the highest.
// The zero value is StatusUnknown.
type Status int

const (
	// StatusUnknown means the readiness of the chute could not be
	// determined. It is the initial status of a Monitor and the fallback
	// for unrecognized wire values and failed probes.
	StatusUnknown = Status(0)
	// StatusCold means the chute has no running instances; a request
	// would trigger a cold start.
	StatusCold = Status(1)
	// StatusWarming means instances are starting but not yet able to
	// serve requests.
	StatusWarming = Status(2)
	// StatusHot means the chute is ready to serve requests immediately.
	StatusHot = Status(3)
)

func (s Status) String() string {
	switch s {
	case StatusHot:
		return "hot"
	case StatusWarming:
		return "warming"
	case StatusCold:
		return "cold"
	case StatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// statusFromWire maps the status string reported by the readiness
// endpoint to a Status. The comparison is case-insensitive and anything
// unrecognized maps to StatusUnknown.
func statusFromWire(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hot":
		return StatusHot
	case "warming":
		return StatusWarming
	case "cold":
		return StatusCold
	default:
		return StatusUnknown
	}
}
