// Copyright 2023 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package throttle implements the process-wide throttle tracker:
// observed backend rate-limit headers feed
// a shared, thread-safe advisory used by every scan and DML operator
// before issuing the next backend call.
package throttle

import (
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/notify"
)

// Tracker satisfies types.ThrottleTracker: it accumulates the backend's
// rate-limit headers and exposes a single, process-wide "don't call
// again before this time" advisory.
type Tracker struct {
	nextAllowed notify.Var[time.Time]
	observed    atomic.Int64
}

var _ types.ThrottleTracker = (*Tracker)(nil)

// New constructs an unthrottled Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Observe records a backend response's throttle-related headers
// (e.g. "Retry-After", "x-ms-ratelimit-*"), advancing the tracker's
// next-allowed time if the backend requested a longer wait than
// currently recorded.
func (t *Tracker) Observe(headers map[string]string) {
	t.observed.Add(1)
	retryAfter, ok := parseRetryAfter(headers)
	if !ok {
		return
	}
	candidate := time.Now().Add(retryAfter)
	if candidate.After(t.nextAllowed.Peek()) {
		t.nextAllowed.Set(candidate)
		log.WithField("retryAfter", retryAfter).Warn("backend requested throttling")
	}
}

// Advise reports whether callers should currently back off, and for
// how long. Operators consult throttle state before issuing the next
// request.
func (t *Tracker) Advise() (time.Duration, bool) {
	next := t.nextAllowed.Peek()
	if next.IsZero() {
		return 0, false
	}
	d := time.Until(next)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Observed returns the number of responses passed to Observe, with or
// without throttle headers, mainly for diagnostics/tests.
func (t *Tracker) Observed() int64 { return t.observed.Load() }

func parseRetryAfter(headers map[string]string) (time.Duration, bool) {
	if v, ok := headers["Retry-After"]; ok {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second, true
		}
	}
	if v, ok := headers["x-ms-ratelimit-burst-reset-after"]; ok {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
	}
	return 0, false
}
