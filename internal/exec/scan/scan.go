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

// Package scan implements the leaf, backend-facing operators: FetchXML
// paging, the adaptive aggregate-overflow splitter, row prefetch,
// backend-SQL passthrough, and metadata lookups.
package scan

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/metrics"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// waitForThrottle blocks until the execution's throttle tracker advises
// it is safe to issue the next backend call, or the context is
// canceled.
func waitForThrottle(ec *types.ExecContext) error {
	if ec.Throttle == nil {
		return nil
	}
	for {
		wait, throttled := ec.Throttle.Advise()
		if !throttled {
			return nil
		}
		select {
		case <-ec.Done():
			return types.ErrCanceled
		case <-time.After(wait):
		}
	}
}

// recordPaging publishes paging metadata to Stats, but only when this
// scan is the outermost one; paging metadata should reflect only the
// outermost scan of a non-partitioned plan.
func recordPaging(ec *types.ExecContext, cookie string, page int, more bool, total *int64) {
	if ec.Suppressing || ec.Stats == nil {
		return
	}
	ec.Stats.SetPaging(cookie, page, more, total)
}

func observeOperator(op string, start time.Time, rows int) {
	metrics.OperatorDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.RowsEmitted.WithLabelValues(op).Add(float64(rows))
}

// describeNode is embedded by every leaf scan to give it a fixed
// Describe/Children/EstimatedRows shape; Execute is supplied by each
// concrete operator.
type describeNode struct {
	label string
	est   int64
}

func (d describeNode) Describe() string       { return d.label }
func (d describeNode) EstimatedRows() int64   { return d.est }
func (d describeNode) Children() []types.PlanNode { return nil }

// emptyIter is a RowIter that yields nothing.
type emptyIter struct{}

func (emptyIter) Next(context.Context) (value.Row, bool, error) { return value.Row{}, false, nil }
func (emptyIter) Close() error                                  { return nil }

func logScanError(op string, err error) {
	log.WithError(err).WithField("op", op).Warn("scan operator failed")
}
