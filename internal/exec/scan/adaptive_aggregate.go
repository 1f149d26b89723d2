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

package scan

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/metrics"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// DateWindow is a half-open [Start, End) range used to bisect an
// overflowing aggregate query.
type DateWindow struct {
	Start, End time.Time
}

// AdaptiveAggregateScan re-issues an aggregate FetchXML query over
// successively narrower date windows whenever the backend reports an
// aggregate row-limit overflow. Its output rows are
// partial aggregates that a downstream MergeAggregate must combine;
// this operator never merges across windows itself.
type AdaptiveAggregateScan struct {
	describeNode
	Entity      string
	BuildFetch  func(w DateWindow) string
	InitialWindow DateWindow
	MaxSplitDepth int
}

// NewAdaptiveAggregateScan constructs an AdaptiveAggregateScan.
func NewAdaptiveAggregateScan(entity string, buildFetch func(w DateWindow) string, start, end time.Time, maxDepth int) *AdaptiveAggregateScan {
	return &AdaptiveAggregateScan{
		describeNode:  describeNode{label: "AdaptiveAggregateScan(" + entity + ")", est: -1},
		Entity:        entity,
		BuildFetch:    buildFetch,
		InitialWindow: DateWindow{Start: start, End: end},
		MaxSplitDepth: maxDepth,
	}
}

// NewDateWindow constructs the window argument BuildFetch receives,
// exported so planner code building BuildFetch closures can pattern
// match without importing an unexported type.
func NewDateWindow(start, end time.Time) DateWindow { return DateWindow{Start: start, End: end} }

var _ types.PlanNode = (*AdaptiveAggregateScan)(nil)

// Execute implements types.PlanNode. It eagerly runs the full adaptive
// split algorithm (recursive fetch-or-bisect) because the next level's
// query depends on whether the previous one overflowed; there is no
// useful lazy-pull granularity finer than "one window's worth of rows."
func (s *AdaptiveAggregateScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	var out []value.Row
	if err := s.fetchWindow(ctx, ec, s.InitialWindow, 0, &out); err != nil {
		return nil, err
	}
	return types.NewSliceIter(out), nil
}

func (s *AdaptiveAggregateScan) fetchWindow(ctx context.Context, ec *types.ExecContext, w DateWindow, depth int, out *[]value.Row) error {
	if err := ec.CheckCanceled(); err != nil {
		return err
	}
	if err := waitForThrottle(ec); err != nil {
		return err
	}
	fetchXML := s.BuildFetch(w)
	start := time.Now()
	page, err := ec.Fetch.Execute(ctx, fetchXML, 1, "", false)
	if err == nil {
		metrics.ScanPagesFetched.WithLabelValues("AdaptiveAggregateScan").Inc()
		if ec.Stats != nil {
			ec.Stats.AddPagesFetched(1)
			ec.Stats.AddRowsScanned(int64(len(page.Records)))
		}
		observeOperator("AdaptiveAggregateScan", start, len(page.Records))
		*out = append(*out, page.Records...)
		return nil
	}

	if !types.IsAggregateOverflow(err) {
		logScanError("AdaptiveAggregateScan", err)
		return errors.WithStack(err)
	}
	if depth >= s.MaxSplitDepth || w.End.Sub(w.Start) <= time.Second {
		metrics.AggregateOverflows.WithLabelValues("exhausted").Inc()
		return types.AggregateOverflow("aggregate overflow could not be resolved by date-range splitting")
	}
	metrics.AggregateOverflows.WithLabelValues("split").Inc()
	if ec.Stats != nil {
		ec.Stats.AddRetries(1)
	}

	mid := w.Start.Add(w.End.Sub(w.Start) / 2)
	left := DateWindow{Start: w.Start, End: mid}
	right := DateWindow{Start: mid, End: w.End}
	if err := s.fetchWindow(ctx, ec, left, depth+1, out); err != nil {
		return err
	}
	return s.fetchWindow(ctx, ec, right, depth+1, out)
}
