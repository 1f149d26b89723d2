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

package client

import (
	"context"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// AggFunc is the closed set of aggregate combinators MergeAggregate
// knows how to re-combine across partial results.
type AggFunc int

// The supported aggregate combinators.
const (
	AggSum AggFunc = iota
	AggCount
	AggMin
	AggMax
	AggAvg
)

// AggItem describes one output aggregate column: which partial columns
// feed it and how to recombine them. For AggAvg, SumColumn/CountColumn
// must both be populated (the backend reports partial sum and count
// separately so the merge can compute a correct weighted average).
type AggItem struct {
	OutputName  string
	Func        AggFunc
	Column      string
	SumColumn   string
	CountColumn string
}

// MergeAggregate recombines the partial aggregate rows produced by
// AdaptiveAggregateScan's date-window splits (or by ParallelPartition's
// fan-out) into one final aggregate row per group.
// GroupBy lists the columns identifying a group; an empty GroupBy
// recombines into a single row, matching an ungrouped aggregate query.
type MergeAggregate struct {
	describeNode
	GroupBy []string
	Items   []AggItem
}

// NewMergeAggregate constructs a MergeAggregate.
func NewMergeAggregate(child types.PlanNode, groupBy []string, items []AggItem) *MergeAggregate {
	return &MergeAggregate{describeNode: describeNode{label: "MergeAggregate", child: child}, GroupBy: groupBy, Items: items}
}

var _ types.PlanNode = (*MergeAggregate)(nil)

type aggState struct {
	row   value.Row
	sum   map[string]value.Value
	count map[string]int64
	min   map[string]value.Value
	max   map[string]value.Value
}

// Execute implements types.PlanNode. Combination follows the "last
// value wins per key, but numerically folded rather than replaced"
// shape of a last-write-wins dedup pass.
func (m *MergeAggregate) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := m.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := types.Drain(ctx, inner)
	if err != nil {
		return nil, err
	}

	order := []string{}
	states := map[string]*aggState{}
	for _, r := range rows {
		key := partitionKey(r, m.GroupBy)
		st, ok := states[key]
		if !ok {
			st = &aggState{
				row:   r,
				sum:   map[string]value.Value{},
				count: map[string]int64{},
				min:   map[string]value.Value{},
				max:   map[string]value.Value{},
			}
			states[key] = st
			order = append(order, key)
		}
		m.fold(st, r)
	}

	out := make([]value.Row, 0, len(order))
	for _, key := range order {
		out = append(out, m.finish(states[key]))
	}
	return types.NewSliceIter(out), nil
}

func (m *MergeAggregate) fold(st *aggState, r value.Row) {
	for _, item := range m.Items {
		switch item.Func {
		case AggCount:
			st.count[item.OutputName] += r.GetOrNull(item.Column).Int64
		case AggSum:
			cur := st.sum[item.OutputName]
			if cur.IsNull() {
				cur = value.NewInt64(0)
			}
			next, err := value.Add(cur, r.GetOrNull(item.Column))
			if err == nil {
				st.sum[item.OutputName] = next
			}
		case AggAvg:
			sc := st.sum[item.OutputName]
			if sc.IsNull() {
				sc = value.NewInt64(0)
			}
			if next, err := value.Add(sc, r.GetOrNull(item.SumColumn)); err == nil {
				st.sum[item.OutputName] = next
			}
			st.count[item.OutputName] += r.GetOrNull(item.CountColumn).Int64
		case AggMin:
			cand := r.GetOrNull(item.Column)
			cur, ok := st.min[item.OutputName]
			if !ok || (!cand.IsNull() && lessThan(cand, cur)) {
				st.min[item.OutputName] = cand
			}
		case AggMax:
			cand := r.GetOrNull(item.Column)
			cur, ok := st.max[item.OutputName]
			if !ok || (!cand.IsNull() && greaterThan(cand, cur)) {
				st.max[item.OutputName] = cand
			}
		}
	}
}

func lessThan(a, b value.Value) bool {
	if b.IsNull() {
		return true
	}
	c, ok := value.Compare(a, b)
	return ok && c < 0
}

func greaterThan(a, b value.Value) bool {
	if b.IsNull() {
		return true
	}
	c, ok := value.Compare(a, b)
	return ok && c > 0
}

func (m *MergeAggregate) finish(st *aggState) value.Row {
	out := value.NewRow(st.row.Entity)
	for _, g := range m.GroupBy {
		out = out.WithSet(g, st.row.GetOrNull(g))
	}
	for _, item := range m.Items {
		switch item.Func {
		case AggCount:
			out = out.WithSet(item.OutputName, value.NewInt64(st.count[item.OutputName]))
		case AggSum:
			v := st.sum[item.OutputName]
			if v.IsNull() {
				v = value.NewInt64(0)
			}
			out = out.WithSet(item.OutputName, v)
		case AggAvg:
			n := st.count[item.OutputName]
			if n == 0 {
				out = out.WithSet(item.OutputName, value.Null)
				continue
			}
			avg, err := value.Div(st.sum[item.OutputName], value.NewInt64(n))
			if err != nil {
				avg = value.Null
			}
			out = out.WithSet(item.OutputName, avg)
		case AggMin:
			out = out.WithSet(item.OutputName, st.min[item.OutputName])
		case AggMax:
			out = out.WithSet(item.OutputName, st.max[item.OutputName])
		}
	}
	return out
}
