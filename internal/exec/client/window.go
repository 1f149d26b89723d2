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
	"sort"
	"strings"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// WindowFunc is the closed set of window functions this engine
// evaluates client-side.
type WindowFunc int

// The supported window functions.
const (
	WindowRowNumber WindowFunc = iota
	WindowRank
	WindowDenseRank
	WindowSum
	WindowAvg
	WindowCount
	WindowMin
	WindowMax
	WindowCumeDist
	WindowPercentRank
	WindowLag
	WindowLead
	WindowNtile
	WindowFirstValue
	WindowLastValue
)

// FrameBoundKind is the closed set of window frame boundary shapes a
// ROWS BETWEEN clause can name.
type FrameBoundKind int

// The supported frame boundary shapes.
const (
	UnboundedPreceding FrameBoundKind = iota
	PrecedingN
	CurrentRow
	FollowingN
	UnboundedFollowing
)

// FrameBound is one edge (start or end) of a ROWS BETWEEN frame.
type FrameBound struct {
	Kind FrameBoundKind
	// Offset is the row count, meaningful only for PrecedingN/FollowingN.
	Offset int
}

// WindowFrame is a ROWS BETWEEN frame clause. Defined is false when the
// OVER() clause named no explicit frame: the frame then defaults to the
// whole partition when there is no ORDER BY, or to UNBOUNDED PRECEDING
// AND CURRENT ROW when there is one.
type WindowFrame struct {
	Defined    bool
	Start, End FrameBound
}

// OrderKey is one ORDER BY clause entry of a window specification.
type OrderKey struct {
	Column string
	Desc   bool
}

// WindowSpec is the OVER(...) clause: the partitioning, ordering, and
// frame that determine a window function's input rows.
type WindowSpec struct {
	PartitionBy []string
	OrderBy     []OrderKey
	Frame       WindowFrame
}

// WindowItem is one computed window output column.
type WindowItem struct {
	OutputName string
	Func       WindowFunc
	Arg        string // source column for aggregate/value functions
	// Offset is the LAG/LEAD row offset (1 when zero) or the NTILE
	// bucket count.
	Offset int64
	// Default is the LAG/LEAD value substituted when the offset row
	// falls outside the partition; nil means NULL.
	Default expr.Expr
}

// ClientWindow evaluates one or more
// window functions sharing a spec. Because a window function's result
// depends on its entire partition, this operator must materialize its
// child fully before it can emit its first row.
type ClientWindow struct {
	describeNode
	Spec  WindowSpec
	Items []WindowItem
}

// NewClientWindow constructs a ClientWindow.
func NewClientWindow(child types.PlanNode, spec WindowSpec, items []WindowItem) *ClientWindow {
	return &ClientWindow{describeNode: describeNode{label: "WindowSpool", child: child}, Spec: spec, Items: items}
}

var _ types.PlanNode = (*ClientWindow)(nil)

// Execute implements types.PlanNode.
func (w *ClientWindow) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := w.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := types.Drain(ctx, inner)
	if err != nil {
		return nil, err
	}

	groups := partitionRows(rows, w.Spec.PartitionBy)
	out := make([]value.Row, 0, len(rows))
	for _, g := range groups {
		sortRows(g, w.Spec.OrderBy)
		annotated, err := w.annotate(ec, g)
		if err != nil {
			return nil, err
		}
		out = append(out, annotated...)
	}
	return types.NewSliceIter(out), nil
}

func partitionKey(r value.Row, cols []string) string {
	var sb strings.Builder
	for _, c := range cols {
		sb.WriteString(r.GetOrNull(c).Display())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

func partitionRows(rows []value.Row, cols []string) [][]value.Row {
	if len(cols) == 0 {
		return [][]value.Row{rows}
	}
	order := []string{}
	byKey := map[string][]value.Row{}
	for _, r := range rows {
		k := partitionKey(r, cols)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}
	groups := make([][]value.Row, len(order))
	for i, k := range order {
		groups[i] = byKey[k]
	}
	return groups
}

func sortRows(rows []value.Row, order []OrderKey) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range order {
			a, b := rows[i].GetOrNull(key.Column), rows[j].GetOrNull(key.Column)
			c, ok := value.Compare(a, b)
			if !ok || c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func (w *ClientWindow) annotate(ec *types.ExecContext, group []value.Row) ([]value.Row, error) {
	out := make([]value.Row, len(group))
	copy(out, group)

	ordered := len(w.Spec.OrderBy) > 0
	ranks, denseRanks, peerEnd := rankInfo(group, w.Spec.OrderBy)

	for _, item := range w.Items {
		switch item.Func {
		case WindowRowNumber:
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, value.NewInt64(int64(i+1)))
			}
		case WindowRank:
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, value.NewInt64(ranks[i]))
			}
		case WindowDenseRank:
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, value.NewInt64(denseRanks[i]))
			}
		case WindowCumeDist:
			n := float64(len(group))
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, value.NewDouble(float64(peerEnd[i]+1)/n))
			}
		case WindowPercentRank:
			n := len(group)
			for i := range out {
				var pct float64
				if n > 1 {
					pct = float64(ranks[i]-1) / float64(n-1)
				}
				out[i] = out[i].WithSet(item.OutputName, value.NewDouble(pct))
			}
		case WindowNtile:
			buckets := item.Offset
			if buckets <= 0 {
				buckets = 1
			}
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, value.NewInt64(ntileBucket(i, len(group), buckets)))
			}
		case WindowLag, WindowLead:
			v, err := w.lagLead(ec, group, item)
			if err != nil {
				return nil, err
			}
			for i := range out {
				out[i] = out[i].WithSet(item.OutputName, v[i])
			}
		case WindowFirstValue, WindowLastValue:
			for i := range out {
				lo, hi := frameBounds(w.Spec.Frame, ordered, i, len(group))
				out[i] = out[i].WithSet(item.OutputName, firstOrLastValue(group, lo, hi, item.Func, item.Arg))
			}
		default:
			for i := range out {
				lo, hi := frameBounds(w.Spec.Frame, ordered, i, len(group))
				agg := aggregateOver(group[max(lo, 0):min(hi, len(group)-1)+1], item.Func, item.Arg)
				out[i] = out[i].WithSet(item.OutputName, agg)
			}
		}
	}
	return out, nil
}

// rankInfo computes, for every row in an already-sorted group, its RANK
// (gaps after ties), DENSE_RANK (no gaps), and the index of the last row
// in its contiguous tie block (used by CUME_DIST).
func rankInfo(group []value.Row, order []OrderKey) (ranks, denseRanks []int64, peerEnd []int) {
	n := len(group)
	ranks = make([]int64, n)
	denseRanks = make([]int64, n)
	peerEnd = make([]int, n)
	if n == 0 {
		return
	}
	rank, dense := int64(1), int64(1)
	for i := 0; i < n; i++ {
		if i > 0 && !sameOrderKey(group[i-1], group[i], order) {
			rank = int64(i + 1)
			dense++
		}
		ranks[i] = rank
		denseRanks[i] = dense
	}
	i := 0
	for i < n {
		j := i
		for j+1 < n && sameOrderKey(group[i], group[j+1], order) {
			j++
		}
		for k := i; k <= j; k++ {
			peerEnd[k] = j
		}
		i = j + 1
	}
	return
}

func sameOrderKey(a, b value.Row, order []OrderKey) bool {
	for _, key := range order {
		if value.Equal(a.GetOrNull(key.Column), b.GetOrNull(key.Column)) != value.True {
			return false
		}
	}
	return true
}

// frameBounds returns the inclusive [lo, hi] row indices within an
// already partitioned-and-ordered group that an aggregate-style window
// function at row i should cover.
func frameBounds(frame WindowFrame, ordered bool, i, n int) (int, int) {
	if !frame.Defined {
		if !ordered {
			return 0, n - 1
		}
		return 0, i
	}
	lo := resolveBound(frame.Start, i, n)
	hi := resolveBound(frame.End, i, n)
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

func resolveBound(b FrameBound, i, n int) int {
	switch b.Kind {
	case UnboundedPreceding:
		return 0
	case UnboundedFollowing:
		return n - 1
	case CurrentRow:
		return i
	case PrecedingN:
		return i - b.Offset
	case FollowingN:
		return i + b.Offset
	default:
		return i
	}
}

func ntileBucket(i, n int, buckets int64) int64 {
	base := int64(n) / buckets
	remainder := int64(n) % buckets
	pos := int64(i)
	// The first `remainder` buckets get one extra row each.
	if pos < remainder*(base+1) {
		return pos/(base+1) + 1
	}
	pos -= remainder * (base + 1)
	if base == 0 {
		return remainder + 1
	}
	return remainder + pos/base + 1
}

func (w *ClientWindow) lagLead(ec *types.ExecContext, group []value.Row, item WindowItem) ([]value.Value, error) {
	offset := item.Offset
	if offset == 0 {
		offset = 1
	}
	step := int64(1)
	if item.Func == WindowLag {
		step = -1
	}
	out := make([]value.Value, len(group))
	for i := range group {
		j := int64(i) + step*offset
		if j < 0 || j >= int64(len(group)) {
			if item.Default == nil {
				out[i] = value.Null
				continue
			}
			v, err := item.Default.Eval(ec, group[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}
		out[i] = group[j].GetOrNull(item.Arg)
	}
	return out, nil
}

func firstOrLastValue(group []value.Row, lo, hi int, fn WindowFunc, col string) value.Value {
	if lo > hi || lo < 0 || hi >= len(group) {
		return value.Null
	}
	if fn == WindowFirstValue {
		return group[lo].GetOrNull(col)
	}
	return group[hi].GetOrNull(col)
}

func aggregateOver(rows []value.Row, fn WindowFunc, col string) value.Value {
	switch fn {
	case WindowCount:
		n := int64(0)
		for _, r := range rows {
			if !r.GetOrNull(col).IsNull() {
				n++
			}
		}
		return value.NewInt64(n)
	case WindowSum, WindowAvg:
		sum := value.NewInt64(0)
		n := int64(0)
		for _, r := range rows {
			v := r.GetOrNull(col)
			if v.IsNull() {
				continue
			}
			var err error
			sum, err = value.Add(sum, v)
			if err != nil {
				return value.Null
			}
			n++
		}
		if fn == WindowSum {
			return sum
		}
		if n == 0 {
			return value.Null
		}
		avg, err := value.Div(sum, value.NewInt64(n))
		if err != nil {
			return value.Null
		}
		return avg
	case WindowMin, WindowMax:
		var best value.Value
		for _, r := range rows {
			v := r.GetOrNull(col)
			if v.IsNull() {
				continue
			}
			if best.IsNull() {
				best = v
				continue
			}
			c, ok := value.Compare(v, best)
			if !ok {
				continue
			}
			if (fn == WindowMin && c < 0) || (fn == WindowMax && c > 0) {
				best = v
			}
		}
		return best
	default:
		return value.Null
	}
}
