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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func windowRow(account string, amount int64) value.Row {
	return value.NewRow("opportunity").
		WithSet("accountid", value.NewString(account)).
		WithSet("estimatedvalue", value.NewInt64(amount))
}

func TestClientWindowRowNumberPartitionedAndOrdered(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 300),
		windowRow("b", 100),
		windowRow("a", 100),
		windowRow("a", 200),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{{OutputName: "rn", Func: WindowRowNumber}})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 4)

	byAccount := map[string][]int64{}
	for _, r := range out {
		acct, _ := r.Get("accountid")
		rn, _ := r.Get("rn")
		byAccount[acct.String] = append(byAccount[acct.String], rn.Int64)
	}
	assert.Equal(t, []int64{1, 2, 3}, byAccount["a"], "account a's three rows should be numbered 1..3 in ascending estimatedvalue order")
	assert.Equal(t, []int64{1}, byAccount["b"])
}

func TestClientWindowRankSkipsOnTies(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 100),
		windowRow("a", 200),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{{OutputName: "rnk", Func: WindowRank}})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 3)

	ranks := make([]int64, len(out))
	for i, r := range out {
		v, _ := r.Get("rnk")
		ranks[i] = v.Int64
	}
	assert.Equal(t, []int64{1, 1, 3}, ranks, "RANK should skip to 3 after a tie at 1, unlike DENSE_RANK")
}

func TestClientWindowDenseRankDoesNotSkip(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 100),
		windowRow("a", 200),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{{OutputName: "drnk", Func: WindowDenseRank}})

	out := drainAll(t, w, newTestExecContext())
	ranks := make([]int64, len(out))
	for i, r := range out {
		v, _ := r.Get("drnk")
		ranks[i] = v.Int64
	}
	assert.Equal(t, []int64{1, 1, 2}, ranks)
}

func TestClientWindowSumAndAvgOverPartition(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 300),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}},
		[]WindowItem{
			{OutputName: "total", Func: WindowSum, Arg: "estimatedvalue"},
			{OutputName: "mean", Func: WindowAvg, Arg: "estimatedvalue"},
		})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 2)
	for _, r := range out {
		total, _ := r.Get("total")
		mean, _ := r.Get("mean")
		assert.Equal(t, int64(400), total.Int64, "every row in the partition carries the same window aggregate")
		assert.True(t, decimal.NewFromInt(200).Equal(mean.Decimal), "AVG over int64 inputs divides to a Decimal: got %s", mean.Decimal)
	}
}

func TestClientWindowNoPartitionByTreatsAllRowsAsOneGroup(t *testing.T) {
	rows := []value.Row{windowRow("a", 1), windowRow("b", 2), windowRow("c", 3)}
	w := NewClientWindow(&fakeSource{rows: rows}, WindowSpec{}, []WindowItem{{OutputName: "cnt", Func: WindowCount, Arg: "estimatedvalue"}})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 3)
	for _, r := range out {
		cnt, _ := r.Get("cnt")
		assert.Equal(t, int64(3), cnt.Int64)
	}
}

func TestClientWindowDefaultOrderByFrameIsRunningTotal(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 200),
		windowRow("a", 300),
		windowRow("a", 400),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{{OutputName: "running", Func: WindowSum, Arg: "estimatedvalue"}})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 4)
	got := make([]int64, len(out))
	for i, r := range out {
		v, _ := r.Get("running")
		got[i] = v.Int64
	}
	assert.Equal(t, []int64{100, 300, 600, 1000}, got,
		"default frame with ORDER BY is UNBOUNDED PRECEDING..CURRENT ROW, so the sum grows per row rather than broadcasting the partition total")
}

func TestClientWindowExplicitRowsBetweenFrame(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 200),
		windowRow("a", 300),
		windowRow("a", 400),
	}
	frame := WindowFrame{
		Defined: true,
		Start:   FrameBound{Kind: PrecedingN, Offset: 2},
		End:     FrameBound{Kind: CurrentRow},
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}, Frame: frame},
		[]WindowItem{{OutputName: "windowed", Func: WindowSum, Arg: "estimatedvalue"}})

	out := drainAll(t, w, newTestExecContext())
	got := make([]int64, len(out))
	for i, r := range out {
		v, _ := r.Get("windowed")
		got[i] = v.Int64
	}
	assert.Equal(t, []int64{100, 300, 600, 900}, got,
		"ROWS BETWEEN 2 PRECEDING AND CURRENT ROW should only see the last 3 rows at the tail of the partition")
}

func TestClientWindowLagAndLead(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 200),
		windowRow("a", 300),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{
			{OutputName: "prev", Func: WindowLag, Arg: "estimatedvalue", Offset: 1},
			{OutputName: "next", Func: WindowLead, Arg: "estimatedvalue", Offset: 1},
		})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 3)

	prev, _ := out[0].Get("prev")
	assert.True(t, prev.IsNull(), "first row's LAG has no preceding row")
	prev1, _ := out[1].Get("prev")
	assert.Equal(t, int64(100), prev1.Int64)

	next2, _ := out[2].Get("next")
	assert.True(t, next2.IsNull(), "last row's LEAD has no following row")
	next0, _ := out[0].Get("next")
	assert.Equal(t, int64(200), next0.Int64)
}

func TestClientWindowNtileDistributesEvenBuckets(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 200),
		windowRow("a", 300),
		windowRow("a", 400),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{{OutputName: "bucket", Func: WindowNtile, Offset: 2}})

	out := drainAll(t, w, newTestExecContext())
	got := make([]int64, len(out))
	for i, r := range out {
		v, _ := r.Get("bucket")
		got[i] = v.Int64
	}
	assert.Equal(t, []int64{1, 1, 2, 2}, got)
}

func TestClientWindowCumeDistAndPercentRankOverTies(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 100),
		windowRow("a", 200),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{
			{OutputName: "cd", Func: WindowCumeDist},
			{OutputName: "pr", Func: WindowPercentRank},
		})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 3)
	cd0, _ := out[0].Get("cd")
	cd2, _ := out[2].Get("cd")
	assert.InDelta(t, 2.0/3.0, cd0.Double, 0.0001, "tied rows share the cume_dist of the peer group's last row")
	assert.InDelta(t, 1.0, cd2.Double, 0.0001)

	pr0, _ := out[0].Get("pr")
	pr2, _ := out[2].Get("pr")
	assert.InDelta(t, 0.0, pr0.Double, 0.0001)
	assert.InDelta(t, 1.0, pr2.Double, 0.0001)
}

func TestClientWindowFirstAndLastValueRespectDefaultFrame(t *testing.T) {
	rows := []value.Row{
		windowRow("a", 100),
		windowRow("a", 200),
		windowRow("a", 300),
	}
	w := NewClientWindow(&fakeSource{rows: rows},
		WindowSpec{PartitionBy: []string{"accountid"}, OrderBy: []OrderKey{{Column: "estimatedvalue"}}},
		[]WindowItem{
			{OutputName: "first", Func: WindowFirstValue, Arg: "estimatedvalue"},
			{OutputName: "last", Func: WindowLastValue, Arg: "estimatedvalue"},
		})

	out := drainAll(t, w, newTestExecContext())
	require.Len(t, out, 3)
	for i, r := range out {
		first, _ := r.Get("first")
		last, _ := r.Get("last")
		assert.Equal(t, int64(100), first.Int64, "FIRST_VALUE is always the partition's first row under the default frame")
		assert.Equal(t, rows[i].GetOrNull("estimatedvalue").Int64, last.Int64,
			"LAST_VALUE under UNBOUNDED PRECEDING..CURRENT ROW is always the current row")
	}
}
