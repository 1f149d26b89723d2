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

// JoinKind is the closed set of join semantics Merge implements.
type JoinKind int

// The supported join kinds.
const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
)

// Merge implements the client-side join used for correlated subquery
// rewrites (IN/EXISTS to JOIN) and for combining link
// entities the backend cannot express in a single FetchXML request. The
// build side (Right) is materialized and hash-indexed by its join key;
// the probe side (Left) streams.
type Merge struct {
	Left, Right        types.PlanNode
	LeftKey, RightKey  string
	Kind               JoinKind
	RightColumns       []string // columns to pull from a matched right row
}

// NewMerge constructs a Merge join.
func NewMerge(left, right types.PlanNode, leftKey, rightKey string, kind JoinKind, rightColumns []string) *Merge {
	return &Merge{Left: left, Right: right, LeftKey: leftKey, RightKey: rightKey, Kind: kind, RightColumns: rightColumns}
}

var _ types.PlanNode = (*Merge)(nil)

// Describe implements types.PlanNode.
func (m *Merge) Describe() string { return "Merge" }

// EstimatedRows implements types.PlanNode.
func (m *Merge) EstimatedRows() int64 { return m.Left.EstimatedRows() }

// Children implements types.PlanNode.
func (m *Merge) Children() []types.PlanNode { return []types.PlanNode{m.Left, m.Right} }

// Execute implements types.PlanNode.
func (m *Merge) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	rightIter, err := m.Right.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rightRows, err := types.Drain(ctx, rightIter)
	if err != nil {
		return nil, err
	}
	index := make(map[string][]value.Row, len(rightRows))
	for _, r := range rightRows {
		k := r.GetOrNull(m.RightKey).Display()
		index[k] = append(index[k], r)
	}

	leftIter, err := m.Left.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &mergeIter{left: leftIter, index: index, op: m}, nil
}

type mergeIter struct {
	left    types.RowIter
	index   map[string][]value.Row
	op      *Merge
	pending []value.Row
}

func (it *mergeIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		if len(it.pending) > 0 {
			r := it.pending[0]
			it.pending = it.pending[1:]
			return r, true, nil
		}
		left, ok, err := it.left.Next(ctx)
		if err != nil || !ok {
			return value.Row{}, false, err
		}
		key := left.GetOrNull(it.op.LeftKey).Display()
		matches := it.index[key]
		if len(matches) == 0 {
			if it.op.Kind == LeftOuterJoin {
				return it.combine(left, value.Row{}, false), true, nil
			}
			continue
		}
		for _, right := range matches {
			it.pending = append(it.pending, it.combine(left, right, true))
		}
	}
}

func (it *mergeIter) combine(left, right value.Row, matched bool) value.Row {
	out := left
	cols := it.op.RightColumns
	if matched {
		if len(cols) == 0 {
			cols = right.Names()
		}
		for _, c := range cols {
			out = out.WithSet(c, right.GetOrNull(c))
		}
	} else {
		for _, c := range cols {
			out = out.WithSet(c, value.Null)
		}
	}
	return out
}

func (it *mergeIter) Close() error { return it.left.Close() }
