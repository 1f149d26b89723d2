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

// NotInAntiJoin implements `x NOT IN (SELECT key FROM ...)` with SQL's
// three-valued-logic semantics for a NULL among the subquery's results:
// if the materialized key set contains any NULL, `x <> NULL` is Unknown
// for every outer row that doesn't match a non-null key, and Unknown is
// false in a WHERE clause, so the whole result is empty regardless of
// Left. A plain left-outer-join-plus-IS-NULL anti-join can't express
// that, since it only notices a match, never a NULL on the build side.
type NotInAntiJoin struct {
	Left, Right       types.PlanNode
	LeftKey, RightKey string
}

// NewNotInAntiJoin constructs a NotInAntiJoin.
func NewNotInAntiJoin(left, right types.PlanNode, leftKey, rightKey string) *NotInAntiJoin {
	return &NotInAntiJoin{Left: left, Right: right, LeftKey: leftKey, RightKey: rightKey}
}

var _ types.PlanNode = (*NotInAntiJoin)(nil)

// Describe implements types.PlanNode.
func (n *NotInAntiJoin) Describe() string { return "NotInAntiJoin" }

// EstimatedRows implements types.PlanNode.
func (n *NotInAntiJoin) EstimatedRows() int64 { return n.Left.EstimatedRows() }

// Children implements types.PlanNode.
func (n *NotInAntiJoin) Children() []types.PlanNode { return []types.PlanNode{n.Left, n.Right} }

// Execute implements types.PlanNode.
func (n *NotInAntiJoin) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	rightIter, err := n.Right.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rightRows, err := types.Drain(ctx, rightIter)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(rightRows))
	for _, r := range rightRows {
		k := r.GetOrNull(n.RightKey)
		if k.IsNull() {
			return emptyIter{}, nil
		}
		keys[k.Display()] = struct{}{}
	}

	leftIter, err := n.Left.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &notInIter{left: leftIter, keys: keys, leftKey: n.LeftKey}, nil
}

type notInIter struct {
	left    types.RowIter
	keys    map[string]struct{}
	leftKey string
}

func (it *notInIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		row, ok, err := it.left.Next(ctx)
		if err != nil || !ok {
			return value.Row{}, false, err
		}
		if _, matched := it.keys[row.GetOrNull(it.leftKey).Display()]; matched {
			continue
		}
		return row, true, nil
	}
}

func (it *notInIter) Close() error { return it.left.Close() }

type emptyIter struct{}

func (emptyIter) Next(context.Context) (value.Row, bool, error) { return value.Row{}, false, nil }
func (emptyIter) Close() error                                  { return nil }
