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

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// ClientFilter re-applies a predicate the backend could not evaluate
// (e.g. a computed expression). Rows for which the
// predicate collapses to false are dropped.
type ClientFilter struct {
	describeNode
	Predicate expr.Predicate
}

// NewClientFilter constructs a ClientFilter.
func NewClientFilter(child types.PlanNode, pred expr.Predicate) *ClientFilter {
	return &ClientFilter{describeNode: describeNode{label: "ClientFilter", child: child}, Predicate: pred}
}

var _ types.PlanNode = (*ClientFilter)(nil)

// Execute implements types.PlanNode.
func (f *ClientFilter) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := f.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &filterIter{inner: inner, pred: f.Predicate, ec: ec}, nil
}

type filterIter struct {
	inner types.RowIter
	pred  expr.Predicate
	ec    *types.ExecContext
}

func (it *filterIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		row, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return row, ok, err
		}
		keep, err := it.pred(it.ec, row)
		if err != nil {
			return value.Row{}, false, err
		}
		if keep {
			return row, true, nil
		}
	}
}

func (it *filterIter) Close() error { return it.inner.Close() }
