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

// Concatenate implements UNION ALL: it streams each child in order,
// never deduplicating (that's Distinct's job for plain UNION).
type Concatenate struct {
	Inputs []types.PlanNode
}

// NewConcatenate constructs a Concatenate over inputs.
func NewConcatenate(inputs []types.PlanNode) *Concatenate { return &Concatenate{Inputs: inputs} }

var _ types.PlanNode = (*Concatenate)(nil)

// Describe implements types.PlanNode.
func (c *Concatenate) Describe() string { return "Concatenate" }

// EstimatedRows implements types.PlanNode, summing children's estimates
// unless any is unknown.
func (c *Concatenate) EstimatedRows() int64 {
	var total int64
	for _, in := range c.Inputs {
		e := in.EstimatedRows()
		if e < 0 {
			return -1
		}
		total += e
	}
	return total
}

// Children implements types.PlanNode.
func (c *Concatenate) Children() []types.PlanNode { return c.Inputs }

// Execute implements types.PlanNode.
func (c *Concatenate) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	return &concatIter{ec: ec, ctx: ctx, inputs: c.Inputs}, nil
}

type concatIter struct {
	ec     *types.ExecContext
	ctx    context.Context
	inputs []types.PlanNode
	idx    int
	cur    types.RowIter
}

func (it *concatIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		if it.cur == nil {
			if it.idx >= len(it.inputs) {
				return value.Row{}, false, nil
			}
			next, err := it.inputs[it.idx].Execute(ctx, it.ec)
			if err != nil {
				return value.Row{}, false, err
			}
			it.cur = next
			it.idx++
		}
		row, ok, err := it.cur.Next(ctx)
		if err != nil {
			return value.Row{}, false, err
		}
		if ok {
			return row, true, nil
		}
		it.cur.Close()
		it.cur = nil
	}
}

func (it *concatIter) Close() error {
	if it.cur != nil {
		return it.cur.Close()
	}
	return nil
}
