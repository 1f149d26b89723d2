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

package dml

import (
	"context"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// SetItem is one SET clause: the target column and its compiled
// expression, evaluated against the driving row so it may reference
// any column the driving SELECT projected.
type SetItem struct {
	Column string
	Expr   expr.Expr
}

// Update implements UPDATE: the driving SELECT supplies the primary
// key and every column referenced by any SET expression.
type Update struct {
	describeNode
	Entity           string
	PrimaryKeyColumn string
	Sets             []SetItem
	Opts             Options
}

// NewUpdate constructs an Update driven by driving.
func NewUpdate(driving types.PlanNode, entity, primaryKeyColumn string, sets []SetItem, opts Options) *Update {
	return &Update{describeNode: describeNode{label: "Update(" + entity + ")", child: driving}, Entity: entity, PrimaryKeyColumn: primaryKeyColumn, Sets: sets, Opts: opts}
}

var _ types.PlanNode = (*Update)(nil)

// Execute implements types.PlanNode.
func (n *Update) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	drivingIter, err := n.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := enforceRowCap(ctx, drivingIter, n.Opts.RowCap)
	if err != nil {
		return nil, err
	}

	s := &summary{action: "UPDATE", source: int64(len(rows))}
	for i, row := range rows {
		id := row.GetOrNull(n.PrimaryKeyColumn)
		cols := make(map[string]value.Value, len(n.Sets))
		for _, set := range n.Sets {
			v, err := set.Expr.Eval(ec, row)
			if err != nil {
				return nil, err
			}
			cols[set.Column] = v
		}
		_, err := writeOne(ctx, ec, "Update", types.WriteRequest{Op: types.WriteUpdate, Entity: n.Entity, ID: id, Columns: cols})
		if err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("Update")
			s.errored++
			continue
		}
		s.upd++
	}
	return types.NewSliceIter([]value.Row{s.row()}), nil
}
