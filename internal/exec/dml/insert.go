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

// InsertValues implements INSERT ... VALUES: the value-list expressions
// are compiled once by the planner and evaluated per row here. Rows is
// one []expr.Expr per VALUES tuple, columns gives the target column
// name for each expression position.
type InsertValues struct {
	Entity  string
	Columns []string
	Rows    [][]expr.Expr
	Opts    Options
}

var _ types.PlanNode = (*InsertValues)(nil)

// Describe implements types.PlanNode.
func (n *InsertValues) Describe() string { return "InsertValues(" + n.Entity + ")" }

// EstimatedRows implements types.PlanNode.
func (n *InsertValues) EstimatedRows() int64 { return 1 }

// Children implements types.PlanNode.
func (n *InsertValues) Children() []types.PlanNode { return nil }

// Execute implements types.PlanNode.
func (n *InsertValues) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if n.Opts.RowCap > 0 && int64(len(n.Rows)) > n.Opts.RowCap {
		return nil, types.RowCapExceeded("driving row count exceeds dml_row_cap")
	}

	s := &summary{action: "INSERT", source: int64(len(n.Rows))}
	empty := value.NewRow(n.Entity)
	for i, row := range n.Rows {
		cols := make(map[string]value.Value, len(row))
		for j, e := range row {
			v, err := e.Eval(ec, empty)
			if err != nil {
				return nil, err
			}
			cols[n.Columns[j]] = v
		}
		_, err := writeOne(ctx, ec, "InsertValues", types.WriteRequest{Op: types.WriteCreate, Entity: n.Entity, Columns: cols})
		if err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("InsertValues")
			s.errored++
			continue
		}
		s.ins++
	}
	return types.NewSliceIter([]value.Row{s.row()}), nil
}

// InsertSelect implements INSERT ... SELECT: driven by the compiled
// inner SELECT plan, with ordinal mapping target-column-index ←
// source-column-index.
type InsertSelect struct {
	describeNode
	Entity  string
	Columns []string
	Opts    Options
}

// NewInsertSelect constructs an InsertSelect driven by source.
func NewInsertSelect(source types.PlanNode, entity string, columns []string, opts Options) *InsertSelect {
	return &InsertSelect{describeNode: describeNode{label: "InsertSelect(" + entity + ")", child: source}, Entity: entity, Columns: columns, Opts: opts}
}

var _ types.PlanNode = (*InsertSelect)(nil)

// Execute implements types.PlanNode.
func (n *InsertSelect) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	sourceIter, err := n.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := enforceRowCap(ctx, sourceIter, n.Opts.RowCap)
	if err != nil {
		return nil, err
	}

	s := &summary{action: "INSERT", source: int64(len(rows))}
	for i, row := range rows {
		values := row.Values()
		cols := make(map[string]value.Value, len(n.Columns))
		for j, name := range n.Columns {
			if j < len(values) {
				cols[name] = values[j]
			}
		}
		_, err := writeOne(ctx, ec, "InsertSelect", types.WriteRequest{Op: types.WriteCreate, Entity: n.Entity, Columns: cols})
		if err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("InsertSelect")
			s.errored++
			continue
		}
		s.ins++
	}
	return types.NewSliceIter([]value.Row{s.row()}), nil
}
