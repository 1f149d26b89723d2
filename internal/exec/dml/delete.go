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

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Delete implements DELETE: the driving SELECT projects only the
// primary key column needed to address each target record.
type Delete struct {
	describeNode
	Entity           string
	PrimaryKeyColumn string
	Opts             Options
}

// NewDelete constructs a Delete driven by driving.
func NewDelete(driving types.PlanNode, entity, primaryKeyColumn string, opts Options) *Delete {
	return &Delete{describeNode: describeNode{label: "Delete(" + entity + ")", child: driving}, Entity: entity, PrimaryKeyColumn: primaryKeyColumn, Opts: opts}
}

var _ types.PlanNode = (*Delete)(nil)

// Execute implements types.PlanNode.
func (n *Delete) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	drivingIter, err := n.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := enforceRowCap(ctx, drivingIter, n.Opts.RowCap)
	if err != nil {
		return nil, err
	}

	s := &summary{action: "DELETE", source: int64(len(rows))}
	for i, row := range rows {
		id := row.GetOrNull(n.PrimaryKeyColumn)
		_, err := writeOne(ctx, ec, "Delete", types.WriteRequest{Op: types.WriteDelete, Entity: n.Entity, ID: id})
		if err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("Delete")
			s.errored++
			continue
		}
		s.del++
	}
	return types.NewSliceIter([]value.Row{s.row()}), nil
}
