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

package plan

import (
	"github.com/joshsmithxrm/ppds-queryengine/internal/exec/dml"
	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// dmlOptions builds the shared per-record write Options every DML
// operator takes, from the bound planner configuration.
func (p *Planner) dmlOptions() dml.Options {
	return dml.Options{RowCap: p.Options.DMLRowCap, ContinueOnError: p.Options.ContinueOnError}
}

// PlanInsert compiles an INSERT ... VALUES statement directly from its
// compiled row expressions.
func (p *Planner) PlanInsert(req *InsertRequest) types.PlanNode {
	return &dml.InsertValues{
		Entity:  req.Entity,
		Columns: req.Columns,
		Rows:    req.Rows,
		Opts:    p.dmlOptions(),
	}
}

// PlanInsertSelect plans the inner SELECT and wraps it in an
// InsertSelect, mapping target columns to the source's projection by
// ordinal position.
func (p *Planner) PlanInsertSelect(req *InsertSelectRequest) (types.PlanNode, error) {
	source, err := p.PlanSelect(req.Source)
	if err != nil {
		return nil, err
	}
	return dml.NewInsertSelect(source, req.Entity, req.Columns, p.dmlOptions()), nil
}

// PlanUpdate builds a driving SELECT of the primary key plus every
// column referenced by a SET expression, plans it, and wraps it with
// Update.
func (p *Planner) PlanUpdate(req *UpdateRequest) (types.PlanNode, error) {
	driving, err := p.PlanSelect(drivingSelect(req.Entity, req.PrimaryKeyColumn, req.Where, req.RemainderWhere, setColumns(req.Sets)))
	if err != nil {
		return nil, err
	}
	return dml.NewUpdate(driving, req.Entity, req.PrimaryKeyColumn, toDmlSets(req.Sets), p.dmlOptions()), nil
}

// PlanDelete builds a driving SELECT projecting only the primary key,
// plans it, and wraps it with Delete.
func (p *Planner) PlanDelete(req *DeleteRequest) (types.PlanNode, error) {
	driving, err := p.PlanSelect(drivingSelect(req.Entity, req.PrimaryKeyColumn, req.Where, req.RemainderWhere, nil))
	if err != nil {
		return nil, err
	}
	return dml.NewDelete(driving, req.Entity, req.PrimaryKeyColumn, p.dmlOptions()), nil
}

// PlanMerge builds a driving SELECT for the USING source and wraps it
// with a Merge operator. lookup may be nil, in which case Merge runs
// plan-only: the per-row write is deferred until a TargetLookup
// collaborator is wired by the caller.
func (p *Planner) PlanMerge(req *MergeRequest, lookup dml.TargetLookup) (types.PlanNode, error) {
	source, err := p.PlanSelect(req.Using)
	if err != nil {
		return nil, err
	}
	m := dml.NewMerge(source, req.Entity, req.OnColumns, lookup, p.dmlOptions())
	m.UpdateSets = toDmlSets(req.UpdateSets)
	m.InsertCols = req.InsertCols
	m.InsertExpr = req.InsertExpr
	if req.WhenMatch == "delete" {
		m.WhenMatch = dml.MatchDelete
	} else {
		m.WhenMatch = dml.MatchUpdate
	}
	return m, nil
}

func setColumns(sets []SetExpr) []string {
	cols := make([]string, len(sets))
	for i, s := range sets {
		cols[i] = s.Column
	}
	return cols
}

func toDmlSets(sets []SetExpr) []dml.SetItem {
	out := make([]dml.SetItem, len(sets))
	for i, s := range sets {
		out[i] = dml.SetItem{Column: s.Column, Expr: s.Expr}
	}
	return out
}

// drivingSelect assembles the minimal SELECT an UPDATE or DELETE needs
// to drive its per-record writes: the primary key plus any extra
// columns the SET clauses reference.
func drivingSelect(entity, primaryKeyColumn string, where, remainder expr.Predicate, extra []string) *SelectRequest {
	cols := make([]value.Column, 0, len(extra)+1)
	cols = append(cols, value.Column{Name: primaryKeyColumn})
	for _, c := range extra {
		if c == primaryKeyColumn {
			continue
		}
		cols = append(cols, value.Column{Name: c})
	}
	return &SelectRequest{
		Entity:         entity,
		Columns:        cols,
		Where:          where,
		RemainderWhere: remainder,
	}
}
