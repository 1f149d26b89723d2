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

// MatchAction is what a WHEN MATCHED clause does to the target row.
type MatchAction int

// The supported WHEN MATCHED actions.
const (
	MatchUpdate MatchAction = iota
	MatchDelete
)

// TargetLookup resolves a source row to its matching target record(s)
// by the ON-columns, if any. It is a distinct, narrower collaborator
// than BackendWriteClient because MERGE's matching semantics (equality
// over an arbitrary ON predicate, not just a primary key) aren't
// expressible through the per-record write contract alone.
type TargetLookup interface {
	Lookup(ctx context.Context, entity string, onColumns []string, row value.Row) (value.Row, bool, error)
}

// Merge implements MERGE: drives on the USING source, looks up the
// target by the ON-columns, and on match applies UPDATE or DELETE, on
// no-match applies INSERT. Without a TargetLookup collaborator, this
// runs plan-only: it skips the lookup and the decision tree and issues
// no writes, so every driving row counts only against source_count.
type Merge struct {
	describeNode
	Entity     string
	OnColumns  []string
	Lookup     TargetLookup
	WhenMatch  MatchAction
	UpdateSets []SetItem
	InsertCols []string
	InsertExpr []expr.Expr
	Opts       Options
}

// NewMerge constructs a Merge driven by source.
func NewMerge(source types.PlanNode, entity string, onColumns []string, lookup TargetLookup, opts Options) *Merge {
	return &Merge{describeNode: describeNode{label: "Merge(" + entity + ")", child: source}, Entity: entity, OnColumns: onColumns, Lookup: lookup, Opts: opts}
}

var _ types.PlanNode = (*Merge)(nil)

// Execute implements types.PlanNode.
func (n *Merge) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	sourceIter, err := n.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	rows, err := enforceRowCap(ctx, sourceIter, n.Opts.RowCap)
	if err != nil {
		return nil, err
	}

	s := &summary{action: "MERGE", source: int64(len(rows))}
	for i, row := range rows {
		if n.Lookup == nil {
			// No writes without a target-lookup collaborator; the loop
			// still runs so source_count reflects every driving row.
			continue
		}
		target, matched, err := n.Lookup.Lookup(ctx, n.Entity, n.OnColumns, row)
		if err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("Merge")
			s.errored++
			continue
		}
		if matched {
			if err := n.applyMatch(ctx, ec, row, target); err != nil {
				if !n.Opts.ContinueOnError {
					return nil, types.PerRecord(i, err)
				}
				recordDMLError("Merge")
				s.errored++
				continue
			}
			if n.WhenMatch == MatchDelete {
				s.del++
			} else {
				s.upd++
			}
			continue
		}
		if err := n.applyInsert(ctx, ec, row); err != nil {
			if !n.Opts.ContinueOnError {
				return nil, types.PerRecord(i, err)
			}
			recordDMLError("Merge")
			s.errored++
			continue
		}
		s.ins++
	}
	return types.NewSliceIter([]value.Row{s.row()}), nil
}

func (n *Merge) applyMatch(ctx context.Context, ec *types.ExecContext, source, target value.Row) error {
	if n.WhenMatch == MatchDelete {
		_, err := writeOne(ctx, ec, "Merge", types.WriteRequest{Op: types.WriteDelete, Entity: n.Entity, ID: target.GetOrNull("id")})
		return err
	}
	cols := make(map[string]value.Value, len(n.UpdateSets))
	for _, set := range n.UpdateSets {
		v, err := set.Expr.Eval(ec, source)
		if err != nil {
			return err
		}
		cols[set.Column] = v
	}
	_, err := writeOne(ctx, ec, "Merge", types.WriteRequest{Op: types.WriteUpdate, Entity: n.Entity, ID: target.GetOrNull("id"), Columns: cols})
	return err
}

func (n *Merge) applyInsert(ctx context.Context, ec *types.ExecContext, source value.Row) error {
	cols := make(map[string]value.Value, len(n.InsertCols))
	for j, name := range n.InsertCols {
		v, err := n.InsertExpr[j].Eval(ec, source)
		if err != nil {
			return err
		}
		cols[name] = v
	}
	_, err := writeOne(ctx, ec, "Merge", types.WriteRequest{Op: types.WriteCreate, Entity: n.Entity, Columns: cols})
	return err
}
