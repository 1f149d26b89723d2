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

// TableSpool materializes its child once and allows it to be replayed
// (e.g. for a correlated subquery evaluated once per outer row). The
// first Execute call drains the child; later calls replay the cached
// rows without re-touching the backend.
type TableSpool struct {
	describeNode
	rows    []value.Row
	spooled bool
}

// NewTableSpool constructs a TableSpool.
func NewTableSpool(child types.PlanNode) *TableSpool {
	return &TableSpool{describeNode: describeNode{label: "TableSpool", child: child}}
}

var _ types.PlanNode = (*TableSpool)(nil)

// Execute implements types.PlanNode. It spools on first call and
// replays a fresh iterator over the cached rows on every call
// thereafter.
func (s *TableSpool) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if !s.spooled {
		inner, err := s.child.Execute(ctx, ec)
		if err != nil {
			return nil, err
		}
		rows, err := types.Drain(ctx, inner)
		if err != nil {
			return nil, err
		}
		s.rows = rows
		s.spooled = true
	}
	return types.NewSliceIter(s.rows), nil
}

// IndexSpool is a TableSpool that additionally indexes its
// materialized rows by a key column, for efficient repeated
// point-lookup replay (e.g. the inner side of a nested-loop-style
// correlated lookup).
type IndexSpool struct {
	describeNode
	KeyColumn string
	index     map[string][]value.Row
	built     bool
}

// NewIndexSpool constructs an IndexSpool keyed by keyColumn.
func NewIndexSpool(child types.PlanNode, keyColumn string) *IndexSpool {
	return &IndexSpool{describeNode: describeNode{label: "IndexSpool", child: child}, KeyColumn: keyColumn}
}

var _ types.PlanNode = (*IndexSpool)(nil)

// Execute implements types.PlanNode, returning every materialized row
// (the same contract as TableSpool); Lookup is the point-access path.
func (s *IndexSpool) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if err := s.build(ctx, ec); err != nil {
		return nil, err
	}
	var all []value.Row
	for _, rows := range s.index {
		all = append(all, rows...)
	}
	return types.NewSliceIter(all), nil
}

func (s *IndexSpool) build(ctx context.Context, ec *types.ExecContext) error {
	if s.built {
		return nil
	}
	inner, err := s.child.Execute(ctx, ec)
	if err != nil {
		return err
	}
	rows, err := types.Drain(ctx, inner)
	if err != nil {
		return err
	}
	s.index = make(map[string][]value.Row, len(rows))
	for _, r := range rows {
		k := r.GetOrNull(s.KeyColumn).Display()
		s.index[k] = append(s.index[k], r)
	}
	s.built = true
	return nil
}

// Lookup returns the materialized rows whose KeyColumn value displays
// as key, building the index on first use.
func (s *IndexSpool) Lookup(ctx context.Context, ec *types.ExecContext, key string) ([]value.Row, error) {
	if err := s.build(ctx, ec); err != nil {
		return nil, err
	}
	return s.index[key], nil
}
