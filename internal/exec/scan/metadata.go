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

package scan

import (
	"context"
	"time"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// MetadataKind selects which metadata collection a MetadataScan reads.
type MetadataKind int

// The supported metadata collections.
const (
	MetadataEntities MetadataKind = iota
	MetadataAttributes
	MetadataRelationships
)

// MetadataScan answers a query against cached schema metadata instead
// of issuing a FetchXML request.
type MetadataScan struct {
	describeNode
	Kind   MetadataKind
	Entity string // required for Attributes/Relationships
	Filter func(value.Row) bool
}

// NewMetadataScan constructs a MetadataScan.
func NewMetadataScan(kind MetadataKind, entity string, filter func(value.Row) bool) *MetadataScan {
	return &MetadataScan{
		describeNode: describeNode{label: "MetadataScan", est: -1},
		Kind:         kind,
		Entity:       entity,
		Filter:       filter,
	}
}

var _ types.PlanNode = (*MetadataScan)(nil)

// Execute implements types.PlanNode.
func (s *MetadataScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if err := ec.CheckCanceled(); err != nil {
		return nil, err
	}
	start := time.Now()
	var rows []value.Row
	var err error
	switch s.Kind {
	case MetadataEntities:
		rows, _, err = ec.Metadata.QueryEntities(ctx, s.Filter)
	case MetadataAttributes:
		rows, _, err = ec.Metadata.QueryAttributes(ctx, s.Entity, s.Filter)
	case MetadataRelationships:
		rows, _, err = ec.Metadata.QueryRelationships(ctx, s.Entity, s.Filter)
	}
	if err != nil {
		logScanError("MetadataScan", err)
		return nil, err
	}
	if ec.Stats != nil {
		ec.Stats.AddRowsScanned(int64(len(rows)))
	}
	observeOperator("MetadataScan", start, len(rows))
	return types.NewSliceIter(rows), nil
}

// CountOptimizedScan answers a bare SELECT COUNT(*) FROM entity query
// using the metadata record-count fast path instead of paging through
// every row.
type CountOptimizedScan struct {
	describeNode
	Entity     string
	ColumnName string
}

// NewCountOptimizedScan constructs a CountOptimizedScan.
func NewCountOptimizedScan(entity, columnName string) *CountOptimizedScan {
	return &CountOptimizedScan{
		describeNode: describeNode{label: "CountOptimizedScan(" + entity + ")", est: 1},
		Entity:       entity,
		ColumnName:   columnName,
	}
}

var _ types.PlanNode = (*CountOptimizedScan)(nil)

// Execute implements types.PlanNode.
func (s *CountOptimizedScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if err := ec.CheckCanceled(); err != nil {
		return nil, err
	}
	n, err := ec.Metadata.EntityRecordCount(ctx, s.Entity)
	if err != nil {
		logScanError("CountOptimizedScan", err)
		return nil, err
	}
	row := value.NewRow(s.Entity).With(s.ColumnName, value.NewInt64(n))
	return types.NewSliceIter([]value.Row{row}), nil
}
