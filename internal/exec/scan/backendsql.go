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

// BackendSqlScan routes a statement the transpiler could not express as
// FetchXML through the backend's secondary SQL passthrough endpoint.
type BackendSqlScan struct {
	describeNode
	SQL     string
	MaxRows int
}

// NewBackendSqlScan constructs a BackendSqlScan.
func NewBackendSqlScan(sql string, maxRows int) *BackendSqlScan {
	return &BackendSqlScan{
		describeNode: describeNode{label: "BackendSqlScan", est: -1},
		SQL:          sql,
		MaxRows:      maxRows,
	}
}

var _ types.PlanNode = (*BackendSqlScan)(nil)

// Execute implements types.PlanNode.
func (s *BackendSqlScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if err := ec.CheckCanceled(); err != nil {
		return nil, err
	}
	if err := waitForThrottle(ec); err != nil {
		return nil, err
	}
	start := time.Now()
	iter, _, err := ec.SQL.Execute(ctx, s.SQL, s.MaxRows)
	if err != nil {
		logScanError("BackendSqlScan", err)
		return nil, err
	}
	return &countingIter{inner: iter, op: "BackendSqlScan", ec: ec, start: start}, nil
}

// countingIter wraps a RowIter to fold per-row counts into Stats and
// the shared metrics when the wrapped iterator is exhausted or closed.
type countingIter struct {
	inner types.RowIter
	op    string
	ec    *types.ExecContext
	start time.Time
	n     int
}

func (it *countingIter) Next(ctx context.Context) (value.Row, bool, error) {
	row, ok, err := it.inner.Next(ctx)
	if err != nil {
		return value.Row{}, false, err
	}
	if !ok {
		observeOperator(it.op, it.start, it.n)
		return value.Row{}, false, nil
	}
	it.n++
	if it.ec.Stats != nil {
		it.ec.Stats.AddRowsScanned(1)
	}
	return row, true, nil
}

func (it *countingIter) Close() error { return it.inner.Close() }
