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

// fakeWriteClient records every write it receives and can be made to
// fail on specific 0-based call indices.
type fakeWriteClient struct {
	writes    []types.WriteRequest
	failAt    map[int]error
	nextID    int64
}

func (f *fakeWriteClient) Write(_ context.Context, req types.WriteRequest) (value.Value, error) {
	idx := len(f.writes)
	f.writes = append(f.writes, req)
	if err, ok := f.failAt[idx]; ok {
		return value.Null, err
	}
	f.nextID++
	return value.NewInt64(f.nextID), nil
}

// fakeDrivingSource is a leaf PlanNode over a fixed row slice, standing
// in for a driving SELECT in DML operator tests.
type fakeDrivingSource struct {
	rows []value.Row
}

func (f *fakeDrivingSource) Describe() string           { return "fakeDrivingSource" }
func (f *fakeDrivingSource) EstimatedRows() int64       { return int64(len(f.rows)) }
func (f *fakeDrivingSource) Children() []types.PlanNode { return nil }
func (f *fakeDrivingSource) Execute(context.Context, *types.ExecContext) (types.RowIter, error) {
	return types.NewSliceIter(f.rows), nil
}

func newDMLExecContext(write *fakeWriteClient) *types.ExecContext {
	return &types.ExecContext{Context: context.Background(), Write: write}
}

func drainOne(t interface {
	Fatalf(string, ...interface{})
}, node types.PlanNode, ec *types.ExecContext) value.Row {
	iter, err := node.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	rows, err := types.Drain(context.Background(), iter)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one summary row, got %d", len(rows))
	}
	return rows[0]
}
