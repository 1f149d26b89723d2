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

// fakeSource is a leaf PlanNode over a fixed row slice, standing in for
// a scan during client-operator tests.
type fakeSource struct {
	rows []value.Row
}

func (f *fakeSource) Describe() string           { return "fakeSource" }
func (f *fakeSource) EstimatedRows() int64       { return int64(len(f.rows)) }
func (f *fakeSource) Children() []types.PlanNode { return nil }

func (f *fakeSource) Execute(context.Context, *types.ExecContext) (types.RowIter, error) {
	return types.NewSliceIter(f.rows), nil
}

func newTestExecContext() *types.ExecContext {
	return &types.ExecContext{Context: context.Background()}
}

func drainAll(t interface {
	Fatalf(string, ...interface{})
}, node types.PlanNode, ec *types.ExecContext) []value.Row {
	iter, err := node.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	rows, err := types.Drain(context.Background(), iter)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	return rows
}
