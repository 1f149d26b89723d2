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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

type erroringSource struct {
	err error
}

func (e *erroringSource) Describe() string           { return "erroringSource" }
func (e *erroringSource) EstimatedRows() int64       { return -1 }
func (e *erroringSource) Children() []types.PlanNode { return nil }
func (e *erroringSource) Execute(context.Context, *types.ExecContext) (types.RowIter, error) {
	return nil, e.err
}

func TestParallelPartitionConcatenatesAllPartitions(t *testing.T) {
	a := &fakeSource{rows: []value.Row{leftRow(1)}}
	b := &fakeSource{rows: []value.Row{leftRow(2), leftRow(3)}}
	pp := NewParallelPartition([]types.PlanNode{a, b}, 2)

	out := drainAll(t, pp, newTestExecContext())
	assert.Len(t, out, 3)
}

func TestParallelPartitionPropagatesChildError(t *testing.T) {
	a := &fakeSource{rows: []value.Row{leftRow(1)}}
	bad := &erroringSource{err: errors.New("partition boom")}
	pp := NewParallelPartition([]types.PlanNode{a, bad}, 2)

	_, err := pp.Execute(context.Background(), newTestExecContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition boom")
}

func TestParallelPartitionDefaultsParallelismToOne(t *testing.T) {
	pp := NewParallelPartition(nil, 0)
	assert.Equal(t, 1, pp.Parallelism)
}

func TestParallelPartitionEstimatedRowsSumsChildren(t *testing.T) {
	a := &fakeSource{rows: []value.Row{leftRow(1), leftRow(2)}}
	b := &fakeSource{rows: []value.Row{leftRow(3)}}
	pp := NewParallelPartition([]types.PlanNode{a, b}, 2)
	assert.Equal(t, int64(3), pp.EstimatedRows())
}
