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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

type sliceLeaf struct {
	rows []value.Row
}

func (s *sliceLeaf) Describe() string           { return "sliceLeaf" }
func (s *sliceLeaf) EstimatedRows() int64       { return int64(len(s.rows)) }
func (s *sliceLeaf) Children() []types.PlanNode { return nil }
func (s *sliceLeaf) Execute(context.Context, *types.ExecContext) (types.RowIter, error) {
	return types.NewSliceIter(s.rows), nil
}

func TestPrefetchScanYieldsAllChildRowsInOrder(t *testing.T) {
	child := &sliceLeaf{rows: []value.Row{
		value.NewRow("account").WithSet("n", value.NewInt64(1)),
		value.NewRow("account").WithSet("n", value.NewInt64(2)),
		value.NewRow("account").WithSet("n", value.NewInt64(3)),
	}}
	s := NewPrefetchScan(child, 2)
	out := drainScan(t, s, newScanExecContext())

	require.Len(t, out, 3)
	for i, r := range out {
		n, _ := r.Get("n")
		assert.Equal(t, int64(i+1), n.Int64)
	}
}

func TestPrefetchScanDefaultsQueueSizeToOne(t *testing.T) {
	s := NewPrefetchScan(&sliceLeaf{}, 0)
	assert.Equal(t, 1, s.QueueSize)
}

func TestPrefetchScanCloseUnblocksProducer(t *testing.T) {
	child := &sliceLeaf{rows: []value.Row{value.NewRow("account"), value.NewRow("account")}}
	s := NewPrefetchScan(child, 1)
	iter, err := s.Execute(context.Background(), newScanExecContext())
	require.NoError(t, err)
	require.NoError(t, iter.Close())
}
