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

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// ParallelPartition fans a statically partitioned scan (e.g. one child
// per date-range or entity-shard slice) out across bounded concurrency
// and merges their outputs. Children execute with Suppressing set so
// only the outermost scan of a non-partitioned plan contributes paging
// metadata.
type ParallelPartition struct {
	Inputs      []types.PlanNode
	Parallelism int
}

// NewParallelPartition constructs a ParallelPartition over inputs,
// bounded at parallelism concurrent children.
func NewParallelPartition(inputs []types.PlanNode, parallelism int) *ParallelPartition {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &ParallelPartition{Inputs: inputs, Parallelism: parallelism}
}

var _ types.PlanNode = (*ParallelPartition)(nil)

// Describe implements types.PlanNode.
func (p *ParallelPartition) Describe() string { return "ParallelPartition" }

// EstimatedRows implements types.PlanNode.
func (p *ParallelPartition) EstimatedRows() int64 {
	var total int64
	for _, in := range p.Inputs {
		e := in.EstimatedRows()
		if e < 0 {
			return -1
		}
		total += e
	}
	return total
}

// Children implements types.PlanNode.
func (p *ParallelPartition) Children() []types.PlanNode { return p.Inputs }

// Execute implements types.PlanNode. It eagerly drains every partition
// concurrently (bounded by Parallelism) and streams the concatenated
// results; a partition's error cancels the remaining partitions via the
// errgroup-derived context.
func (p *ParallelPartition) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	group, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(p.Parallelism))

	results := make([][]value.Row, len(p.Inputs))
	childEC := ec.WithContext(gctx)
	suppressed := *childEC
	suppressed.Suppressing = true

	for i, child := range p.Inputs {
		i, child := i, child
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			iter, err := child.Execute(gctx, &suppressed)
			if err != nil {
				return err
			}
			rows, err := types.Drain(gctx, iter)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var out []value.Row
	for _, rows := range results {
		out = append(out, rows...)
	}
	return types.NewSliceIter(out), nil
}
