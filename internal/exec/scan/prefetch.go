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

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// PrefetchScan wraps a child scan and runs it in a background goroutine
// that feeds a bounded channel, so the next page's backend round trip
// overlaps with the consumer processing the current one. The
// producer selects on both the outgoing send and the context's Done
// channel so a canceled consumer never leaks the goroutine.
type PrefetchScan struct {
	describeNode
	Child     types.PlanNode
	QueueSize int
}

// NewPrefetchScan constructs a PrefetchScan wrapping child with a
// bounded lookahead queue of queueSize rows.
func NewPrefetchScan(child types.PlanNode, queueSize int) *PrefetchScan {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &PrefetchScan{
		describeNode: describeNode{label: "PrefetchScan", est: child.EstimatedRows()},
		Child:        child,
		QueueSize:    queueSize,
	}
}

var _ types.PlanNode = (*PrefetchScan)(nil)

// Children implements types.PlanNode.
func (s *PrefetchScan) Children() []types.PlanNode { return []types.PlanNode{s.Child} }

type prefetchMsg struct {
	row value.Row
	err error
}

// Execute implements types.PlanNode.
func (s *PrefetchScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	childIter, err := s.Child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	out := make(chan prefetchMsg, s.QueueSize)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			row, ok, err := childIter.Next(ctx)
			if err != nil {
				select {
				case out <- prefetchMsg{err: err}:
				case <-done:
				}
				return
			}
			if !ok {
				return
			}
			select {
			case out <- prefetchMsg{row: row}:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return &prefetchIter{ch: out, done: done, child: childIter}, nil
}

type prefetchIter struct {
	ch     <-chan prefetchMsg
	done   chan struct{}
	child  types.RowIter
	closed bool
}

func (it *prefetchIter) Next(ctx context.Context) (value.Row, bool, error) {
	select {
	case msg, ok := <-it.ch:
		if !ok {
			return value.Row{}, false, nil
		}
		if msg.err != nil {
			return value.Row{}, false, msg.err
		}
		return msg.row, true, nil
	case <-ctx.Done():
		return value.Row{}, false, types.ErrCanceled
	}
}

func (it *prefetchIter) Close() error {
	if !it.closed {
		it.closed = true
		close(it.done)
	}
	return it.child.Close()
}
