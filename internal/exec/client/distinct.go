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

// Distinct removes duplicate rows by full-tuple equality, implementing
// both SELECT DISTINCT and the dedup pass of a plain UNION.
// It streams: each row is emitted the first time its tuple is seen, and
// the tuples seen so far are kept in a set to drop later duplicates.
type Distinct struct {
	describeNode
}

// NewDistinct constructs a Distinct.
func NewDistinct(child types.PlanNode) *Distinct {
	return &Distinct{describeNode{label: "Distinct", child: child}}
}

var _ types.PlanNode = (*Distinct)(nil)

// Execute implements types.PlanNode.
func (d *Distinct) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := d.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &distinctIter{inner: inner, seen: make(map[string]struct{})}, nil
}

type distinctIter struct {
	inner types.RowIter
	seen  map[string]struct{}
}

func (it *distinctIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		row, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return row, ok, err
		}
		key := row.Tuple()
		if _, dup := it.seen[key]; dup {
			continue
		}
		it.seen[key] = struct{}{}
		return row, true, nil
	}
}

func (it *distinctIter) Close() error { return it.inner.Close() }
