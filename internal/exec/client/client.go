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

// Package client implements the client-side (post-scan) operators:
// filtering, projection, windowing, dedup, spooling, aggregation
// merge, parallel fan-out, JSON/string expansion, and client-side
// join.
package client

import (
	"time"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/metrics"
)

// describeNode gives every unary client operator a fixed
// Describe/EstimatedRows/Children shape over one child.
type describeNode struct {
	label string
	child types.PlanNode
}

func (d describeNode) Describe() string           { return d.label }
func (d describeNode) EstimatedRows() int64       { return d.child.EstimatedRows() }
func (d describeNode) Children() []types.PlanNode { return []types.PlanNode{d.child} }

func observeOperator(op string, start time.Time, rows int) {
	metrics.OperatorDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.RowsEmitted.WithLabelValues(op).Add(float64(rows))
}
