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

// Package dml implements the per-record backend-write operators:
// Insert (values and select-driven), Update, Delete, and the plan-only
// Merge. Every operator wraps a driving plan whose rows supply record
// identity, issues one backend write per driving row, and yields a
// single summary row.
package dml

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/metrics"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// maxWriteAttempts bounds the retry-on-transient loop for a single
// record's write. After this many attempts a transient error is
// treated as persistent.
const maxWriteAttempts = 5

// Options configures the shared per-record write behavior of every DML
// operator.
type Options struct {
	// RowCap is the maximum number of driving rows this statement may
	// touch; 0 means unbounded. Exceeding it raises RowCapExceeded
	// before any writes are issued.
	RowCap int64
	// ContinueOnError tallies per-record failures into the summary row
	// instead of stopping at the first one.
	ContinueOnError bool
}

// summary accumulates the {$action, inserted_count, updated_count,
// deleted_count, source_count, error_count} output row every DML
// operator returns.
type summary struct {
	action  string
	ins     int64
	upd     int64
	del     int64
	source  int64
	errored int64
}

func recordDMLError(op string) {
	metrics.DMLRecordErrors.WithLabelValues(op).Inc()
}

func (s *summary) row() value.Row {
	r := value.NewRow("")
	r = r.WithSet("$action", value.NewString(s.action))
	r = r.WithSet("inserted_count", value.NewInt64(s.ins))
	r = r.WithSet("updated_count", value.NewInt64(s.upd))
	r = r.WithSet("deleted_count", value.NewInt64(s.del))
	r = r.WithSet("source_count", value.NewInt64(s.source))
	r = r.WithSet("error_count", value.NewInt64(s.errored))
	return r
}

// enforceRowCap counts the driving rows up front against cap, rejecting
// before any writes are issued. It returns the materialized rows since
// the driving plan must be read once anyway.
func enforceRowCap(ctx context.Context, driving types.RowIter, cap int64) ([]value.Row, error) {
	rows, err := types.Drain(ctx, driving)
	if err != nil {
		return nil, err
	}
	if cap > 0 && int64(len(rows)) > cap {
		return nil, types.RowCapExceeded("driving row count exceeds dml_row_cap")
	}
	return rows, nil
}

// writeOne issues a single backend write, retrying on throttle-advised
// transient errors up to maxWriteAttempts before giving up on this row.
func writeOne(ctx context.Context, ec *types.ExecContext, op string, req types.WriteRequest) (value.Value, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if err := ec.CheckCanceled(); err != nil {
			return value.Null, err
		}
		id, err := ec.Write.Write(ctx, req)
		if err == nil {
			return id, nil
		}
		lastErr = err
		retryAfter, transient := types.IsTransient(err)
		if !transient {
			return value.Null, err
		}
		metrics.ThrottleRetries.WithLabelValues(op).Inc()
		log.WithError(err).WithField("op", op).Warn("dml write retrying after transient error")
		select {
		case <-ctx.Done():
			return value.Null, types.ErrCanceled
		case <-time.After(retryAfter):
		}
	}
	return value.Null, lastErr
}

// describeNode gives every DML operator the fixed Describe/Children
// shape; EstimatedRows is always 1 since DML yields exactly one summary
// row.
type describeNode struct {
	label string
	child types.PlanNode
}

func (d describeNode) Describe() string           { return d.label }
func (d describeNode) EstimatedRows() int64       { return 1 }
func (d describeNode) Children() []types.PlanNode { return []types.PlanNode{d.child} }
