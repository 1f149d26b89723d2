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

// Package types contains the data types and collaborator interfaces
// that define the major functional blocks of the query planner and
// execution engine. Placing them in one package makes it possible for
// the planner, operator, and script packages to depend on a shared,
// dependency-free vocabulary without import cycles.
package types

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// A PlanNode is a physical operator in the execution tree: one struct
// per operator implementing this interface.
type PlanNode interface {
	// Describe returns a short, human-readable description for plan
	// explain tooling (e.g. "FetchXmlScan(account)").
	Describe() string

	// EstimatedRows returns the planner's best guess at the row count
	// this node will produce, or -1 if unknown.
	EstimatedRows() int64

	// Children returns the node's child operators, in evaluation order.
	Children() []PlanNode

	// Execute begins streaming rows. The returned RowIter must be
	// Closed by the caller even if not fully drained.
	Execute(ctx context.Context, ec *ExecContext) (RowIter, error)
}

// A RowIter yields rows lazily. Next returns (value.Row{}, false, nil)
// once exhausted, or a non-nil error if execution failed. Close
// releases any operator-held resources (borrowed connections, prefetch
// buffers) and is always safe to call multiple times.
type RowIter interface {
	Next(ctx context.Context) (value.Row, bool, error)
	Close() error
}

// SliceIter adapts a pre-materialized row slice into a RowIter, used by
// TableSpool/IndexSpool replay and by tests.
type SliceIter struct {
	rows []value.Row
	pos  int
}

// NewSliceIter constructs a RowIter over rows.
func NewSliceIter(rows []value.Row) *SliceIter { return &SliceIter{rows: rows} }

// Next implements RowIter.
func (s *SliceIter) Next(_ context.Context) (value.Row, bool, error) {
	if s.pos >= len(s.rows) {
		return value.Row{}, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

// Close implements RowIter.
func (s *SliceIter) Close() error { return nil }

// Drain fully materializes a RowIter into a slice, closing it
// afterwards. Used by materializing operators (TableSpool, ClientWindow,
// Distinct's caller, cursor OPEN).
func Drain(ctx context.Context, it RowIter) ([]value.Row, error) {
	defer it.Close()
	var out []value.Row
	for {
		r, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}

// QueryResult is the public outcome of executing a plan.
type QueryResult struct {
	Columns      []value.Column
	Rows         []value.Row
	Returned     int64
	TotalCount   *int64
	MoreRecords  bool
	PagingCookie string
	PageNumber   int

	ExecutedBackendQuery string
	ElapsedMillis        int64
	IsAggregate          bool
}

// --- Collaborator contracts ---

// FetchPage is one page returned by the backend FetchXML client.
type FetchPage struct {
	Records      []value.Row
	Columns      []value.Column
	MoreRecords  bool
	PagingCookie string
	PageNumber   int
	TotalCount   *int64
}

// BackendFetchClient is the collaborator contract for executing
// FetchXML against the backend. Its implementation (token acquisition,
// HTTP transport, XML parsing) is out of this core's scope.
type BackendFetchClient interface {
	Execute(ctx context.Context, fetchXML string, page int, cookie string, includeCount bool) (*FetchPage, error)
}

// BackendSQLClient is the collaborator contract for the secondary SQL
// wire-protocol passthrough path.
type BackendSQLClient interface {
	Execute(ctx context.Context, sql string, maxRows int) (RowIter, []value.Column, error)
}

// MetadataClient is the collaborator contract for entity/attribute
// metadata lookups, backing MetadataScan and the COUNT(*) fast path.
type MetadataClient interface {
	QueryEntities(ctx context.Context, filter func(value.Row) bool) ([]value.Row, []value.Column, error)
	QueryAttributes(ctx context.Context, entity string, filter func(value.Row) bool) ([]value.Row, []value.Column, error)
	QueryRelationships(ctx context.Context, entity string, filter func(value.Row) bool) ([]value.Row, []value.Column, error)
	EntityRecordCount(ctx context.Context, entity string) (int64, error)
}

// WriteOp is the kind of per-record backend write a DML operator
// issues.
type WriteOp int

// The supported write operations.
const (
	WriteCreate WriteOp = iota
	WriteUpdate
	WriteDelete
)

// WriteRequest describes one per-record backend write: for each
// driving row a DML operator issues one such request.
type WriteRequest struct {
	Op      WriteOp
	Entity  string
	ID      value.Value
	Columns map[string]value.Value
}

// BackendWriteClient is the collaborator contract for issuing
// per-record INSERT/UPDATE/DELETE writes against the backend; its
// implementation (token acquisition, HTTP transport) is out of this
// core's scope, same as BackendFetchClient.
type BackendWriteClient interface {
	Write(ctx context.Context, req WriteRequest) (id value.Value, err error)
}

// ConnectionHandle is an opaque borrowed resource from the connection
// pool, released back to the pool by Release.
type ConnectionHandle interface {
	Release()
}

// ConnectionPool is the collaborator contract for the externally owned
// connection pool.
type ConnectionPool interface {
	Borrow(ctx context.Context) (ConnectionHandle, error)
	Capacity() int
	Invalidate(profileName string)
}

// ThrottleTracker is the collaborator contract for the process-wide
// throttle tracker.
type ThrottleTracker interface {
	Observe(headers map[string]string)
	Advise() (retryAfter time.Duration, throttled bool)
}

// TranspileResult is the FetchXML produced for a SELECT, plus any
// virtual columns the transpiler could not express natively.
type TranspileResult struct {
	FetchXML       string
	VirtualColumns []string
}

// Transpiler is the collaborator contract for SQL-to-FetchXML
// transpilation; its internal rules are out of this core's scope.
type Transpiler interface {
	Transpile(selectStmt any) (*TranspileResult, error)
}

// ProgressPhase names a coarse phase of a long-running DML or cursor
// operation, for an optional progress reporter.
type ProgressPhase string

// The recognized progress phases.
const (
	ProgressScanning ProgressPhase = "scanning"
	ProgressWriting  ProgressPhase = "writing"
	ProgressMerging  ProgressPhase = "merging"
)

// ProgressReporter is an optional collaborator that receives phase/info
// callbacks for long-running DML and cursor operations.
type ProgressReporter interface {
	Report(phase ProgressPhase, info string, processed, total int64)
}

// ExecContext is the execution-time context threaded through every
// operator: backend handles, scope, and the single cancellation token.
// It is distinct from context.Context (which
// it embeds) because it also carries engine-specific collaborators and
// mutable, thread-safe statistics.
type ExecContext struct {
	context.Context

	Pool     ConnectionPool
	Fetch    BackendFetchClient
	SQL      BackendSQLClient
	Write    BackendWriteClient
	Metadata MetadataClient
	Throttle ThrottleTracker
	Progress ProgressReporter

	// Scope is the script's variable scope, or nil outside a script
	// execution.
	Scope *VariableScope

	// Principal is the impersonation principal set by EXECUTE AS, or
	// the zero UUID if unset: impersonation is either unset or a
	// single uuid, never a stack of them.
	Principal uuid.UUID

	// Stats is shared, thread-safe execution statistics.
	Stats *Stats

	// Suppressing is set by ParallelPartition before executing its
	// children, so that only the outermost scan of a non-partitioned
	// plan populates paging metadata.
	Suppressing bool
}

// WithContext returns a shallow copy of ec using the given
// context.Context, used by operators that derive a child context (e.g.
// ParallelPartition's per-partition errgroup context).
func (ec *ExecContext) WithContext(ctx context.Context) *ExecContext {
	cp := *ec
	cp.Context = ctx
	return &cp
}

// CheckCanceled returns ErrCanceled if the context has been canceled.
// Operators check the token before each row yield.
func (ec *ExecContext) CheckCanceled() error {
	select {
	case <-ec.Done():
		return ErrCanceled
	default:
		return nil
	}
}
