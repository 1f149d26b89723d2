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

// Package plan turns an already-parsed statement into an operator
// tree. It is a pure function of its inputs: the same request and
// config.Options always produce the same tree shape, with no I/O of
// its own. Upstream parsing and any partial rewriting of the original
// SQL text happen before the request reaches this package; the request
// shapes here are the planner's own intermediate representation,
// deliberately narrower than a general SQL AST.
package plan

import (
	"time"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// JoinRewrite is a single subquery-to-join rewrite candidate recognized
// upstream and handed to the planner already classified as one of the
// IN/EXISTS rewrite shapes.
type JoinRewriteKind int

// The supported join rewrite shapes.
const (
	// RewriteInSubquery is `col IN (SELECT key FROM ...)` where the
	// subquery yields at most one non-null key column: becomes an
	// INNER JOIN on that key.
	RewriteInSubquery JoinRewriteKind = iota
	// RewriteNotInSubquery is `col NOT IN (SELECT key FROM ...)`: becomes
	// an anti-join against the materialized key set, with the same
	// three-valued-logic short-circuit SQL gives a NULL key (see
	// client.NotInAntiJoin) rather than the plain LEFT JOIN/IS NULL
	// shape RewriteNotExists uses.
	RewriteNotInSubquery
	// RewriteExists is `EXISTS (SELECT ... WHERE outer.x = inner.y)`:
	// becomes an INNER JOIN on the correlation columns.
	RewriteExists
	// RewriteNotExists is `NOT EXISTS (...)`: becomes a LEFT JOIN on
	// the correlation columns followed by an IS NULL filter on the
	// right side.
	RewriteNotExists
)

// SubqueryRewrite describes one correlated or uncorrelated subquery the
// upstream parser recognized in a SELECT's WHERE clause.
type SubqueryRewrite struct {
	Kind JoinRewriteKind
	// Subquery is the inner statement to plan independently.
	Subquery *SelectRequest
	// OuterKey/InnerKey name the equi-join columns for IN and EXISTS
	// rewrites. For RewriteNotInSubquery, InnerKey names the single
	// column the materialized literal list is built from.
	OuterKey, InnerKey string
}

// VirtualColumnRef is a `*name` lookup column the transpiler cannot
// express directly in FetchXML and that must instead be resolved
// client-side. Its presence is what the backend-SQL-passthrough
// compatibility check rejects on.
type VirtualColumnRef struct {
	Name string
}

// ComputedColumn is a SELECT-list entry the backend cannot compute
// (CASE, IIF, arithmetic, a window function), requiring a Project or
// ClientWindow above the scan.
type ComputedColumn struct {
	OutputName string
	Expr       expr.Expr
	// Window is non-nil when this computed column is a window function
	// rather than a plain scalar expression.
	Window *WindowColumn
}

// WindowColumn is one OVER(...) computed column.
type WindowColumn struct {
	Spec WindowSpecRequest
	Func string // "row_number", "rank", "dense_rank", "sum", "avg", "count", "min", "max",
	// "cume_dist", "percent_rank", "lag", "lead", "ntile", "first_value", "last_value"
	Arg string
	// Offset is the LAG/LEAD row offset (1 when zero) or the NTILE
	// bucket count.
	Offset int64
	// Default is the LAG/LEAD substitute value when the offset row
	// falls outside the partition; nil means NULL.
	Default expr.Expr
}

// FrameBoundKind is the closed set of window frame boundary shapes a
// ROWS BETWEEN clause can name.
type FrameBoundKind int

// The supported frame boundary shapes.
const (
	UnboundedPreceding FrameBoundKind = iota
	PrecedingN
	CurrentRow
	FollowingN
	UnboundedFollowing
)

// FrameBound is one edge (start or end) of a ROWS BETWEEN frame.
type FrameBound struct {
	Kind FrameBoundKind
	// Offset is the row count, meaningful only for PrecedingN/FollowingN.
	Offset int
}

// WindowFrame is a ROWS BETWEEN frame clause. Defined is false when the
// OVER() clause named no explicit frame.
type WindowFrame struct {
	Defined    bool
	Start, End FrameBound
}

// WindowSpecRequest mirrors client.WindowSpec in the planner's request
// vocabulary, kept distinct so this package never imports exec/client
// types into its public surface.
type WindowSpecRequest struct {
	PartitionBy []string
	OrderBy     []OrderByItem
	Frame       WindowFrame
}

// OrderByItem is one ORDER BY entry.
type OrderByItem struct {
	Column string
	Desc   bool
}

// TableValuedCall is a STRING_SPLIT or OPENJSON invocation appearing in
// the FROM clause.
type TableValuedCall struct {
	// Func is "string_split" or "openjson".
	Func        string
	Source      expr.Expr
	Separator   expr.Expr // string_split only
	ValueColumn string    // string_split's output column name, default "value"
}

// AggregateItem is one aggregate in the SELECT list (COUNT, SUM, MIN,
// MAX, AVG).
type AggregateItem struct {
	OutputName string
	Func       string // "count", "sum", "min", "max", "avg"
	Column     string
	// Distinct marks COUNT(DISTINCT column); aggregate partitioning is
	// never triggered when any AggregateItem is Distinct.
	Distinct bool
}

// SelectRequest is the planner's normalized view of a SELECT
// statement, after upstream parsing but before any of the
// variable-substitution or subquery rewrites are applied.
type SelectRequest struct {
	Entity string

	// MetadataTable is non-empty when Entity named a `metadata.<table>`
	// target, triggering step 1's MetadataScan routing.
	MetadataTable    string
	MetadataFilter   func(value.Row) bool
	MetadataEntityArg string

	Columns     []value.Column
	Computed    []ComputedColumn
	TableValued []TableValuedCall

	Where      expr.Predicate
	// PushableWhere, when non-nil, is the subset of Where the
	// transpiler can express natively; RemainderWhere is what's left
	// for a ClientFilter above the scan, per step 5's AND-combine,
	// OR-goes-whole-client rule.
	RemainderWhere expr.Predicate
	Having         expr.Predicate

	GroupBy    []string
	Aggregates []AggregateItem

	Subqueries []SubqueryRewrite

	// ReferencedVariables lists the `@name` variables the upstream
	// parser found inside Where, for step 3's variable-substitution
	// rewrite. The planner resolves each through a bound
	// config.Options.VariableScope into a literal VariableBindings
	// entry the transpiler can splice into FetchXML text.
	ReferencedVariables []string
	VariableBindings    map[string]value.Value

	// VirtualColumns lists `*name` lookup columns referenced anywhere
	// in the statement, for the passthrough compatibility check.
	VirtualColumns []VirtualColumnRef
	// HasDMLKeyword marks a statement upstream already knows can never
	// be expressed as a pure read (e.g. an UPDATE...FROM style CTE the
	// parser folded in); passthrough is never offered in this case.
	HasDMLKeyword bool
	// IncompatibleEntity marks Entity as one the backend-SQL endpoint
	// cannot serve (e.g. a virtual or elastic table).
	IncompatibleEntity bool

	// FetchXML, when already built upstream, is used as-is; otherwise
	// the planner calls the bound Transpiler.
	FetchXML string

	// CountStar is true for a bare `SELECT COUNT(*) FROM entity` with
	// no WHERE/JOIN/GROUP/HAVING, triggering step 3's fast path.
	CountStar       bool
	CountColumnName string

	// DateColumn/MinDate/MaxDate describe the date range aggregate
	// partitioning slices, when known.
	DateColumn       string
	HasDateRange     bool
	MinDate, MaxDate time.Time

	OrderBy []OrderByItem
	Limit   int64
}

// InsertRequest is a normalized INSERT ... VALUES statement.
type InsertRequest struct {
	Entity  string
	Columns []string
	Rows    [][]expr.Expr
}

// InsertSelectRequest is a normalized INSERT ... SELECT statement. The
// ordinal position of each entry in Columns maps to the column at the
// same ordinal position in Source's projection
type InsertSelectRequest struct {
	Entity  string
	Columns []string
	Source  *SelectRequest
}

// UpdateRequest is a normalized UPDATE statement. Where filters which
// rows the driving SELECT (built by the planner) returns.
type UpdateRequest struct {
	Entity           string
	PrimaryKeyColumn string
	Sets             []SetExpr
	Where            expr.Predicate
	RemainderWhere   expr.Predicate
}

// SetExpr is one SET clause of an UpdateRequest or MergeRequest's
// WHEN MATCHED THEN UPDATE clause.
type SetExpr struct {
	Column string
	Expr   expr.Expr
}

// DeleteRequest is a normalized DELETE statement.
type DeleteRequest struct {
	Entity           string
	PrimaryKeyColumn string
	Where            expr.Predicate
	RemainderWhere   expr.Predicate
}

// MergeRequest is a normalized MERGE statement.
type MergeRequest struct {
	Entity     string
	OnColumns  []string
	Using      *SelectRequest
	WhenMatch  string // "update" or "delete"
	UpdateSets []SetExpr
	InsertCols []string
	InsertExpr []expr.Expr
}

// UnionRequest is a normalized UNION (or UNION ALL) of two or more
// branches.
type UnionRequest struct {
	Branches []*SelectRequest
	// BranchAll[i] is true when the union operator following branch i
	// was UNION ALL, false for a plain UNION (triggering the
	// top-level Distinct wrap).
	BranchAll []bool
}
