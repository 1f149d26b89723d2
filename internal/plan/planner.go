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

package plan

import (
	"github.com/pkg/errors"

	"github.com/joshsmithxrm/ppds-queryengine/internal/config"
	"github.com/joshsmithxrm/ppds-queryengine/internal/exec/client"
	"github.com/joshsmithxrm/ppds-queryengine/internal/exec/scan"
	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Planner compiles a normalized request into an operator tree. It
// holds no per-query state; the same Planner is reused across
// statements, assembling a fixed set of collaborators once and
// exposing a single entry point per statement kind.
type Planner struct {
	Options    config.Options
	Transpiler types.Transpiler
}

// New constructs a Planner.
func New(opts config.Options, transpiler types.Transpiler) *Planner {
	return &Planner{Options: opts, Transpiler: transpiler}
}

// PlanSelect compiles req into an operator tree through an
// eight-step SELECT dispatch.
func (p *Planner) PlanSelect(req *SelectRequest) (types.PlanNode, error) {
	if req == nil {
		return nil, errors.New("plan: nil select request")
	}

	// Step 1: metadata routing.
	if req.MetadataTable != "" {
		return p.planMetadata(req), nil
	}

	// Step 2: backend-SQL passthrough.
	if p.Options.UseBackendSQLPassthrough && p.passthroughCompatible(req) {
		maxRows := int(p.Options.MaxRows)
		return scan.NewBackendSqlScan(p.Options.OriginalSQL, maxRows), nil
	}

	// Step 3: COUNT(*) fast path short-circuits the rest of the
	// pipeline; none of the later steps apply to a bare count.
	if req.CountStar {
		return scan.NewCountOptimizedScan(req.Entity, req.CountColumnName), nil
	}

	resolved, err := p.resolveVariables(req)
	if err != nil {
		return nil, err
	}

	base, err := p.buildScan(resolved)
	if err != nil {
		return nil, err
	}

	base, err = p.applySubqueryRewrites(resolved, base)
	if err != nil {
		return nil, err
	}

	// Aggregate partitioning supersedes the single-scan tree built
	// above when it triggers; it reassembles its own date-filtered
	// FetchXML per partition rather than reusing base.
	if p.shouldPartition(resolved) {
		base, err = p.buildPartitionedAggregate(resolved)
		if err != nil {
			return nil, err
		}
	}

	// Step 5: WHERE remainder the transpiler could not push.
	if resolved.RemainderWhere != nil {
		base = client.NewClientFilter(base, resolved.RemainderWhere)
	}

	// Step 6: HAVING.
	if resolved.Having != nil {
		base = client.NewClientFilter(base, resolved.Having)
	}

	// Step 7: window functions.
	win, err := windowItems(resolved.Computed)
	if err != nil {
		return nil, err
	}
	if len(win) > 0 {
		base = client.NewClientWindow(base, windowSpec(resolved.Computed), win)
	}

	// Step 8: computed (non-window) columns.
	if proj := projectItems(resolved.Columns, resolved.Computed); proj != nil {
		base = client.NewProject(base, resolved.Entity, proj)
	}

	return base, nil
}

func (p *Planner) planMetadata(req *SelectRequest) types.PlanNode {
	kind := scan.MetadataEntities
	switch req.MetadataTable {
	case "attributes":
		kind = scan.MetadataAttributes
	case "relationships":
		kind = scan.MetadataRelationships
	}
	base := types.PlanNode(scan.NewMetadataScan(kind, req.MetadataEntityArg, req.MetadataFilter))
	if req.RemainderWhere != nil {
		base = client.NewClientFilter(base, req.RemainderWhere)
	}
	return base
}

// passthroughCompatible implements step 2's eligibility check: no DML
// keywords, the target entity isn't on the incompatible list, and no
// client-side virtual `*name` lookup column is referenced.
func (p *Planner) passthroughCompatible(req *SelectRequest) bool {
	if p.Options.OriginalSQL == "" {
		return false
	}
	if req.HasDMLKeyword || req.IncompatibleEntity {
		return false
	}
	return len(req.VirtualColumns) == 0
}

// resolveVariables implements step 3's variable substitution: any
// `@name` reference the upstream parser flagged is resolved through a
// bound scope into a literal value the transpiler can splice into
// FetchXML text. Absent a bound scope, the request passes through
// unchanged; the transpiler then sees unresolved references and is
// free to reject or pass them through as-is.
func (p *Planner) resolveVariables(req *SelectRequest) (*SelectRequest, error) {
	if p.Options.VariableScope == nil || len(req.ReferencedVariables) == 0 {
		return req, nil
	}
	out := *req
	out.VariableBindings = make(map[string]value.Value, len(req.ReferencedVariables))
	for _, name := range req.ReferencedVariables {
		v, _ := p.Options.VariableScope.Get(name)
		out.VariableBindings[name] = v
	}
	return &out, nil
}

// buildScan implements step 4: transpile to FetchXML, build the leaf
// scan, and optionally wrap it in a PrefetchScan.
func (p *Planner) buildScan(req *SelectRequest) (types.PlanNode, error) {
	fetchXML := req.FetchXML
	if fetchXML == "" {
		if p.Transpiler == nil {
			return nil, errors.New("plan: select has no FetchXML and no transpiler is bound")
		}
		result, err := p.Transpiler.Transpile(req)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		fetchXML = result.FetchXML
	}

	rowCap := p.Options.MaxRows
	var leaf types.PlanNode = scan.NewFetchXmlScan(req.Entity, fetchXML, req.Columns, rowCap, p.Options.IncludeCount)
	if p.Options.EnablePrefetch {
		bufSize := p.Options.PrefetchBufferSize
		leaf = scan.NewPrefetchScan(leaf, bufSize)
	}
	return leaf, nil
}

// applySubqueryRewrites implements step 3's IN/EXISTS family: each
// recognized subquery becomes a hash join (client.Merge) against an
// independently-planned inner tree, materialized at execution time by
// Merge itself rather than at plan time, keeping this function a pure
// tree assembly.
func (p *Planner) applySubqueryRewrites(req *SelectRequest, base types.PlanNode) (types.PlanNode, error) {
	out := base
	for _, rw := range req.Subqueries {
		inner, err := p.PlanSelect(rw.Subquery)
		if err != nil {
			return nil, err
		}
		switch rw.Kind {
		case RewriteInSubquery, RewriteExists:
			out = client.NewMerge(out, inner, rw.OuterKey, rw.InnerKey, client.InnerJoin, []string{rw.InnerKey})
		case RewriteNotInSubquery:
			out = client.NewNotInAntiJoin(out, inner, rw.OuterKey, rw.InnerKey)
		case RewriteNotExists:
			joined := client.NewMerge(out, inner, rw.OuterKey, rw.InnerKey, client.LeftOuterJoin, []string{rw.InnerKey})
			out = client.NewClientFilter(joined, columnIsNull(rw.InnerKey))
		}
	}
	return out, nil
}

func columnIsNull(col string) expr.Predicate {
	return func(_ *types.ExecContext, row value.Row) (bool, error) {
		return row.GetOrNull(col).IsNull(), nil
	}
}

func windowItems(computed []ComputedColumn) ([]client.WindowItem, error) {
	var items []client.WindowItem
	for _, c := range computed {
		if c.Window == nil {
			continue
		}
		fn, err := windowFunc(c.Window.Func)
		if err != nil {
			return nil, err
		}
		items = append(items, client.WindowItem{
			OutputName: c.OutputName,
			Func:       fn,
			Arg:        c.Window.Arg,
			Offset:     c.Window.Offset,
			Default:    c.Window.Default,
		})
	}
	return items, nil
}

func windowSpec(computed []ComputedColumn) client.WindowSpec {
	for _, c := range computed {
		if c.Window == nil {
			continue
		}
		order := make([]client.OrderKey, len(c.Window.Spec.OrderBy))
		for i, o := range c.Window.Spec.OrderBy {
			order[i] = client.OrderKey{Column: o.Column, Desc: o.Desc}
		}
		return client.WindowSpec{
			PartitionBy: c.Window.Spec.PartitionBy,
			OrderBy:     order,
			Frame:       windowFrame(c.Window.Spec.Frame),
		}
	}
	return client.WindowSpec{}
}

func windowFrame(f WindowFrame) client.WindowFrame {
	return client.WindowFrame{
		Defined: f.Defined,
		Start:   frameBound(f.Start),
		End:     frameBound(f.End),
	}
}

func frameBound(b FrameBound) client.FrameBound {
	kind := client.UnboundedPreceding
	switch b.Kind {
	case PrecedingN:
		kind = client.PrecedingN
	case CurrentRow:
		kind = client.CurrentRow
	case FollowingN:
		kind = client.FollowingN
	case UnboundedFollowing:
		kind = client.UnboundedFollowing
	}
	return client.FrameBound{Kind: kind, Offset: b.Offset}
}

func windowFunc(name string) (client.WindowFunc, error) {
	switch name {
	case "row_number":
		return client.WindowRowNumber, nil
	case "rank":
		return client.WindowRank, nil
	case "dense_rank":
		return client.WindowDenseRank, nil
	case "sum":
		return client.WindowSum, nil
	case "avg":
		return client.WindowAvg, nil
	case "count":
		return client.WindowCount, nil
	case "min":
		return client.WindowMin, nil
	case "max":
		return client.WindowMax, nil
	case "cume_dist":
		return client.WindowCumeDist, nil
	case "percent_rank":
		return client.WindowPercentRank, nil
	case "lag":
		return client.WindowLag, nil
	case "lead":
		return client.WindowLead, nil
	case "ntile":
		return client.WindowNtile, nil
	case "first_value":
		return client.WindowFirstValue, nil
	case "last_value":
		return client.WindowLastValue, nil
	default:
		return 0, errors.Errorf("plan: unsupported window function %q", name)
	}
}

func projectItems(cols []value.Column, computed []ComputedColumn) []client.ProjectItem {
	var nonWindow []ComputedColumn
	for _, c := range computed {
		if c.Window == nil {
			nonWindow = append(nonWindow, c)
		}
	}
	if len(nonWindow) == 0 {
		return nil
	}
	items := make([]client.ProjectItem, 0, len(cols)+len(nonWindow))
	for _, c := range cols {
		items = append(items, client.ProjectItem{Name: c.OutputName(), Expr: expr.Column(c.OutputName())})
	}
	for _, c := range nonWindow {
		items = append(items, client.ProjectItem{Name: c.OutputName, Expr: c.Expr})
	}
	return items
}
