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

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// ProjectItem is one output column of a Project: an output name and the
// expression that computes it.
type ProjectItem struct {
	Name string
	Expr expr.Expr
}

// Project evaluates a SELECT list over a child's rows, computing any
// expressions the backend couldn't. Output rows
// contain exactly the projected columns, in order.
type Project struct {
	describeNode
	Items  []ProjectItem
	Entity string
}

// NewProject constructs a Project.
func NewProject(child types.PlanNode, entity string, items []ProjectItem) *Project {
	return &Project{describeNode: describeNode{label: "Project", child: child}, Items: items, Entity: entity}
}

var _ types.PlanNode = (*Project)(nil)

// Execute implements types.PlanNode.
func (p *Project) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := p.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &projectIter{inner: inner, proj: p, ec: ec}, nil
}

type projectIter struct {
	inner types.RowIter
	proj  *Project
	ec    *types.ExecContext
}

func (it *projectIter) Next(ctx context.Context) (value.Row, bool, error) {
	row, ok, err := it.inner.Next(ctx)
	if err != nil || !ok {
		return value.Row{}, false, err
	}
	out := value.NewRow(it.proj.Entity)
	for _, item := range it.proj.Items {
		v, err := item.Expr.Eval(it.ec, row)
		if err != nil {
			return value.Row{}, false, err
		}
		out = out.WithSet(item.Name, v)
	}
	return out, true, nil
}

func (it *projectIter) Close() error { return it.inner.Close() }
