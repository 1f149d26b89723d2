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

	"github.com/joshsmithxrm/ppds-queryengine/internal/exec/client"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
)

// PlanUnion compiles req into a Concatenate tree, wrapped in a Distinct
// when any branch boundary was a plain UNION rather than UNION ALL.
// Branches are planned independently; a wildcard
// column list is treated as matching any other branch's arity.
func (p *Planner) PlanUnion(req *UnionRequest) (types.PlanNode, error) {
	if len(req.Branches) < 2 {
		return nil, errors.New("plan: union requires at least two branches")
	}
	if err := validateUnionArity(req.Branches); err != nil {
		return nil, err
	}

	inputs := make([]types.PlanNode, 0, len(req.Branches))
	for _, b := range req.Branches {
		node, err := p.PlanSelect(b)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, node)
	}

	var tree types.PlanNode = client.NewConcatenate(inputs)
	for _, all := range req.BranchAll {
		if !all {
			tree = client.NewDistinct(tree)
			break
		}
	}
	return tree, nil
}

// validateUnionArity requires every branch to project the same number
// of columns, treating a branch that used `SELECT *` (signaled by a
// nil Columns slice) as matching any arity.
func validateUnionArity(branches []*SelectRequest) error {
	want := -1
	for _, b := range branches {
		if b.Columns == nil {
			continue
		}
		if want == -1 {
			want = len(b.Columns)
			continue
		}
		if len(b.Columns) != want {
			return errors.New("plan: union branches project different numbers of columns")
		}
	}
	return nil
}
