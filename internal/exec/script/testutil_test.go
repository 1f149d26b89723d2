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

package script

import (
	"context"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// sliceLeaf is a leaf PlanNode over a fixed row slice.
type sliceLeaf struct {
	cols []value.Column
	rows []value.Row
}

func (s *sliceLeaf) Describe() string           { return "sliceLeaf" }
func (s *sliceLeaf) EstimatedRows() int64       { return int64(len(s.rows)) }
func (s *sliceLeaf) Children() []types.PlanNode { return nil }
func (s *sliceLeaf) Execute(context.Context, *types.ExecContext) (types.RowIter, error) {
	return types.NewSliceIter(s.rows), nil
}

func newScriptExecContext() *types.ExecContext {
	return &types.ExecContext{Context: context.Background(), Scope: types.NewVariableScope()}
}

func truePred(*types.ExecContext, value.Row) (bool, error)  { return true, nil }
func falsePred(*types.ExecContext, value.Row) (bool, error) { return false, nil }
