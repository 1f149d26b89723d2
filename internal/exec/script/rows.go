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

// Select wraps a compiled plan (SELECT, or any other row-producing
// statement root) as a script statement, fully draining it so its
// result can participate in the "last row-producing statement wins"
// rule.
type Select struct {
	Plan    types.PlanNode
	Columns []value.Column
}

var _ Stmt = (*Select)(nil)

// Exec implements Stmt.
func (s *Select) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	iter, err := s.Plan.Execute(ctx, ec)
	if err != nil {
		return nil, nil, false, err
	}
	rows, err := types.Drain(ctx, iter)
	if err != nil {
		return nil, nil, false, err
	}
	return rows, s.Columns, true, nil
}
